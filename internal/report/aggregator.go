// Package report builds read-only monthly rollups of activities and remote
// days, per team and across the system, and exports team reports as CSV.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

var (
	ErrForbidden     = errors.New("not allowed to view this report")
	ErrTeamNotFound  = errors.New("team not found")
	ErrInvalidPeriod = errors.New("month must be between 1 and 12 and year must be positive")
)

type Aggregator struct {
	reports *store.ReportStore
	teams   *store.TeamStore
}

func NewAggregator(reports *store.ReportStore, teams *store.TeamStore) *Aggregator {
	return &Aggregator{reports: reports, teams: teams}
}

// Period returns the first and last day of a month as YYYY-MM-DD strings.
func Period(month, year int) (from, to string, err error) {
	if month < 1 || month > 12 || year < 1 {
		return "", "", ErrInvalidPeriod
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(model.DateLayout), last.Format(model.DateLayout), nil
}

// TeamReport returns per-member counts for the team. Admins and the team's
// own managers may read it.
func (a *Aggregator) TeamReport(ctx context.Context, teamID int64, month, year int) (*model.TeamReport, error) {
	from, to, err := Period(month, year)
	if err != nil {
		return nil, err
	}

	team, err := a.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if !auth.IsAdmin(ctx) {
		m, err := a.teams.GetMember(ctx, teamID, auth.UserID(ctx))
		if err != nil {
			return nil, err
		}
		if m == nil || !m.CanManage() {
			return nil, ErrForbidden
		}
	}

	members, err := a.reports.MemberStats(ctx, teamID, from, to, month, year)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.MemberReport{}
	}
	return &model.TeamReport{
		TeamID:   team.ID,
		TeamName: team.Name,
		Month:    month,
		Year:     year,
		WFHLimit: team.WFHLimitPerMonth,
		Members:  members,
	}, nil
}

// SystemReport returns totals and per-team summaries. Admin only.
func (a *Aggregator) SystemReport(ctx context.Context, month, year int) (*model.SystemReport, error) {
	if !auth.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	from, to, err := Period(month, year)
	if err != nil {
		return nil, err
	}

	users, activities, wfhDays, err := a.reports.Totals(ctx, from, to, month, year)
	if err != nil {
		return nil, err
	}
	teams, err := a.reports.TeamSummaries(ctx, from, to, month, year)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []model.TeamSummary{}
	}
	return &model.SystemReport{
		Month:      month,
		Year:       year,
		Users:      users,
		Activities: activities,
		WFHDays:    wfhDays,
		Teams:      teams,
	}, nil
}
