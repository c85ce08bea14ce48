// Package wfh enforces the monthly remote-work cap per user and team and
// keeps WFH records in step with each activity's remote-work flag.
package wfh

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

// LimitExceededError reports a refused remote-work day.
type LimitExceededError struct {
	Used  int
	Limit int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("WFH limit reached: %d of %d days used this month", e.Used, e.Limit)
}

type Accountant struct {
	records      *store.WFHStore
	teams        *store.TeamStore
	defaultLimit int
}

func NewAccountant(records *store.WFHStore, teams *store.TeamStore, defaultLimit int) *Accountant {
	return &Accountant{records: records, teams: teams, defaultLimit: defaultLimit}
}

// WithTx returns an Accountant whose reads and writes run inside tx.
func (a *Accountant) WithTx(tx *sql.Tx) *Accountant {
	return &Accountant{
		records:      a.records.WithTx(tx),
		teams:        a.teams.WithTx(tx),
		defaultLimit: a.defaultLimit,
	}
}

// Limit returns the team's monthly cap, or the default when the team is missing.
func (a *Accountant) Limit(ctx context.Context, teamID int64) (int, error) {
	team, err := a.teams.GetByID(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if team == nil {
		return a.defaultLimit, nil
	}
	return team.WFHLimitPerMonth, nil
}

// ApplyFlag reconciles the WFH record for (user, team, day) with a change of
// an activity's remote-work flag. Turning the flag on for a day that already
// has a record is a no-op; otherwise the month's count must be below the
// team limit or a *LimitExceededError is returned and nothing is written.
// Turning the flag off removes the day's record if there is one.
func (a *Accountant) ApplyFlag(ctx context.Context, userID, teamID int64, day time.Time, newIsWFH, prevIsWFH bool) error {
	if newIsWFH == prevIsWFH {
		return nil
	}
	day = truncateDay(day)

	if !newIsWFH {
		return a.records.Delete(ctx, userID, teamID, day)
	}

	existing, err := a.records.Get(ctx, userID, teamID, day)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	used, err := a.records.CountMonth(ctx, userID, teamID, int(day.Month()), day.Year())
	if err != nil {
		return err
	}
	limit, err := a.Limit(ctx, teamID)
	if err != nil {
		return err
	}
	if used >= limit {
		return &LimitExceededError{Used: used, Limit: limit}
	}

	if _, err := a.records.Create(ctx, userID, teamID, day); err != nil {
		return err
	}
	return nil
}

// Usage reports the user's WFH consumption in the team for the month of at.
// BonusQuota comes from activated rewards and does not raise Limit.
func (a *Accountant) Usage(ctx context.Context, userID, teamID int64, at time.Time) (*model.WFHUsage, error) {
	month, year := int(at.Month()), at.Year()

	used, err := a.records.CountMonth(ctx, userID, teamID, month, year)
	if err != nil {
		return nil, err
	}
	limit, err := a.Limit(ctx, teamID)
	if err != nil {
		return nil, err
	}
	quota, err := a.records.GetQuota(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	u := &model.WFHUsage{
		Used:      used,
		Limit:     limit,
		Remaining: max(limit-used, 0),
	}
	if quota != nil {
		u.BonusQuota = quota.TotalQuota
	}
	return u, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
