package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/teampulse/internal/model"
)

// ReportStore runs the read-only rollup queries behind team and system reports.
type ReportStore struct {
	db DBTX
}

func NewReportStore(db DBTX) *ReportStore {
	return &ReportStore{db: db}
}

// MemberStats returns per-member activity counts for a team between from and
// to (inclusive, YYYY-MM-DD) and WFH days for the given month.
func (s *ReportStore) MemberStats(ctx context.Context, teamID int64, from, to string, month, year int) ([]model.MemberReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username,
		  (SELECT COUNT(*) FROM activities a WHERE a.user_id = u.id AND a.team_id = tm.team_id AND a.date BETWEEN ? AND ?),
		  (SELECT COUNT(*) FROM activities a WHERE a.user_id = u.id AND a.team_id = tm.team_id AND a.date BETWEEN ? AND ? AND a.status = 'Done'),
		  (SELECT COUNT(*) FROM activities a WHERE a.user_id = u.id AND a.team_id = tm.team_id AND a.date BETWEEN ? AND ? AND a.status = 'InProgress'),
		  (SELECT COUNT(*) FROM activities a WHERE a.user_id = u.id AND a.team_id = tm.team_id AND a.date BETWEEN ? AND ? AND a.status = 'Blocked'),
		  (SELECT COUNT(*) FROM wfh_records w WHERE w.user_id = u.id AND w.team_id = tm.team_id AND w.month = ? AND w.year = ?)
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ?
		ORDER BY u.username ASC`,
		from, to, from, to, from, to, from, to, month, year, teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("member stats: %w", err)
	}
	defer rows.Close()

	var stats []model.MemberReport
	for rows.Next() {
		var m model.MemberReport
		if err := rows.Scan(&m.UserID, &m.Username, &m.Activities, &m.Done, &m.InProgress, &m.Blocked, &m.WFHDays); err != nil {
			return nil, fmt.Errorf("scan member stats: %w", err)
		}
		stats = append(stats, m)
	}
	return stats, rows.Err()
}

// TeamSummaries returns per-team totals for the period.
func (s *ReportStore) TeamSummaries(ctx context.Context, from, to string, month, year int) ([]model.TeamSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name,
		  (SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = t.id),
		  (SELECT COUNT(*) FROM activities a WHERE a.team_id = t.id AND a.date BETWEEN ? AND ?),
		  (SELECT COUNT(*) FROM activities a WHERE a.team_id = t.id AND a.date BETWEEN ? AND ? AND a.status = 'Done'),
		  (SELECT COUNT(*) FROM activities a WHERE a.team_id = t.id AND a.date BETWEEN ? AND ? AND a.status = 'Blocked'),
		  (SELECT COUNT(*) FROM wfh_records w WHERE w.team_id = t.id AND w.month = ? AND w.year = ?)
		FROM teams t
		ORDER BY t.name ASC`,
		from, to, from, to, from, to, month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("team summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.TeamSummary
	for rows.Next() {
		var ts model.TeamSummary
		if err := rows.Scan(&ts.TeamID, &ts.TeamName, &ts.Members, &ts.Activities, &ts.Done, &ts.Blocked, &ts.WFHDays); err != nil {
			return nil, fmt.Errorf("scan team summary: %w", err)
		}
		summaries = append(summaries, ts)
	}
	return summaries, rows.Err()
}

// Totals returns the user count, activity count and WFH day count system-wide.
func (s *ReportStore) Totals(ctx context.Context, from, to string, month, year int) (users, activities, wfhDays int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM users),
		  (SELECT COUNT(*) FROM activities WHERE date BETWEEN ? AND ?),
		  (SELECT COUNT(*) FROM wfh_records WHERE month = ? AND year = ?)`,
		from, to, month, year,
	).Scan(&users, &activities, &wfhDays)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("report totals: %w", err)
	}
	return users, activities, wfhDays, nil
}
