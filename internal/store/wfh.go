package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/teampulse/internal/model"
)

type WFHStore struct {
	db DBTX
}

func NewWFHStore(db DBTX) *WFHStore {
	return &WFHStore{db: db}
}

func (s *WFHStore) WithTx(tx *sql.Tx) *WFHStore {
	return &WFHStore{db: tx}
}

func scanWFHRecord(scanner interface{ Scan(...any) error }) (*model.WFHRecord, error) {
	var r model.WFHRecord
	err := scanner.Scan(&r.ID, &r.UserID, &r.TeamID, &r.Date, &r.Month, &r.Year, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const wfhRecordCols = `id, user_id, team_id, date, month, year, created_at`

func (s *WFHStore) Get(ctx context.Context, userID, teamID int64, day time.Time) (*model.WFHRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+wfhRecordCols+` FROM wfh_records WHERE user_id = ? AND team_id = ? AND date = ?`,
		userID, teamID, day.Format(model.DateLayout),
	)
	r, err := scanWFHRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wfh record: %w", err)
	}
	return r, nil
}

// CountMonth counts the user's WFH days in the team for the given month.
func (s *WFHStore) CountMonth(ctx context.Context, userID, teamID int64, month, year int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wfh_records WHERE user_id = ? AND team_id = ? AND month = ? AND year = ?`,
		userID, teamID, month, year,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count wfh records: %w", err)
	}
	return n, nil
}

func (s *WFHStore) Create(ctx context.Context, userID, teamID int64, day time.Time) (*model.WFHRecord, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO wfh_records (user_id, team_id, date, month, year) VALUES (?, ?, ?, ?, ?)`,
		userID, teamID, day.Format(model.DateLayout), int(day.Month()), day.Year(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert wfh record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+wfhRecordCols+` FROM wfh_records WHERE id = ?`, id)
	return scanWFHRecord(row)
}

func (s *WFHStore) Delete(ctx context.Context, userID, teamID int64, day time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wfh_records WHERE user_id = ? AND team_id = ? AND date = ?`,
		userID, teamID, day.Format(model.DateLayout),
	)
	if err != nil {
		return fmt.Errorf("delete wfh record: %w", err)
	}
	return nil
}

func (s *WFHStore) ListMonth(ctx context.Context, userID, teamID int64, month, year int) ([]model.WFHRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wfhRecordCols+` FROM wfh_records WHERE user_id = ? AND team_id = ? AND month = ? AND year = ?
		 ORDER BY date ASC`,
		userID, teamID, month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list wfh records: %w", err)
	}
	defer rows.Close()

	var records []model.WFHRecord
	for rows.Next() {
		r, err := scanWFHRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wfh record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// --- Bonus quota methods ---

const quotaCols = `id, user_id, month, year, total_quota, updated_at`

func (s *WFHStore) GetQuota(ctx context.Context, userID int64, month, year int) (*model.UserWFHQuota, error) {
	var q model.UserWFHQuota
	err := s.db.QueryRowContext(ctx,
		`SELECT `+quotaCols+` FROM user_wfh_quotas WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year,
	).Scan(&q.ID, &q.UserID, &q.Month, &q.Year, &q.TotalQuota, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wfh quota: %w", err)
	}
	return &q, nil
}

// AddQuota increments the bonus quota for the month, creating the row if needed.
func (s *WFHStore) AddQuota(ctx context.Context, userID int64, month, year, days int) (*model.UserWFHQuota, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_wfh_quotas (user_id, month, year, total_quota) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, month, year) DO UPDATE SET
		   total_quota = user_wfh_quotas.total_quota + excluded.total_quota,
		   updated_at = CURRENT_TIMESTAMP`,
		userID, month, year, days,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert wfh quota: %w", err)
	}
	return s.GetQuota(ctx, userID, month, year)
}
