package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/teampulse/internal/model"
)

type ActivityStore struct {
	db DBTX
}

func NewActivityStore(db DBTX) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) WithTx(tx *sql.Tx) *ActivityStore {
	return &ActivityStore{db: tx}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var teamID sql.NullInt64
	var isWFH int

	err := scanner.Scan(
		&a.ID, &a.UserID, &teamID, &a.Date, &a.Time, &a.Subject, &a.Description,
		&a.Status, &a.Project, &isWFH, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if teamID.Valid {
		a.TeamID = &teamID.Int64
	}
	a.IsWFH = isWFH != 0
	return &a, nil
}

const activityCols = `id, user_id, team_id, date, time, subject, description, status, project, is_wfh, created_at, updated_at`

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func (s *ActivityStore) Create(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (user_id, team_id, date, time, subject, description, status, project, is_wfh)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, nullInt64(a.TeamID), a.Date, a.Time, a.Subject, a.Description,
		a.Status, a.Project, boolToInt(a.IsWFH),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ActivityStore) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityCols+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// Update overwrites every mutable field of the activity.
func (s *ActivityStore) Update(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE activities SET team_id = ?, date = ?, time = ?, subject = ?, description = ?,
		 status = ?, project = ?, is_wfh = ? WHERE id = ?`,
		nullInt64(a.TeamID), a.Date, a.Time, a.Subject, a.Description,
		a.Status, a.Project, boolToInt(a.IsWFH), a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	return s.GetByID(ctx, a.ID)
}

func (s *ActivityStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// ListByUser returns a user's activities between from and to (inclusive,
// YYYY-MM-DD). Empty bounds are open.
func (s *ActivityStore) ListByUser(ctx context.Context, userID int64, from, to string) ([]model.Activity, error) {
	query := `SELECT ` + activityCols + ` FROM activities WHERE user_id = ?`
	args := []any{userID}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date DESC, time DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
