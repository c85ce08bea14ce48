package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/teampulse/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) WithTx(tx *sql.Tx) *UserStore {
	return &UserStore{db: tx}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.Role, &u.AuthType,
		&u.PasswordHash, &u.Points, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, username, display_name, email, role, auth_type, password_hash, points, created_at, updated_at`

// NewUser holds the fields needed to create a user.
type NewUser struct {
	Username     string
	DisplayName  string
	Email        string
	Role         string
	AuthType     string
	PasswordHash string
}

func (s *UserStore) Create(ctx context.Context, nu NewUser) (*model.User, error) {
	if nu.Role == "" {
		nu.Role = model.RoleMember
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, display_name, email, role, auth_type, password_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		nu.Username, nu.DisplayName, nu.Email, nu.Role, nu.AuthType, nu.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpsertTracker creates or refreshes a user authenticated by the issue
// tracker. An existing role is only ever promoted to admin, never demoted.
func (s *UserStore) UpsertTracker(ctx context.Context, username, displayName, email, role string) (*model.User, error) {
	if role == "" {
		role = model.RoleMember
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, display_name, email, role, auth_type) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
		   display_name = excluded.display_name,
		   email = excluded.email,
		   role = CASE WHEN excluded.role = 'admin' THEN 'admin' ELSE users.role END`,
		username, displayName, email, role, model.AuthTypeTracker,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetByUsername(ctx, username)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// AddPoints increments the balance. It reports false when the user does not exist.
func (s *UserStore) AddPoints(ctx context.Context, id int64, points int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET points = points + ? WHERE id = ?`, points, id)
	if err != nil {
		return false, fmt.Errorf("add points: %w", err)
	}
	return affected(result)
}

// DebitPoints decrements the balance only if it covers the amount. It reports
// false when the balance is insufficient or the user does not exist.
func (s *UserStore) DebitPoints(ctx context.Context, id int64, points int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET points = points - ? WHERE id = ? AND points >= ?`,
		points, id, points,
	)
	if err != nil {
		return false, fmt.Errorf("debit points: %w", err)
	}
	return affected(result)
}

// Leaderboard returns users ordered by point balance, highest first.
func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, display_name, points FROM users ORDER BY points DESC, username ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.DisplayName, &e.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
