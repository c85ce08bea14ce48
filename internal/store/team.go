package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/teampulse/internal/model"
)

type TeamStore struct {
	db DBTX
}

func NewTeamStore(db DBTX) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) WithTx(tx *sql.Tx) *TeamStore {
	return &TeamStore{db: tx}
}

func scanTeam(scanner interface{ Scan(...any) error }) (*model.Team, error) {
	var t model.Team
	err := scanner.Scan(&t.ID, &t.Name, &t.WFHLimitPerMonth, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTeamMember(scanner interface{ Scan(...any) error }) (*model.TeamMember, error) {
	var m model.TeamMember
	var isLead int
	err := scanner.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Username, &m.Role, &isLead, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.IsLead = isLead != 0
	return &m, nil
}

const teamCols = `id, name, wfh_limit_per_month, created_at, updated_at`
const teamMemberCols = `tm.id, tm.team_id, tm.user_id, u.username, tm.role, tm.is_lead, tm.created_at`

func (s *TeamStore) Create(ctx context.Context, name string, wfhLimit int) (*model.Team, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (name, wfh_limit_per_month) VALUES (?, ?)`,
		name, wfhLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("insert team: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// NameExists reports whether a team already uses name.
func (s *TeamStore) NameExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check team name: %w", err)
	}
	return count > 0, nil
}

func (s *TeamStore) GetByID(ctx context.Context, id int64) (*model.Team, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+teamCols+` FROM teams WHERE id = ?`, id)
	t, err := scanTeam(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func (s *TeamStore) List(ctx context.Context) ([]model.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+teamCols+` FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (s *TeamStore) UpdateWFHLimit(ctx context.Context, id int64, limit int) (*model.Team, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE teams SET wfh_limit_per_month = ? WHERE id = ?`, limit, id)
	if err != nil {
		return nil, fmt.Errorf("update wfh limit: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TeamStore) AddMember(ctx context.Context, teamID, userID int64, role string, isLead bool) (*model.TeamMember, error) {
	if role == "" {
		role = model.TeamRoleMember
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, is_lead) VALUES (?, ?, ?, ?)`,
		teamID, userID, role, boolToInt(isLead),
	)
	if err != nil {
		return nil, fmt.Errorf("add team member: %w", err)
	}
	return s.GetMember(ctx, teamID, userID)
}

func (s *TeamStore) RemoveMember(ctx context.Context, teamID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`,
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}

func (s *TeamStore) GetMember(ctx context.Context, teamID, userID int64) (*model.TeamMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+teamMemberCols+` FROM team_members tm JOIN users u ON u.id = tm.user_id
		 WHERE tm.team_id = ? AND tm.user_id = ?`,
		teamID, userID,
	)
	m, err := scanTeamMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team member: %w", err)
	}
	return m, nil
}

func (s *TeamStore) ListMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+teamMemberCols+` FROM team_members tm JOIN users u ON u.id = tm.user_id
		 WHERE tm.team_id = ? ORDER BY u.username ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var members []model.TeamMember
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
