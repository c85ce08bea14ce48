package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/teampulse/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

func (s *RewardStore) WithTx(tx *sql.Tx) *RewardStore {
	return &RewardStore{db: tx}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int
	var expiresAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.Name, &r.Description, &r.PointsCost, &r.Quantity, &active,
		&expiresAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.IsActive = active != 0
	if expiresAt.Valid {
		t := expiresAt.Time
		r.ExpiresAt = &t
	}
	return &r, nil
}

const rewardCols = `id, name, description, points_cost, quantity, is_active, expires_at, created_at, updated_at`

// RewardInput holds the editable fields of a reward.
type RewardInput struct {
	Name        string
	Description string
	PointsCost  int
	Quantity    int
	IsActive    bool
	ExpiresAt   *time.Time
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func (s *RewardStore) Create(ctx context.Context, in RewardInput) (*model.Reward, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (name, description, points_cost, quantity, is_active, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.PointsCost, in.Quantity, boolToInt(in.IsActive), nullTime(in.ExpiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

func (s *RewardStore) list(ctx context.Context, query string) ([]model.Reward, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// List returns all rewards, active first, then by name.
func (s *RewardStore) List(ctx context.Context) ([]model.Reward, error) {
	return s.list(ctx, `SELECT `+rewardCols+` FROM rewards ORDER BY is_active DESC, name ASC`)
}

// ListAvailable returns active rewards that are unlimited or still in stock.
func (s *RewardStore) ListAvailable(ctx context.Context) ([]model.Reward, error) {
	return s.list(ctx,
		`SELECT `+rewardCols+` FROM rewards WHERE is_active = 1 AND (quantity = -1 OR quantity > 0) ORDER BY name ASC`)
}

func (s *RewardStore) Update(ctx context.Context, id int64, in RewardInput) (*model.Reward, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET name = ?, description = ?, points_cost = ?, quantity = ?, is_active = ?, expires_at = ? WHERE id = ?`,
		in.Name, in.Description, in.PointsCost, in.Quantity, boolToInt(in.IsActive), nullTime(in.ExpiresAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// Deactivate hides a reward from members without removing it.
func (s *RewardStore) Deactivate(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE rewards SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate reward: %w", err)
	}
	return nil
}

// CountRedemptions returns how many redemptions reference the reward and how
// many of those are still pending.
func (s *RewardStore) CountRedemptions(ctx context.Context, rewardID int64) (total, pending int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM redemptions WHERE reward_id = ?`,
		model.RedemptionPending, rewardID,
	).Scan(&total, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("count redemptions: %w", err)
	}
	return total, pending, nil
}

// TakeStock decrements a finite stock counter by one. Unlimited rewards are
// left untouched and always succeed; an exhausted reward reports false.
func (s *RewardStore) TakeStock(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET quantity = CASE WHEN quantity = -1 THEN -1 ELSE quantity - 1 END
		 WHERE id = ? AND (quantity = -1 OR quantity > 0)`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("take stock: %w", err)
	}
	return affected(result)
}

// RestoreStock returns one unit to a finite stock counter.
func (s *RewardStore) RestoreStock(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET quantity = quantity + 1 WHERE id = ? AND quantity >= 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	var activated int
	var activatedAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.UserID, &r.RewardID, &r.RewardName, &r.PointsSpent, &r.Status,
		&activated, &activatedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.IsActivated = activated != 0
	if activatedAt.Valid {
		t := activatedAt.Time
		r.ActivatedAt = &t
	}
	return &r, nil
}

const redemptionCols = `rd.id, rd.user_id, rd.reward_id, rw.name, rd.points_spent, rd.status,
	rd.is_activated, rd.activated_at, rd.created_at, rd.updated_at`

const redemptionFrom = ` FROM redemptions rd JOIN rewards rw ON rw.id = rd.reward_id`

func (s *RewardStore) CreateRedemption(ctx context.Context, userID, rewardID int64, pointsSpent int) (*model.Redemption, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO redemptions (user_id, reward_id, points_spent, status) VALUES (?, ?, ?, ?)`,
		userID, rewardID, pointsSpent, model.RedemptionPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRedemption(ctx, id)
}

func (s *RewardStore) GetRedemption(ctx context.Context, id int64) (*model.Redemption, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+redemptionCols+redemptionFrom+` WHERE rd.id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// RedemptionFilter narrows ListRedemptions. Zero values match everything.
type RedemptionFilter struct {
	UserID int64
	Status string
}

func (s *RewardStore) ListRedemptions(ctx context.Context, f RedemptionFilter) ([]model.Redemption, error) {
	query := `SELECT ` + redemptionCols + redemptionFrom + ` WHERE 1 = 1`
	var args []any
	if f.UserID != 0 {
		query += ` AND rd.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		query += ` AND rd.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY rd.created_at DESC, rd.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

func (s *RewardStore) UpdateRedemptionStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE redemptions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update redemption status: %w", err)
	}
	return nil
}

// MarkActivated completes an approved, not yet activated redemption. It
// reports false when the redemption is not in that state.
func (s *RewardStore) MarkActivated(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE redemptions SET is_activated = 1, activated_at = ?, status = ?
		 WHERE id = ? AND is_activated = 0 AND status = ?`,
		at.UTC(), model.RedemptionCompleted, id, model.RedemptionApproved,
	)
	if err != nil {
		return false, fmt.Errorf("mark redemption activated: %w", err)
	}
	return affected(result)
}

func (s *RewardStore) DeleteRedemption(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM redemptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete redemption: %w", err)
	}
	return nil
}
