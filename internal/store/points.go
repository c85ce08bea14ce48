package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/teampulse/internal/model"
)

type PointStore struct {
	db DBTX
}

func NewPointStore(db DBTX) *PointStore {
	return &PointStore{db: db}
}

func (s *PointStore) WithTx(tx *sql.Tx) *PointStore {
	return &PointStore{db: tx}
}

func scanPointTransaction(scanner interface{ Scan(...any) error }) (*model.PointTransaction, error) {
	var pt model.PointTransaction
	err := scanner.Scan(&pt.ID, &pt.UserID, &pt.AdminID, &pt.Points, &pt.Description, &pt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

const pointTransactionCols = `id, user_id, admin_id, points, description, created_at`

func (s *PointStore) CreateTransaction(ctx context.Context, userID, adminID int64, points int, description string) (*model.PointTransaction, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO point_transactions (user_id, admin_id, points, description) VALUES (?, ?, ?, ?)`,
		userID, adminID, points, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert point transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+pointTransactionCols+` FROM point_transactions WHERE id = ?`, id)
	return scanPointTransaction(row)
}

func (s *PointStore) ListTransactions(ctx context.Context, userID int64) ([]model.PointTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pointTransactionCols+` FROM point_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list point transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.PointTransaction
	for rows.Next() {
		pt, err := scanPointTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point transaction: %w", err)
		}
		txs = append(txs, *pt)
	}
	return txs, rows.Err()
}

// --- Top performer methods ---

const topPerformerCols = `tp.id, tp.user_id, u.username, u.display_name, tp.month, tp.year, tp.rank, tp.created_at`

func scanTopPerformer(scanner interface{ Scan(...any) error }) (*model.TopPerformer, error) {
	var tp model.TopPerformer
	err := scanner.Scan(&tp.ID, &tp.UserID, &tp.Username, &tp.DisplayName, &tp.Month, &tp.Year, &tp.Rank, &tp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

// ReplaceTopPerformer deletes whoever holds the rank for the month and
// inserts userID in their place. Run it inside a transaction.
func (s *PointStore) ReplaceTopPerformer(ctx context.Context, month, year, rank int, userID int64) (*model.TopPerformer, error) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM top_performers WHERE month = ? AND year = ? AND rank = ?`,
		month, year, rank,
	); err != nil {
		return nil, fmt.Errorf("delete top performer: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO top_performers (user_id, month, year, rank) VALUES (?, ?, ?, ?)`,
		userID, month, year, rank,
	)
	if err != nil {
		return nil, fmt.Errorf("insert top performer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+topPerformerCols+` FROM top_performers tp JOIN users u ON u.id = tp.user_id WHERE tp.id = ?`, id)
	return scanTopPerformer(row)
}

func (s *PointStore) ListTopPerformers(ctx context.Context, month, year int) ([]model.TopPerformer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+topPerformerCols+` FROM top_performers tp JOIN users u ON u.id = tp.user_id
		 WHERE tp.month = ? AND tp.year = ? ORDER BY tp.rank ASC`,
		month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("list top performers: %w", err)
	}
	defer rows.Close()

	var performers []model.TopPerformer
	for rows.Next() {
		tp, err := scanTopPerformer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan top performer: %w", err)
		}
		performers = append(performers, *tp)
	}
	return performers, rows.Err()
}
