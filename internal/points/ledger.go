// Package points keeps member point balances: admin grants with their
// journal, the leaderboard and the monthly top performers.
package points

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

const (
	MinGrant = 1
	MaxGrant = 1000

	maxDescriptionLen = 500
	leaderboardSize   = 50
)

var (
	ErrForbidden       = errors.New("admin access required")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPoints   = errors.New("points must be between 1 and 1000")
	ErrInvalidRank     = errors.New("rank must be between 1 and 3")
	ErrInvalidPeriod   = errors.New("month must be between 1 and 12 and year must be positive")
	ErrDescriptionSize = errors.New("description is too long")
)

type Ledger struct {
	db     *sql.DB
	users  *store.UserStore
	points *store.PointStore
}

func NewLedger(db *sql.DB, users *store.UserStore, points *store.PointStore) *Ledger {
	return &Ledger{db: db, users: users, points: points}
}

// Grant journals a point award from the calling admin and credits the user's
// balance in the same transaction.
func (l *Ledger) Grant(ctx context.Context, userID int64, pts int, description string) (*model.PointTransaction, error) {
	if !auth.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if pts < MinGrant || pts > MaxGrant {
		return nil, ErrInvalidPoints
	}
	description = strings.TrimSpace(description)
	if len(description) > maxDescriptionLen {
		return nil, ErrDescriptionSize
	}

	var pt *model.PointTransaction
	err := store.RunInTx(ctx, l.db, func(tx *sql.Tx) error {
		ok, err := l.users.WithTx(tx).AddPoints(ctx, userID, pts)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		pt, err = l.points.WithTx(tx).CreateTransaction(ctx, userID, auth.UserID(ctx), pts, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pt, nil
}

// Balance returns a user's current points and grant history. Members may only
// read their own.
func (l *Ledger) Balance(ctx context.Context, userID int64) (*model.PointBalance, error) {
	if !auth.IsSelfOrAdmin(ctx, userID) {
		return nil, ErrForbidden
	}
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	txs, err := l.points.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []model.PointTransaction{}
	}
	return &model.PointBalance{UserID: u.ID, Username: u.Username, Points: u.Points, Transactions: txs}, nil
}

func (l *Ledger) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return l.users.Leaderboard(ctx, leaderboardSize)
}

// SetTopPerformer places userID at rank for the month, replacing whoever
// held it.
func (l *Ledger) SetTopPerformer(ctx context.Context, month, year, rank int, userID int64) (*model.TopPerformer, error) {
	if !auth.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if err := validPeriod(month, year); err != nil {
		return nil, err
	}
	if rank < 1 || rank > 3 {
		return nil, ErrInvalidRank
	}

	var tp *model.TopPerformer
	err := store.RunInTx(ctx, l.db, func(tx *sql.Tx) error {
		u, err := l.users.WithTx(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		tp, err = l.points.WithTx(tx).ReplaceTopPerformer(ctx, month, year, rank, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func (l *Ledger) TopPerformers(ctx context.Context, month, year int) ([]model.TopPerformer, error) {
	if err := validPeriod(month, year); err != nil {
		return nil, err
	}
	return l.points.ListTopPerformers(ctx, month, year)
}

func validPeriod(month, year int) error {
	if month < 1 || month > 12 || year < 1 {
		return ErrInvalidPeriod
	}
	return nil
}
