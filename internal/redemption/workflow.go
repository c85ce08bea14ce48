// Package redemption runs the reward redemption lifecycle: redeem, admin
// review, owner cancellation and activation of remote-work rewards.
//
// Each step that moves points, stock or quota runs in a single transaction,
// and debits are conditional updates, so concurrent requests cannot overspend
// a balance or oversell a finite reward.
package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

var (
	ErrNotFound       = errors.New("redemption not found")
	ErrRewardNotFound = errors.New("reward not found")
	ErrForbidden      = errors.New("not allowed to modify this redemption")

	ErrRewardInactive     = errors.New("reward is not active")
	ErrRewardExpired      = errors.New("reward has expired")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrOutOfStock         = errors.New("reward is out of stock")

	ErrInvalidStatus    = errors.New("invalid redemption status")
	ErrTerminal         = errors.New("redemption is already closed")
	ErrNotPending       = errors.New("only pending redemptions can be cancelled")
	ErrNotWFHReward     = errors.New("only WFH rewards can be activated")
	ErrAlreadyActivated = errors.New("redemption already activated")
	ErrRewardInUse      = errors.New("reward has pending redemptions")
	ErrNotApproved      = errors.New("redemption must be approved before activation")
)

type Workflow struct {
	db      *sql.DB
	users   *store.UserStore
	rewards *store.RewardStore
	quotas  *store.WFHStore
	now     func() time.Time
}

func NewWorkflow(db *sql.DB, users *store.UserStore, rewards *store.RewardStore, quotas *store.WFHStore) *Workflow {
	return &Workflow{db: db, users: users, rewards: rewards, quotas: quotas, now: time.Now}
}

// Redeem debits the reward's cost from userID, takes one unit of stock and
// records a pending redemption.
func (w *Workflow) Redeem(ctx context.Context, userID, rewardID int64) (*model.Redemption, error) {
	var created *model.Redemption
	err := store.RunInTx(ctx, w.db, func(tx *sql.Tx) error {
		rewards := w.rewards.WithTx(tx)

		reward, err := rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ErrRewardNotFound
		}
		if !reward.IsActive {
			return ErrRewardInactive
		}
		if reward.Expired(w.now()) {
			return ErrRewardExpired
		}

		ok, err := w.users.WithTx(tx).DebitPoints(ctx, userID, reward.PointsCost)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientPoints
		}

		ok, err = rewards.TakeStock(ctx, rewardID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOutOfStock
		}

		created, err = rewards.CreateRedemption(ctx, userID, rewardID, reward.PointsCost)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetStatus is the admin review step. Moving a pending or approved
// redemption to rejected refunds the points that were spent on it. Setting
// the current status again, or rejecting a closed redemption, changes
// nothing; any other move out of rejected or completed is refused. changed
// reports whether the stored status moved.
func (w *Workflow) SetStatus(ctx context.Context, id int64, status string) (r *model.Redemption, changed bool, err error) {
	if !auth.IsAdmin(ctx) {
		return nil, false, ErrForbidden
	}
	if !model.ValidRedemptionStatus(status) {
		return nil, false, ErrInvalidStatus
	}

	err = store.RunInTx(ctx, w.db, func(tx *sql.Tx) error {
		rewards := w.rewards.WithTx(tx)

		current, err := rewards.GetRedemption(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}

		if current.Status == status || (closed(current.Status) && status == model.RedemptionRejected) {
			r = current
			return nil
		}
		if closed(current.Status) {
			return fmt.Errorf("%w: %s", ErrTerminal, current.Status)
		}

		if status == model.RedemptionRejected {
			if _, err := w.users.WithTx(tx).AddPoints(ctx, current.UserID, current.PointsSpent); err != nil {
				return err
			}
		}
		if err := rewards.UpdateRedemptionStatus(ctx, id, status); err != nil {
			return err
		}
		changed = true
		r, err = rewards.GetRedemption(ctx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return r, changed, nil
}

// Cancel withdraws a pending redemption: the points are refunded, a unit of
// finite stock is returned and the redemption is deleted.
func (w *Workflow) Cancel(ctx context.Context, id int64) (*model.Redemption, error) {
	var cancelled *model.Redemption
	err := store.RunInTx(ctx, w.db, func(tx *sql.Tx) error {
		rewards := w.rewards.WithTx(tx)

		r, err := rewards.GetRedemption(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if !auth.IsSelfOrAdmin(ctx, r.UserID) {
			return ErrForbidden
		}
		if r.Status != model.RedemptionPending {
			return ErrNotPending
		}

		if _, err := w.users.WithTx(tx).AddPoints(ctx, r.UserID, r.PointsSpent); err != nil {
			return err
		}
		if err := rewards.RestoreStock(ctx, r.RewardID); err != nil {
			return err
		}
		if err := rewards.DeleteRedemption(ctx, id); err != nil {
			return err
		}
		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// DeleteReward removes a reward that was never redeemed. A reward with
// redemption history is deactivated instead so the history and its refunds
// stay intact, and one with pending redemptions is refused until they are
// reviewed or cancelled. retired reports whether the reward was kept.
func (w *Workflow) DeleteReward(ctx context.Context, rewardID int64) (retired bool, err error) {
	if !auth.IsAdmin(ctx) {
		return false, ErrForbidden
	}

	err = store.RunInTx(ctx, w.db, func(tx *sql.Tx) error {
		rewards := w.rewards.WithTx(tx)

		reward, err := rewards.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ErrRewardNotFound
		}

		total, pending, err := rewards.CountRedemptions(ctx, rewardID)
		if err != nil {
			return err
		}
		switch {
		case pending > 0:
			return ErrRewardInUse
		case total > 0:
			retired = true
			return rewards.Deactivate(ctx, rewardID)
		default:
			return rewards.Delete(ctx, rewardID)
		}
	})
	if err != nil {
		return false, err
	}
	return retired, nil
}

// Activation is the outcome of activating a remote-work reward.
type Activation struct {
	Redemption *model.Redemption   `json:"redemption"`
	Quota      *model.UserWFHQuota `json:"quota"`
	DaysAdded  int                 `json:"daysAdded"`
}

// Activate converts the owner's approved WFH reward into bonus remote-work
// days for the current calendar month and completes the redemption.
func (w *Workflow) Activate(ctx context.Context, id int64) (*Activation, error) {
	var out *Activation
	err := store.RunInTx(ctx, w.db, func(tx *sql.Tx) error {
		rewards := w.rewards.WithTx(tx)

		r, err := rewards.GetRedemption(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrNotFound
		}
		if r.UserID != auth.UserID(ctx) {
			return ErrForbidden
		}
		if !IsWFHReward(r.RewardName) {
			return ErrNotWFHReward
		}
		if r.IsActivated {
			return ErrAlreadyActivated
		}
		if r.Status != model.RedemptionApproved {
			return ErrNotApproved
		}

		now := w.now().UTC()
		days := ParseBonusDays(r.RewardName)
		quota, err := w.quotas.WithTx(tx).AddQuota(ctx, r.UserID, int(now.Month()), now.Year(), days)
		if err != nil {
			return err
		}

		ok, err := rewards.MarkActivated(ctx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyActivated
		}

		r, err = rewards.GetRedemption(ctx, id)
		if err != nil {
			return err
		}
		out = &Activation{Redemption: r, Quota: quota, DaysAdded: days}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func closed(status string) bool {
	return status == model.RedemptionRejected || status == model.RedemptionCompleted
}
