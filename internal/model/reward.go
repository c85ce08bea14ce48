package model

import "time"

// UnlimitedQuantity marks a reward with no stock counter.
const UnlimitedQuantity = -1

type Reward struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PointsCost  int        `json:"pointsCost"`
	Quantity    int        `json:"quantity"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (r *Reward) Unlimited() bool {
	return r.Quantity == UnlimitedQuantity
}

func (r *Reward) InStock() bool {
	return r.Unlimited() || r.Quantity > 0
}

func (r *Reward) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

const (
	RedemptionPending   = "pending"
	RedemptionApproved  = "approved"
	RedemptionRejected  = "rejected"
	RedemptionCompleted = "completed"
)

type Redemption struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	RewardID    int64      `json:"rewardId"`
	RewardName  string     `json:"rewardName,omitempty"`
	PointsSpent int        `json:"pointsSpent"`
	Status      string     `json:"status"`
	IsActivated bool       `json:"isActivated"`
	ActivatedAt *time.Time `json:"activatedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ValidRedemptionStatus(s string) bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionRejected, RedemptionCompleted:
		return true
	}
	return false
}
