package model

import "time"

// WFHRecord marks one remote-work day for a user within a team.
type WFHRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	TeamID    int64     `json:"teamId"`
	Date      string    `json:"date"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserWFHQuota is bonus remote-work quota granted by activated rewards.
type UserWFHQuota struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	TotalQuota int       `json:"totalQuota"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type WFHUsage struct {
	Used       int `json:"used"`
	Limit      int `json:"limit"`
	Remaining  int `json:"remaining"`
	BonusQuota int `json:"bonusQuota"`
}
