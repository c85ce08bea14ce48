package model

import "time"

// PointTransaction is an append-only record of an admin point grant.
type PointTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	AdminID     int64     `json:"adminId"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PointBalance struct {
	UserID       int64              `json:"userId"`
	Username     string             `json:"username"`
	Points       int                `json:"points"`
	Transactions []PointTransaction `json:"transactions"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Points      int    `json:"points"`
}

type TopPerformer struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Rank        int       `json:"rank"`
	CreatedAt   time.Time `json:"createdAt"`
}
