package model

import "time"

const (
	ActivityInProgress = "InProgress"
	ActivityDone       = "Done"
	ActivityBlocked    = "Blocked"
)

// DateLayout is the calendar-day format used for activity and WFH dates.
const DateLayout = "2006-01-02"

type Activity struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	TeamID      *int64    `json:"teamId"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Project     string    `json:"project,omitempty"`
	IsWFH       bool      `json:"isWfh"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ValidActivityStatus(s string) bool {
	switch s {
	case ActivityInProgress, ActivityDone, ActivityBlocked:
		return true
	}
	return false
}
