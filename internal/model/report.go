package model

type MemberReport struct {
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Activities int    `json:"activities"`
	Done       int    `json:"done"`
	InProgress int    `json:"inProgress"`
	Blocked    int    `json:"blocked"`
	WFHDays    int    `json:"wfhDays"`
}

type TeamReport struct {
	TeamID   int64          `json:"teamId"`
	TeamName string         `json:"teamName"`
	Month    int            `json:"month"`
	Year     int            `json:"year"`
	WFHLimit int            `json:"wfhLimit"`
	Members  []MemberReport `json:"members"`
}

type TeamSummary struct {
	TeamID     int64  `json:"teamId"`
	TeamName   string `json:"teamName"`
	Members    int    `json:"members"`
	Activities int    `json:"activities"`
	Done       int    `json:"done"`
	Blocked    int    `json:"blocked"`
	WFHDays    int    `json:"wfhDays"`
}

type SystemReport struct {
	Month      int           `json:"month"`
	Year       int           `json:"year"`
	Users      int           `json:"users"`
	Activities int           `json:"activities"`
	WFHDays    int           `json:"wfhDays"`
	Teams      []TeamSummary `json:"teams"`
}
