package model

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

const (
	AuthTypeLocal   = "local"
	AuthTypeTracker = "tracker"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	AuthType     string    `json:"authType"`
	PasswordHash string    `json:"-"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
