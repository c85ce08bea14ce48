package model

import "time"

const (
	TeamRoleMember = "member"
	TeamRoleAdmin  = "team_admin"
)

// DefaultWFHLimit applies when a team record is missing.
const DefaultWFHLimit = 3

type Team struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	WFHLimitPerMonth int          `json:"wfhLimitPerMonth"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	Members          []TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"teamId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role"`
	IsLead    bool      `json:"isLead"`
	CreatedAt time.Time `json:"createdAt"`
}

// CanManage reports whether the member may administer team settings and reports.
func (m *TeamMember) CanManage() bool {
	return m.Role == TeamRoleAdmin || m.IsLead
}
