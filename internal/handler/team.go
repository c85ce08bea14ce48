package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/teampulse/internal/activity"
	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/wfh"
)

const (
	maxTeamNameLen = 100
	maxWFHLimit    = 31
)

type TeamHandler struct {
	teamStore    *store.TeamStore
	userStore    *store.UserStore
	accountant   *wfh.Accountant
	defaultLimit int
	now          func() time.Time
	logger       *slog.Logger
}

func NewTeamHandler(ts *store.TeamStore, us *store.UserStore, accountant *wfh.Accountant, defaultLimit int, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		teamStore:    ts,
		userStore:    us,
		accountant:   accountant,
		defaultLimit: defaultLimit,
		now:          time.Now,
		logger:       logger,
	}
}

type teamRequest struct {
	Name             string `json:"name"`
	WFHLimitPerMonth *int   `json:"wfhLimitPerMonth"`
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	limit := h.defaultLimit
	if req.WFHLimitPerMonth != nil {
		limit = *req.WFHLimitPerMonth
	}

	var fields []activity.FieldError
	if req.Name == "" || len(req.Name) > maxTeamNameLen {
		fields = append(fields, activity.FieldError{Field: "name", Message: "is required and must be at most 100 characters"})
	}
	if limit < 0 || limit > maxWFHLimit {
		fields = append(fields, activity.FieldError{Field: "wfhLimitPerMonth", Message: "must be between 0 and 31"})
	}
	if len(fields) > 0 {
		writeValidation(w, fields...)
		return
	}

	exists, err := h.teamStore.NameExists(r.Context(), req.Name)
	if err != nil {
		writeInternal(w, h.logger, "check team name", err)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a team with that name already exists")
		return
	}

	team, err := h.teamStore.Create(r.Context(), req.Name, limit)
	if err != nil {
		writeInternal(w, h.logger, "create team", err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamStore.List(r.Context())
	if err != nil {
		writeInternal(w, h.logger, "list teams", err)
		return
	}
	if teams == nil {
		teams = []model.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	members, err := h.teamStore.ListMembers(r.Context(), team.ID)
	if err != nil {
		writeInternal(w, h.logger, "list team members", err)
		return
	}
	if members == nil {
		members = []model.TeamMember{}
	}
	team.Members = members
	writeJSON(w, http.StatusOK, team)
}

type memberRequest struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	IsLead bool   `json:"isLead"`
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = model.TeamRoleMember
	}
	if req.Role != model.TeamRoleMember && req.Role != model.TeamRoleAdmin {
		writeValidation(w, activity.FieldError{Field: "role", Message: "must be member or team_admin"})
		return
	}

	ctx := r.Context()
	user, err := h.userStore.GetByID(ctx, req.UserID)
	if err != nil {
		writeInternal(w, h.logger, "get user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	existing, err := h.teamStore.GetMember(ctx, team.ID, user.ID)
	if err != nil {
		writeInternal(w, h.logger, "get team member", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "user is already a member of this team")
		return
	}

	member, err := h.teamStore.AddMember(ctx, team.ID, user.ID, req.Role, req.IsLead)
	if err != nil {
		writeInternal(w, h.logger, "add team member", err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	userID, err := parsePathInt(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	ctx := r.Context()
	existing, err := h.teamStore.GetMember(ctx, team.ID, userID)
	if err != nil {
		writeInternal(w, h.logger, "get team member", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if err := h.teamStore.RemoveMember(ctx, team.ID, userID); err != nil {
		writeInternal(w, h.logger, "remove team member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WFHUsage reports the caller's remote days for the team this month.
func (h *TeamHandler) WFHUsage(w http.ResponseWriter, r *http.Request) {
	teamID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team ID")
		return
	}
	usage, err := h.accountant.Usage(r.Context(), auth.UserID(r.Context()), teamID, h.now())
	if err != nil {
		writeInternal(w, h.logger, "wfh usage", err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

type wfhLimitRequest struct {
	WFHLimitPerMonth *int `json:"wfhLimitPerMonth"`
}

// UpdateWFHLimit sets the team's monthly cap. Admins and the team's own
// managers may change it.
func (h *TeamHandler) UpdateWFHLimit(w http.ResponseWriter, r *http.Request) {
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	if !h.canManage(w, r, team.ID) {
		return
	}

	var req wfhLimitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.WFHLimitPerMonth == nil || *req.WFHLimitPerMonth < 0 || *req.WFHLimitPerMonth > maxWFHLimit {
		writeValidation(w, activity.FieldError{Field: "wfhLimitPerMonth", Message: "must be between 0 and 31"})
		return
	}

	updated, err := h.teamStore.UpdateWFHLimit(r.Context(), team.ID, *req.WFHLimitPerMonth)
	if err != nil {
		writeInternal(w, h.logger, "update wfh limit", err)
		return
	}
	h.logger.Info("wfh limit changed", "team_id", team.ID, "from", team.WFHLimitPerMonth, "to", updated.WFHLimitPerMonth, "by", auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, updated)
}

func (h *TeamHandler) loadTeam(w http.ResponseWriter, r *http.Request) (*model.Team, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team ID")
		return nil, false
	}
	team, err := h.teamStore.GetByID(r.Context(), id)
	if err != nil {
		writeInternal(w, h.logger, "get team", err)
		return nil, false
	}
	if team == nil {
		writeError(w, http.StatusNotFound, "team not found")
		return nil, false
	}
	return team, true
}

func (h *TeamHandler) canManage(w http.ResponseWriter, r *http.Request, teamID int64) bool {
	if auth.IsAdmin(r.Context()) {
		return true
	}
	m, err := h.teamStore.GetMember(r.Context(), teamID, auth.UserID(r.Context()))
	if err != nil {
		writeInternal(w, h.logger, "get team member", err)
		return false
	}
	if m == nil || !m.CanManage() {
		writeError(w, http.StatusForbidden, "team admin access required")
		return false
	}
	return true
}
