package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/teampulse/internal/activity"
	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/websocket"
	"github.com/dukerupert/teampulse/internal/wfh"
)

type ActivityHandler struct {
	service *activity.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewActivityHandler(svc *activity.Service, hub *websocket.Hub, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: svc, hub: hub, logger: logger}
}

func (h *ActivityHandler) notify(userID int64, action string, id int64) {
	if h.hub != nil {
		h.hub.SendToUser(userID, websocket.NewMessage("activity", action, id, nil))
	}
}

type createActivityRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
	IsWFH       bool   `json:"isWfh"`
	TeamID      *int64 `json:"teamId"`
	Project     string `json:"project"`
}

// updateActivityRequest keeps teamId raw so an explicit null can clear it.
type updateActivityRequest struct {
	Date        *string         `json:"date"`
	Time        *string         `json:"time"`
	Subject     *string         `json:"subject"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	IsWFH       *bool           `json:"isWfh"`
	TeamID      json.RawMessage `json:"teamId"`
	Project     *string         `json:"project"`
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := auth.UserID(r.Context())
	a, err := h.service.Create(r.Context(), userID, activity.CreateInput{
		Date:        req.Date,
		Time:        req.Time,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		IsWFH:       req.IsWFH,
		TeamID:      req.TeamID,
		Project:     req.Project,
	})
	if err != nil {
		h.writeServiceError(w, "create activity", err)
		return
	}

	h.notify(userID, "created", a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for name, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, v); err != nil {
			writeValidation(w, activity.FieldError{Field: name, Message: "must be a date in YYYY-MM-DD format"})
			return
		}
	}

	activities, err := h.service.List(r.Context(), from, to)
	if err != nil {
		writeInternal(w, h.logger, "list activities", err)
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity ID")
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get activity", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity ID")
		return
	}

	var req updateActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := activity.UpdateInput{
		Date:        req.Date,
		Time:        req.Time,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		IsWFH:       req.IsWFH,
		Project:     req.Project,
	}
	if len(req.TeamID) > 0 {
		if string(req.TeamID) == "null" {
			in.ClearTeam = true
		} else {
			var teamID int64
			if err := json.Unmarshal(req.TeamID, &teamID); err != nil {
				writeValidation(w, activity.FieldError{Field: "teamId", Message: "must be an integer or null"})
				return
			}
			in.TeamID = &teamID
		}
	}

	a, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, "update activity", err)
		return
	}

	h.notify(a.UserID, "updated", a.ID)
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity ID")
		return
	}
	a, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "delete activity", err)
		return
	}

	h.notify(a.UserID, "deleted", a.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *activity.ValidationError
	var limit *wfh.LimitExceededError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Fields...)
	case errors.As(err, &limit):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":    limit.Error(),
			"wfhUsed":  limit.Used,
			"wfhLimit": limit.Limit,
		})
	case errors.Is(err, activity.ErrNotFound):
		writeError(w, http.StatusNotFound, "activity not found")
	case errors.Is(err, activity.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeInternal(w, h.logger, op, err)
	}
}
