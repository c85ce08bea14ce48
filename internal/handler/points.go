package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/points"
	"github.com/dukerupert/teampulse/internal/push"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/websocket"
)

type PointsHandler struct {
	ledger    *points.Ledger
	userStore *store.UserStore
	wfhStore  *store.WFHStore
	pusher    Pusher
	hub       *websocket.Hub
	now       func() time.Time
	logger    *slog.Logger
}

func NewPointsHandler(ledger *points.Ledger, us *store.UserStore, ws *store.WFHStore, pusher Pusher, hub *websocket.Hub, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{ledger: ledger, userStore: us, wfhStore: ws, pusher: pusher, hub: hub, now: time.Now, logger: logger}
}

type grantRequest struct {
	Points      int    `json:"points"`
	Description string `json:"description"`
}

func (h *PointsHandler) Grant(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	var req grantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pt, err := h.ledger.Grant(r.Context(), userID, req.Points, req.Description)
	if err != nil {
		h.writeLedgerError(w, "grant points", err)
		return
	}

	h.logger.Info("points granted", "user_id", userID, "points", pt.Points, "by", pt.AdminID)
	if h.hub != nil {
		h.hub.SendToUser(userID, websocket.NewMessage("points", "granted", pt.ID, map[string]any{"points": pt.Points}))
	}
	sendPush(r.Context(), h.pusher, h.logger, userID, push.Payload{
		Title: fmt.Sprintf("You received %d points", pt.Points),
		Body:  pt.Description,
		Tag:   "points",
	})
	writeJSON(w, http.StatusCreated, pt)
}

func (h *PointsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	bal, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		h.writeLedgerError(w, "get point balance", err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (h *PointsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Leaderboard(r.Context())
	if err != nil {
		writeInternal(w, h.logger, "leaderboard", err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type topPerformerRequest struct {
	Month  int   `json:"month"`
	Year   int   `json:"year"`
	Rank   int   `json:"rank"`
	UserID int64 `json:"userId"`
}

func (h *PointsHandler) SetTopPerformer(w http.ResponseWriter, r *http.Request) {
	var req topPerformerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tp, err := h.ledger.SetTopPerformer(r.Context(), req.Month, req.Year, req.Rank, req.UserID)
	if err != nil {
		h.writeLedgerError(w, "set top performer", err)
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("top_performer", "updated", tp.ID, nil))
	}
	writeJSON(w, http.StatusOK, tp)
}

func (h *PointsHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	month, year, ok := monthParams(r, h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month or year")
		return
	}
	list, err := h.ledger.TopPerformers(r.Context(), month, year)
	if err != nil {
		h.writeLedgerError(w, "list top performers", err)
		return
	}
	if list == nil {
		list = []model.TopPerformer{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PointsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List(r.Context())
	if err != nil {
		writeInternal(w, h.logger, "list users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type wfhQuotaResponse struct {
	Month      int `json:"month"`
	Year       int `json:"year"`
	TotalQuota int `json:"totalQuota"`
}

// MyWFHQuota returns the caller's bonus remote days for the current month.
func (h *PointsHandler) MyWFHQuota(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	resp := wfhQuotaResponse{Month: int(now.Month()), Year: now.Year()}
	q, err := h.wfhStore.GetQuota(r.Context(), auth.UserID(r.Context()), resp.Month, resp.Year)
	if err != nil {
		writeInternal(w, h.logger, "get wfh quota", err)
		return
	}
	if q != nil {
		resp.TotalQuota = q.TotalQuota
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PointsHandler) writeLedgerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, points.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, points.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, points.ErrInvalidPoints),
		errors.Is(err, points.ErrInvalidRank),
		errors.Is(err, points.ErrInvalidPeriod),
		errors.Is(err, points.ErrDescriptionSize):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternal(w, h.logger, op, err)
	}
}
