package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/push"
	"github.com/dukerupert/teampulse/internal/store"
)

// Pusher delivers web push notifications to a user's browsers.
type Pusher interface {
	NotifyUser(ctx context.Context, userID int64, payload push.Payload) (int, error)
}

// sendPush delivers payload outside the request's cancellation. Failures are
// logged only.
func sendPush(ctx context.Context, p Pusher, logger *slog.Logger, userID int64, payload push.Payload) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if _, err := p.NotifyUser(ctx, userID, payload); err != nil {
		logger.Warn("web push", "error", err, "user_id", userID)
	}
}

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"deviceName"`
}

// VAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.service.VAPIDPublicKey()})
}

// Subscribe handles POST /api/push/subscriptions. Re-registering an endpoint
// moves it to the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	userID := auth.UserID(r.Context())
	sub, err := h.pushStore.Upsert(r.Context(), userID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		writeInternal(w, h.logger, "save push subscription", err)
		return
	}
	h.logger.Info("push subscription saved", "id", sub.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/push/subscriptions.
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.pushStore.ListByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeInternal(w, h.logger, "list push subscriptions", err)
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}. Another user's
// subscription reads as not found.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription ID")
		return
	}

	sub, err := h.pushStore.GetByID(r.Context(), id)
	if err != nil {
		writeInternal(w, h.logger, "get push subscription", err)
		return
	}
	if sub == nil || sub.UserID != auth.UserID(r.Context()) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.pushStore.Delete(r.Context(), id); err != nil {
		writeInternal(w, h.logger, "delete push subscription", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
