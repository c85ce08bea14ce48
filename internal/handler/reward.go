package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/teampulse/internal/activity"
	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/redemption"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/websocket"
)

const maxRewardNameLen = 200

type RewardHandler struct {
	rewardStore *store.RewardStore
	workflow    *redemption.Workflow
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, wf *redemption.Workflow, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewardStore: rs, workflow: wf, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rewardRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	PointsCost  *int       `json:"pointsCost"`
	Quantity    *int       `json:"quantity"`
	IsActive    *bool      `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// apply overlays the request on in and validates the result.
func (req rewardRequest) apply(in store.RewardInput) (store.RewardInput, []activity.FieldError) {
	if req.Name != nil {
		in.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		in.Description = strings.TrimSpace(*req.Description)
	}
	if req.PointsCost != nil {
		in.PointsCost = *req.PointsCost
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		in.ExpiresAt = req.ExpiresAt
	}

	var fields []activity.FieldError
	if in.Name == "" || len(in.Name) > maxRewardNameLen {
		fields = append(fields, activity.FieldError{Field: "name", Message: "is required and must be at most 200 characters"})
	}
	if in.PointsCost < 1 {
		fields = append(fields, activity.FieldError{Field: "pointsCost", Message: "must be at least 1"})
	}
	if in.Quantity < model.UnlimitedQuantity {
		fields = append(fields, activity.FieldError{Field: "quantity", Message: "must be -1 (unlimited) or a stock count"})
	}
	return in, fields
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, fields := req.apply(store.RewardInput{Quantity: model.UnlimitedQuantity, IsActive: true})
	if len(fields) > 0 {
		writeValidation(w, fields...)
		return
	}

	reward, err := h.rewardStore.Create(r.Context(), in)
	if err != nil {
		writeInternal(w, h.logger, "create reward", err)
		return
	}

	h.broadcast(websocket.NewMessage("reward", "created", reward.ID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

// List shows admins every reward; members see active rewards that are in
// stock.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	var rewards []model.Reward
	var err error
	if auth.IsAdmin(r.Context()) {
		rewards, err = h.rewardStore.List(r.Context())
	} else {
		rewards, err = h.rewardStore.ListAvailable(r.Context())
	}
	if err != nil {
		writeInternal(w, h.logger, "list rewards", err)
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	reward, ok := h.loadReward(w, r)
	if !ok {
		return
	}
	if !auth.IsAdmin(r.Context()) && !(reward.IsActive && reward.InStock()) {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadReward(w, r)
	if !ok {
		return
	}

	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, fields := req.apply(store.RewardInput{
		Name:        existing.Name,
		Description: existing.Description,
		PointsCost:  existing.PointsCost,
		Quantity:    existing.Quantity,
		IsActive:    existing.IsActive,
		ExpiresAt:   existing.ExpiresAt,
	})
	if len(fields) > 0 {
		writeValidation(w, fields...)
		return
	}

	reward, err := h.rewardStore.Update(r.Context(), existing.ID, in)
	if err != nil {
		writeInternal(w, h.logger, "update reward", err)
		return
	}

	h.broadcast(websocket.NewMessage("reward", "updated", reward.ID, nil))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward ID")
		return
	}

	retired, err := h.workflow.DeleteReward(r.Context(), id)
	switch {
	case errors.Is(err, redemption.ErrRewardNotFound):
		writeError(w, http.StatusNotFound, "reward not found")
		return
	case errors.Is(err, redemption.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, redemption.ErrRewardInUse):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeInternal(w, h.logger, "delete reward", err)
		return
	}

	if retired {
		h.logger.Info("reward retired", "reward_id", id)
		h.broadcast(websocket.NewMessage("reward", "updated", id, map[string]any{"isActive": false}))
	} else {
		h.broadcast(websocket.NewMessage("reward", "deleted", id, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) loadReward(w http.ResponseWriter, r *http.Request) (*model.Reward, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward ID")
		return nil, false
	}
	reward, err := h.rewardStore.GetByID(r.Context(), id)
	if err != nil {
		writeInternal(w, h.logger, "get reward", err)
		return nil, false
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return nil, false
	}
	return reward, true
}
