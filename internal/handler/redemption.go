package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/email"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/push"
	"github.com/dukerupert/teampulse/internal/redemption"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/websocket"
)

const notifyTimeout = 10 * time.Second

// Notifier emails members about reviewed redemptions.
type Notifier interface {
	Configured() bool
	SendRedemptionUpdate(ctx context.Context, n email.RedemptionNotice) error
}

type RedemptionHandler struct {
	workflow    *redemption.Workflow
	rewardStore *store.RewardStore
	userStore   *store.UserStore
	notifier    Notifier
	pusher      Pusher
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewRedemptionHandler(wf *redemption.Workflow, rs *store.RewardStore, us *store.UserStore, notifier Notifier, pusher Pusher, hub *websocket.Hub, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		workflow:    wf,
		rewardStore: rs,
		userStore:   us,
		notifier:    notifier,
		pusher:      pusher,
		hub:         hub,
		logger:      logger,
	}
}

type redeemRequest struct {
	RewardID int64 `json:"rewardId"`
}

func (h *RedemptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RewardID <= 0 {
		writeError(w, http.StatusBadRequest, "rewardId is required")
		return
	}
	h.redeem(w, r, req.RewardID)
}

// RedeemReward handles POST /api/rewards/{id}/redeem.
func (h *RedemptionHandler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward ID")
		return
	}
	h.redeem(w, r, id)
}

func (h *RedemptionHandler) redeem(w http.ResponseWriter, r *http.Request, rewardID int64) {
	userID := auth.UserID(r.Context())
	rd, err := h.workflow.Redeem(r.Context(), userID, rewardID)
	if err != nil {
		h.writeWorkflowError(w, "redeem reward", err)
		return
	}

	h.logger.Info("reward redeemed", "redemption_id", rd.ID, "user_id", userID, "reward_id", rewardID, "points", rd.PointsSpent)
	if h.hub != nil {
		h.hub.SendToUserAndAdmins(rd.UserID, websocket.NewMessage("redemption", "created", rd.ID, map[string]any{"rewardId": rewardID}))
	}
	writeJSON(w, http.StatusCreated, rd)
}

// List returns every redemption for admins and the caller's own otherwise,
// optionally filtered by ?status=.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.RedemptionFilter{Status: r.URL.Query().Get("status")}
	if f.Status != "" && !model.ValidRedemptionStatus(f.Status) {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if !auth.IsAdmin(r.Context()) {
		f.UserID = auth.UserID(r.Context())
	}

	list, err := h.rewardStore.ListRedemptions(r.Context(), f)
	if err != nil {
		writeInternal(w, h.logger, "list redemptions", err)
		return
	}
	if list == nil {
		list = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *RedemptionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid redemption ID")
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rd, changed, err := h.workflow.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeWorkflowError(w, "set redemption status", err)
		return
	}

	if changed {
		h.logger.Info("redemption reviewed", "redemption_id", rd.ID, "status", rd.Status, "by", auth.UserID(r.Context()))
		if h.hub != nil {
			h.hub.SendToUser(rd.UserID, websocket.NewMessage("redemption", rd.Status, rd.ID, nil))
		}
		if rd.Status == model.RedemptionApproved || rd.Status == model.RedemptionRejected {
			h.notifyOwner(r.Context(), rd)
			sendPush(r.Context(), h.pusher, h.logger, rd.UserID, push.Payload{
				Title: "Redemption " + rd.Status,
				Body:  rd.RewardName,
				Tag:   fmt.Sprintf("redemption-%d", rd.ID),
			})
		}
	}
	writeJSON(w, http.StatusOK, rd)
}

func (h *RedemptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid redemption ID")
		return
	}
	rd, err := h.workflow.Cancel(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(w, "cancel redemption", err)
		return
	}

	if h.hub != nil {
		h.hub.SendToUserAndAdmins(rd.UserID, websocket.NewMessage("redemption", "cancelled", rd.ID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RedemptionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid redemption ID")
		return
	}
	act, err := h.workflow.Activate(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(w, "activate redemption", err)
		return
	}

	h.logger.Info("wfh reward activated", "redemption_id", id, "days", act.DaysAdded)
	writeJSON(w, http.StatusOK, act)
}

// notifyOwner emails the redemption owner when email is configured and the
// owner has an address. Failures are logged and do not fail the request.
func (h *RedemptionHandler) notifyOwner(ctx context.Context, rd *model.Redemption) {
	if h.notifier == nil || !h.notifier.Configured() {
		return
	}
	owner, err := h.userStore.GetByID(ctx, rd.UserID)
	if err != nil || owner == nil || owner.Email == "" {
		return
	}

	n := email.RedemptionNotice{
		To:          owner.Email,
		DisplayName: owner.DisplayName,
		RewardName:  rd.RewardName,
		Status:      rd.Status,
	}
	if rd.Status == model.RedemptionRejected {
		n.PointsRefunded = rd.PointsSpent
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := h.notifier.SendRedemptionUpdate(ctx, n); err != nil {
		h.logger.Warn("redemption email", "error", err, "redemption_id", rd.ID)
	}
}

func (h *RedemptionHandler) writeWorkflowError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, redemption.ErrNotFound), errors.Is(err, redemption.ErrRewardNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, redemption.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, redemption.ErrRewardInactive),
		errors.Is(err, redemption.ErrRewardExpired),
		errors.Is(err, redemption.ErrInsufficientPoints),
		errors.Is(err, redemption.ErrOutOfStock),
		errors.Is(err, redemption.ErrInvalidStatus),
		errors.Is(err, redemption.ErrNotWFHReward):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, redemption.ErrTerminal),
		errors.Is(err, redemption.ErrNotPending),
		errors.Is(err, redemption.ErrAlreadyActivated),
		errors.Is(err, redemption.ErrNotApproved):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeInternal(w, h.logger, op, err)
	}
}
