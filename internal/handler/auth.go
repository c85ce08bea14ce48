package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/teampulse/internal/activity"
	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/token"
	"github.com/dukerupert/teampulse/internal/tracker"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
)

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9._@-]{3,64}$`)

// CredentialValidator checks a username and password against the external
// issue tracker.
type CredentialValidator interface {
	Configured() bool
	Validate(ctx context.Context, username, password string) (*tracker.Profile, error)
}

type AuthHandler struct {
	userStore    *store.UserStore
	validator    CredentialValidator
	issuer       *token.Issuer
	isAdminName  func(string) bool
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	validator CredentialValidator,
	issuer *token.Issuer,
	isAdminName func(string) bool,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		validator:    validator,
		issuer:       issuer,
		isAdminName:  isAdminName,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type credentialsRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Register creates a local member account. Local accounts only exist when no
// issue tracker is configured, so a tracker username cannot be claimed ahead
// of its owner. Names listed as admins are reserved; admins are provisioned
// with `teampulse create-admin` or by signing in through the tracker.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.validator != nil && h.validator.Configured() {
		writeError(w, http.StatusForbidden, "registration is disabled, sign in with your issue tracker account")
		return
	}

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = strings.TrimSpace(req.Email)

	var fields []activity.FieldError
	if !usernameRegexp.MatchString(req.Username) {
		fields = append(fields, activity.FieldError{Field: "username", Message: "must be 3-64 letters, digits or . _ @ -"})
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		fields = append(fields, activity.FieldError{Field: "password", Message: "must be 8-72 bytes"})
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		fields = append(fields, activity.FieldError{Field: "email", Message: "must be an email address"})
	}
	if len(fields) > 0 {
		writeValidation(w, fields...)
		return
	}

	if h.isAdminName(req.Username) {
		writeError(w, http.StatusForbidden, "username is reserved")
		return
	}

	ctx := r.Context()
	existing, err := h.userStore.GetByUsername(ctx, req.Username)
	if err != nil {
		writeInternal(w, h.logger, "register lookup", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "username is already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeInternal(w, h.logger, "hash password", err)
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	user, err := h.userStore.Create(ctx, store.NewUser{
		Username:     req.Username,
		DisplayName:  displayName,
		Email:        req.Email,
		Role:         model.RoleMember,
		AuthType:     model.AuthTypeLocal,
		PasswordHash: string(hash),
	})
	if err != nil {
		writeInternal(w, h.logger, "create user", err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	h.startSession(w, http.StatusCreated, user, "")
}

// Login checks a local password when the account has one; every other
// username is validated against the tracker and provisioned on success.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.userStore.GetByUsername(ctx, req.Username)
	if err != nil {
		writeInternal(w, h.logger, "login lookup", err)
		return
	}

	if user != nil && user.AuthType == model.AuthTypeLocal && user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.startSession(w, http.StatusOK, user, "")
		return
	}

	if h.validator == nil || !h.validator.Configured() {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	profile, err := h.validator.Validate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, tracker.ErrInvalidCredentials), errors.Is(err, tracker.ErrNotConfigured):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	case err != nil:
		h.logger.Error("tracker validate", "error", err)
		writeError(w, http.StatusBadGateway, "credential service unavailable")
		return
	}

	role := model.RoleMember
	if h.isAdminName(req.Username) {
		role = model.RoleAdmin
	}
	user, err = h.userStore.UpsertTracker(ctx, req.Username, profile.DisplayName, profile.Email, role)
	if err != nil {
		writeInternal(w, h.logger, "provision tracker user", err)
		return
	}

	h.startSession(w, http.StatusOK, user, profile.Username)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeInternal(w, h.logger, "get current user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user *model.User, externalUsername string) {
	tok, expiresAt, err := h.issuer.Issue(token.Subject{
		UserID:           user.ID,
		Role:             user.Role,
		AuthType:         user.AuthType,
		ExternalUsername: externalUsername,
	})
	if err != nil {
		writeInternal(w, h.logger, "issue token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    tok,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: tok, ExpiresAt: expiresAt, User: user})
}
