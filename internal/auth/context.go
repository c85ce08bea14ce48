package auth

import "context"

type contextKey struct{}

// AuthContext is the verified identity of the caller.
type AuthContext struct {
	UserID           int64
	Role             string
	AuthType         string
	ExternalUsername string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == "admin"
}

// IsSelfOrAdmin reports whether the caller is userID or an admin.
func IsSelfOrAdmin(ctx context.Context, userID int64) bool {
	return IsAdmin(ctx) || (userID != 0 && UserID(ctx) == userID)
}

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "teampulse_session"
