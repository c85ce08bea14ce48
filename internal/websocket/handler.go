package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/teampulse/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and streams the caller's
// notifications until the connection closes. originPatterns restricts
// cross-origin upgrades; nil allows only same-origin.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			slog.Warn("websocket accept", "error", err, "user_id", userID)
			return
		}

		NewClient(hub, conn, userID, auth.IsAdmin(r.Context())).Run(r.Context())
	}
}
