package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func issue(t *testing.T, iss *token.Issuer, sub token.Subject) string {
	t.Helper()
	tok, _, err := iss.Issue(sub)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func mustNotReach(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body["error"]
}

func TestRequireAuthNoToken(t *testing.T) {
	iss := token.NewIssuer(testSecret, time.Hour)
	handler := RequireAuth(iss)(mustNotReach(t))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := errorBody(t, rec); got != "unauthenticated" {
		t.Errorf("error = %q, want %q", got, "unauthenticated")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	iss := token.NewIssuer(testSecret, time.Hour)
	other := token.NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	handler := RequireAuth(iss)(mustNotReach(t))

	for name, value := range map[string]string{
		"garbage":      "invalid-token",
		"wrong secret": issue(t, other, token.Subject{UserID: 1, Role: "admin"}),
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: value})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthCookie(t *testing.T) {
	iss := token.NewIssuer(testSecret, time.Hour)
	tok := issue(t, iss, token.Subject{UserID: 42, Role: "member", AuthType: "tracker", ExternalUsername: "jdoe"})

	var gotAC auth.AuthContext
	handler := RequireAuth(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tok})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != 42 {
		t.Errorf("UserID = %d, want 42", gotAC.UserID)
	}
	if gotAC.AuthType != "tracker" || gotAC.ExternalUsername != "jdoe" {
		t.Errorf("provenance = %q/%q, want tracker/jdoe", gotAC.AuthType, gotAC.ExternalUsername)
	}
}

func TestRequireAuthBearer(t *testing.T) {
	iss := token.NewIssuer(testSecret, time.Hour)
	tok := issue(t, iss, token.Subject{UserID: 7, Role: "admin"})

	reached := false
	handler := RequireAuth(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = auth.IsAdmin(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("expected admin request to reach handler")
	}
}

func TestRequireAuthNonBearerScheme(t *testing.T) {
	iss := token.NewIssuer(testSecret, time.Hour)
	tok := issue(t, iss, token.Subject{UserID: 7, Role: "member"})
	handler := RequireAuth(iss)(mustNotReach(t))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin allowed", "admin", http.StatusOK},
		{"member forbidden", "member", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := auth.WithAuth(httptest.NewRequest("GET", "/", nil).Context(), auth.AuthContext{UserID: 1, Role: tt.role})
			req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
