package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:           1,
		Role:             "admin",
		AuthType:         "tracker",
		ExternalUsername: "alice",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.UserID != 1 {
		t.Errorf("UserID = %d, want 1", got.UserID)
	}
	if got.Role != "admin" {
		t.Errorf("Role = %q, want %q", got.Role, "admin")
	}
	if got.AuthType != "tracker" {
		t.Errorf("AuthType = %q, want %q", got.AuthType, "tracker")
	}
	if got.ExternalUsername != "alice" {
		t.Errorf("ExternalUsername = %q, want %q", got.ExternalUsername, "alice")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 7})
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Role: "admin"})
	if !IsAdmin(ctx) {
		t.Error("expected IsAdmin = true for admin role")
	}
}

func TestIsAdminFalse(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Role: "member"})
	if IsAdmin(ctx) {
		t.Error("expected IsAdmin = false for member role")
	}
}

func TestIsAdminMissing(t *testing.T) {
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}

func TestIsSelfOrAdmin(t *testing.T) {
	member := WithAuth(context.Background(), AuthContext{UserID: 3, Role: "member"})
	if !IsSelfOrAdmin(member, 3) {
		t.Error("expected self access")
	}
	if IsSelfOrAdmin(member, 4) {
		t.Error("expected no access to another user")
	}

	admin := WithAuth(context.Background(), AuthContext{UserID: 1, Role: "admin"})
	if !IsSelfOrAdmin(admin, 4) {
		t.Error("expected admin access")
	}
	if IsSelfOrAdmin(context.Background(), 0) {
		t.Error("expected no access without identity")
	}
}
