package main

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/teampulse/internal/database"
	"github.com/dukerupert/teampulse/internal/model"
)

func TestCreateAdmin(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	user, err := createAdmin(ctx, db, "ops", strings.NewReader("s3cret-pass\n"))
	if err != nil {
		t.Fatalf("createAdmin: %v", err)
	}
	if user.Role != model.RoleAdmin || user.AuthType != model.AuthTypeLocal {
		t.Errorf("user = %+v, want local admin", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	if _, err := createAdmin(ctx, db, "ops", strings.NewReader("another-pass\n")); err == nil {
		t.Error("expected error for existing username")
	}
	if _, err := createAdmin(ctx, db, "short", strings.NewReader("abc\n")); err == nil {
		t.Error("expected error for short password")
	}
	if _, err := createAdmin(ctx, db, "  ", strings.NewReader("s3cret-pass\n")); err == nil {
		t.Error("expected error for empty username")
	}
}
