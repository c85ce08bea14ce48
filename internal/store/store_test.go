package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/teampulse/internal/database"
	"github.com/dukerupert/teampulse/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), NewUser{Username: username, AuthType: model.AuthTypeLocal})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
