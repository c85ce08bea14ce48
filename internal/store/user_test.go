package store

import (
	"context"
	"testing"

	"github.com/dukerupert/teampulse/internal/model"
)

func TestUserCreate(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	u, err := us.Create(ctx, NewUser{Username: "alice", DisplayName: "Alice", AuthType: model.AuthTypeLocal, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.Role != model.RoleMember {
		t.Errorf("role = %q, want %q", u.Role, model.RoleMember)
	}
	if u.PasswordHash != "hash" {
		t.Errorf("password hash = %q, want %q", u.PasswordHash, "hash")
	}
	if u.Points != 0 {
		t.Errorf("points = %d, want 0", u.Points)
	}

	if _, err := us.Create(ctx, NewUser{Username: "alice", AuthType: model.AuthTypeLocal}); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestUserGetNotFound(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	u, err := us.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil, got %+v", u)
	}

	u, err = us.GetByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get user by username: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}

func TestUpsertTrackerNeverDemotes(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	u, err := us.UpsertTracker(ctx, "bob", "Bob", "bob@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.AuthType != model.AuthTypeTracker || u.Role != model.RoleMember {
		t.Errorf("user = %+v, want tracker member", u)
	}

	u, err = us.UpsertTracker(ctx, "bob", "Robert", "bob@example.com", model.RoleAdmin)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin after promotion", u.Role)
	}
	if u.DisplayName != "Robert" {
		t.Errorf("display name = %q, want Robert", u.DisplayName)
	}

	u, err = us.UpsertTracker(ctx, "bob", "Robert", "bob@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin to stick", u.Role)
	}
}

func TestDebitPointsConditional(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()
	u := createUser(t, db, "carol")

	ok, err := us.AddPoints(ctx, u.ID, 50)
	if err != nil || !ok {
		t.Fatalf("add points = %v, %v", ok, err)
	}

	ok, err = us.DebitPoints(ctx, u.ID, 80)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if ok {
		t.Error("expected debit beyond balance to fail")
	}

	ok, err = us.DebitPoints(ctx, u.ID, 50)
	if err != nil || !ok {
		t.Fatalf("debit exact balance = %v, %v", ok, err)
	}

	got, _ := us.GetByID(ctx, u.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}

	ok, err = us.AddPoints(ctx, 999, 10)
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if ok {
		t.Error("expected AddPoints on missing user to report false")
	}
}

func TestLeaderboardOrder(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()

	a := createUser(t, db, "amy")
	b := createUser(t, db, "ben")
	c := createUser(t, db, "cat")
	us.AddPoints(ctx, a.ID, 10)
	us.AddPoints(ctx, b.ID, 30)
	us.AddPoints(ctx, c.ID, 10)

	entries, err := us.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	want := []string{"ben", "amy", "cat"}
	for i, e := range entries {
		if e.Username != want[i] || e.Rank != i+1 {
			t.Errorf("entries[%d] = %s rank %d, want %s rank %d", i, e.Username, e.Rank, want[i], i+1)
		}
	}
}
