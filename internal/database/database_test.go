package database

import "testing"

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{
		"users", "teams", "team_members", "activities", "wfh_records",
		"user_wfh_quotas", "rewards", "redemptions", "point_transactions",
		"top_performers", "push_subscriptions",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}

	for _, trigger := range []string{
		"users_updated_at", "teams_updated_at", "activities_updated_at",
		"rewards_updated_at", "redemptions_updated_at",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'trigger' AND name = ?`, trigger).Scan(&name)
		if err != nil {
			t.Errorf("trigger %s: %v", trigger, err)
		}
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestRewardWithRedemptionsCannotBeDeleted(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}
	mustExec(`INSERT INTO users (id, username) VALUES (1, 'alice')`)
	mustExec(`INSERT INTO rewards (id, name, points_cost) VALUES (1, 'Lunch', 50)`)
	mustExec(`INSERT INTO redemptions (user_id, reward_id, points_spent) VALUES (1, 1, 50)`)

	if _, err := db.Exec(`DELETE FROM rewards WHERE id = 1`); err == nil {
		t.Error("expected foreign key error deleting a redeemed reward")
	}
}
