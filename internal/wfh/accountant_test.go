package wfh

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/teampulse/internal/database"
	"github.com/dukerupert/teampulse/internal/store"
)

type fixture struct {
	db      *sql.DB
	acct    *Accountant
	records *store.WFHStore
	teams   *store.TeamStore
	userID  int64
	teamID  int64
}

func setup(t *testing.T, limit int) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	u, err := store.NewUserStore(db).Create(ctx, store.NewUser{Username: "alice", AuthType: "local"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	ts := store.NewTeamStore(db)
	team, err := ts.Create(ctx, "Platform", limit)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	ws := store.NewWFHStore(db)
	return &fixture{
		db:      db,
		acct:    NewAccountant(ws, ts, 3),
		records: ws,
		teams:   ts,
		userID:  u.ID,
		teamID:  team.ID,
	}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func (f *fixture) count(t *testing.T, month, year int) int {
	t.Helper()
	n, err := f.records.CountMonth(context.Background(), f.userID, f.teamID, month, year)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestApplyFlagUnchangedIsNoop(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), false, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n := f.count(t, 3, 2026); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestApplyFlagOnCreatesRecord(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	rec, err := f.records.Get(ctx, f.userID, f.teamID, day("2026-03-02"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.Month != 3 || rec.Year != 2026 {
		t.Errorf("month/year = %d/%d, want 3/2026", rec.Month, rec.Year)
	}
	if rec.Date != "2026-03-02" {
		t.Errorf("date = %q, want %q", rec.Date, "2026-03-02")
	}
}

func TestApplyFlagIgnoresTimeOfDay(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	morning := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, morning, true, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, evening, true, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n := f.count(t, 3, 2026); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestLimitScenario(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	for _, d := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day(d), true, false); err != nil {
			t.Fatalf("apply %s: %v", d, err)
		}
	}

	err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-05"), true, false)
	var le *LimitExceededError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LimitExceededError", err)
	}
	if le.Used != 3 || le.Limit != 3 {
		t.Errorf("used/limit = %d/%d, want 3/3", le.Used, le.Limit)
	}
	if n := f.count(t, 3, 2026); n != 3 {
		t.Errorf("records = %d, want 3", n)
	}

	// A new month starts from zero.
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-04-01"), true, false); err != nil {
		t.Errorf("apply next month: %v", err)
	}
}

func TestReflagSameDayAtLimit(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()

	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Another activity on the same day: already accounted, no limit check.
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false); err != nil {
		t.Errorf("reflag same day: %v", err)
	}
}

func TestToggleDoesNotDoubleCount(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()
	d := day("2026-03-02")

	steps := []struct{ newV, prev bool }{{true, false}, {false, true}, {true, false}}
	for _, s := range steps {
		if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, d, s.newV, s.prev); err != nil {
			t.Fatalf("apply %v->%v: %v", s.prev, s.newV, err)
		}
	}
	if n := f.count(t, 3, 2026); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}

func TestApplyFlagOffIsIdempotent(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), false, true); err != nil {
		t.Errorf("apply off without record: %v", err)
	}
}

func TestZeroLimitBlocksEverything(t *testing.T) {
	f := setup(t, 0)

	err := f.acct.ApplyFlag(context.Background(), f.userID, f.teamID, day("2026-03-02"), true, false)
	var le *LimitExceededError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LimitExceededError", err)
	}
	if le.Used != 0 || le.Limit != 0 {
		t.Errorf("used/limit = %d/%d, want 0/0", le.Used, le.Limit)
	}
}

func TestLimitDefaultsForMissingTeam(t *testing.T) {
	f := setup(t, 5)

	limit, err := f.acct.Limit(context.Background(), 9999)
	if err != nil {
		t.Fatalf("limit: %v", err)
	}
	if limit != 3 {
		t.Errorf("limit = %d, want 3", limit)
	}
}

func TestUsageReportsBonusSeparately(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false)
	if _, err := f.records.AddQuota(ctx, f.userID, 3, 2026, 2); err != nil {
		t.Fatalf("add quota: %v", err)
	}

	u, err := f.acct.Usage(ctx, f.userID, f.teamID, day("2026-03-15"))
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 1 || u.Limit != 3 || u.Remaining != 2 {
		t.Errorf("usage = %+v, want used 1 limit 3 remaining 2", u)
	}
	if u.BonusQuota != 2 {
		t.Errorf("bonus = %d, want 2", u.BonusQuota)
	}
}

func TestBonusQuotaDoesNotRaiseEnforcedLimit(t *testing.T) {
	f := setup(t, 1)
	ctx := context.Background()

	if _, err := f.records.AddQuota(ctx, f.userID, 3, 2026, 5); err != nil {
		t.Fatalf("add quota: %v", err)
	}
	if err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false); err != nil {
		t.Fatalf("apply: %v", err)
	}

	err := f.acct.ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-03"), true, false)
	var le *LimitExceededError
	if !errors.As(err, &le) {
		t.Errorf("err = %v, want LimitExceededError despite bonus quota", err)
	}
}

func TestApplyFlagInsideRolledBackTx(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	errAbort := errors.New("abort")
	err := store.RunInTx(ctx, f.db, func(tx *sql.Tx) error {
		if err := f.acct.WithTx(tx).ApplyFlag(ctx, f.userID, f.teamID, day("2026-03-02"), true, false); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("err = %v, want errAbort", err)
	}
	if n := f.count(t, 3, 2026); n != 0 {
		t.Errorf("records = %d, want 0 after rollback", n)
	}
}
