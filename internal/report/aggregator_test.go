package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/database"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
)

type fixture struct {
	agg    *Aggregator
	team   *model.Team
	lead   *model.User
	member *model.User
	admin  *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	us := store.NewUserStore(db)
	ts := store.NewTeamStore(db)
	acts := store.NewActivityStore(db)
	ws := store.NewWFHStore(db)

	lead, _ := us.Create(ctx, store.NewUser{Username: "lena", AuthType: model.AuthTypeLocal})
	member, _ := us.Create(ctx, store.NewUser{Username: "mark", AuthType: model.AuthTypeLocal})
	admin, _ := us.Create(ctx, store.NewUser{Username: "root", Role: model.RoleAdmin, AuthType: model.AuthTypeLocal})

	team, err := ts.Create(ctx, "Platform", 4)
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	other, _ := ts.Create(ctx, "Design", 2)
	ts.AddMember(ctx, team.ID, lead.ID, model.TeamRoleMember, true)
	ts.AddMember(ctx, team.ID, member.ID, model.TeamRoleMember, false)
	ts.AddMember(ctx, other.ID, member.ID, model.TeamRoleMember, false)

	add := func(u *model.User, teamID int64, date, status string) {
		t.Helper()
		_, err := acts.Create(ctx, &model.Activity{
			UserID: u.ID, TeamID: &teamID, Date: date, Subject: "work", Description: "work", Status: status,
		})
		if err != nil {
			t.Fatalf("create activity: %v", err)
		}
	}
	add(member, team.ID, "2026-05-04", model.ActivityDone)
	add(member, team.ID, "2026-05-05", model.ActivityBlocked)
	add(member, team.ID, "2026-05-31", model.ActivityInProgress)
	add(member, team.ID, "2026-06-01", model.ActivityDone)
	add(lead, team.ID, "2026-05-06", model.ActivityDone)
	add(member, other.ID, "2026-05-06", model.ActivityDone)

	ws.Create(ctx, member.ID, team.ID, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	ws.Create(ctx, member.ID, team.ID, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC))

	return &fixture{
		agg:    NewAggregator(store.NewReportStore(db), ts),
		team:   team,
		lead:   lead,
		member: member,
		admin:  admin,
	}
}

func as(u *model.User) context.Context {
	return auth.WithAuth(context.Background(), auth.AuthContext{UserID: u.ID, Role: u.Role})
}

func TestPeriod(t *testing.T) {
	from, to, err := Period(2, 2028)
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	if from != "2028-02-01" || to != "2028-02-29" {
		t.Errorf("period = %s..%s, want 2028-02-01..2028-02-29", from, to)
	}
	if _, _, err := Period(0, 2026); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}

func TestTeamReport(t *testing.T) {
	f := setup(t)

	rep, err := f.agg.TeamReport(as(f.lead), f.team.ID, 5, 2026)
	if err != nil {
		t.Fatalf("team report: %v", err)
	}
	if rep.TeamName != "Platform" || rep.WFHLimit != 4 {
		t.Errorf("report header = %+v", rep)
	}
	if len(rep.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(rep.Members))
	}

	// Ordered by username: lena, mark.
	mark := rep.Members[1]
	if mark.Username != "mark" {
		t.Fatalf("second member = %q, want mark", mark.Username)
	}
	if mark.Activities != 3 || mark.Done != 1 || mark.Blocked != 1 || mark.InProgress != 1 {
		t.Errorf("mark = %+v, want 3 activities (1 done, 1 blocked, 1 in progress)", mark)
	}
	if mark.WFHDays != 2 {
		t.Errorf("mark wfhDays = %d, want 2", mark.WFHDays)
	}
}

func TestTeamReportAccess(t *testing.T) {
	f := setup(t)

	if _, err := f.agg.TeamReport(as(f.member), f.team.ID, 5, 2026); !errors.Is(err, ErrForbidden) {
		t.Errorf("member: err = %v, want ErrForbidden", err)
	}
	if _, err := f.agg.TeamReport(as(f.admin), f.team.ID, 5, 2026); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := f.agg.TeamReport(as(f.admin), 999, 5, 2026); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("missing team: err = %v, want ErrTeamNotFound", err)
	}
}

func TestSystemReport(t *testing.T) {
	f := setup(t)

	if _, err := f.agg.SystemReport(as(f.lead), 5, 2026); !errors.Is(err, ErrForbidden) {
		t.Errorf("lead: err = %v, want ErrForbidden", err)
	}

	rep, err := f.agg.SystemReport(as(f.admin), 5, 2026)
	if err != nil {
		t.Fatalf("system report: %v", err)
	}
	if rep.Users != 3 {
		t.Errorf("users = %d, want 3", rep.Users)
	}
	if rep.Activities != 5 {
		t.Errorf("activities = %d, want 5", rep.Activities)
	}
	if rep.WFHDays != 2 {
		t.Errorf("wfhDays = %d, want 2", rep.WFHDays)
	}
	if len(rep.Teams) != 2 {
		t.Fatalf("teams = %d, want 2", len(rep.Teams))
	}
	// Ordered by name: Design, Platform.
	if rep.Teams[1].TeamName != "Platform" || rep.Teams[1].Activities != 4 || rep.Teams[1].Members != 2 {
		t.Errorf("platform summary = %+v", rep.Teams[1])
	}
}
