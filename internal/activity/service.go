// Package activity implements the daily work-log ledger. Creating or editing
// an entry's remote-work flag goes through the WFH accountant in the same
// transaction as the activity write, so a refused day leaves nothing behind.
package activity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/teampulse/internal/auth"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/store"
	"github.com/dukerupert/teampulse/internal/wfh"
)

var (
	ErrNotFound  = errors.New("activity not found")
	ErrForbidden = errors.New("not allowed to modify this activity")
)

// CreateInput carries the fields of a new activity.
type CreateInput struct {
	Date        string
	Time        string
	Subject     string
	Description string
	Status      string
	IsWFH       bool
	TeamID      *int64
	Project     string
}

// UpdateInput is a partial patch; nil fields are left unchanged. ClearTeam
// removes the team association.
type UpdateInput struct {
	Date        *string
	Time        *string
	Subject     *string
	Description *string
	Status      *string
	IsWFH       *bool
	TeamID      *int64
	ClearTeam   bool
	Project     *string
}

type Service struct {
	db         *sql.DB
	activities *store.ActivityStore
	teams      *store.TeamStore
	accountant *wfh.Accountant
}

func NewService(db *sql.DB, activities *store.ActivityStore, teams *store.TeamStore, accountant *wfh.Accountant) *Service {
	return &Service{db: db, activities: activities, teams: teams, accountant: accountant}
}

// Create validates and stores a new activity for userID. A WFH activity is
// accounted before the activity row is written.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*model.Activity, error) {
	a := &model.Activity{
		UserID:      userID,
		TeamID:      in.TeamID,
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		Subject:     strings.TrimSpace(in.Subject),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Project:     strings.TrimSpace(in.Project),
		IsWFH:       in.IsWFH,
	}

	day, err := validate(a)
	if err != nil {
		return nil, err
	}
	if err := checkTeam(ctx, s.teams, a.TeamID); err != nil {
		return nil, err
	}

	var created *model.Activity
	err = store.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if a.IsWFH {
			if err := s.accountant.WithTx(tx).ApplyFlag(ctx, userID, *a.TeamID, day, true, false); err != nil {
				return err
			}
		}
		var err error
		created, err = s.activities.WithTx(tx).Create(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the activity if the caller owns it or is an admin.
func (s *Service) Get(ctx context.Context, id int64) (*model.Activity, error) {
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if !canAccess(ctx, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

// List returns the caller's activities between from and to.
func (s *Service) List(ctx context.Context, from, to string) ([]model.Activity, error) {
	return s.activities.ListByUser(ctx, auth.UserID(ctx), from, to)
}

// Update applies a patch. When the remote-work flag changes, the owner's WFH
// record for the activity's day is created or removed first; a refused day
// aborts the whole update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*model.Activity, error) {
	var updated *model.Activity
	err := store.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		activities := s.activities.WithTx(tx)

		current, err := activities.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrNotFound
		}
		if !canAccess(ctx, current) {
			return ErrForbidden
		}

		next := applyPatch(*current, in)
		day, err := validate(&next)
		if err != nil {
			return err
		}
		if teamChanged(current.TeamID, next.TeamID) {
			if err := checkTeam(ctx, s.teams.WithTx(tx), next.TeamID); err != nil {
				return err
			}
		}

		// Turning on accounts the new day and team; turning off releases
		// the record that was accounted for the stored day and team.
		acct := s.accountant.WithTx(tx)
		switch {
		case next.IsWFH && !current.IsWFH:
			if err := acct.ApplyFlag(ctx, current.UserID, *next.TeamID, day, true, false); err != nil {
				return err
			}
		case !next.IsWFH && current.IsWFH && current.TeamID != nil:
			prevDay, err := time.Parse(model.DateLayout, current.Date)
			if err != nil {
				return err
			}
			if err := acct.ApplyFlag(ctx, current.UserID, *current.TeamID, prevDay, false, true); err != nil {
				return err
			}
		}

		updated, err = activities.Update(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the activity. Any WFH record for its day is kept and keeps
// counting toward the month's limit.
func (s *Service) Delete(ctx context.Context, id int64) (*model.Activity, error) {
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if !canAccess(ctx, a) {
		return nil, ErrForbidden
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func checkTeam(ctx context.Context, teams *store.TeamStore, teamID *int64) error {
	if teamID == nil {
		return nil
	}
	team, err := teams.GetByID(ctx, *teamID)
	if err != nil {
		return err
	}
	if team == nil {
		return &ValidationError{Fields: []FieldError{{Field: "teamId", Message: "team not found"}}}
	}
	return nil
}

func canAccess(ctx context.Context, a *model.Activity) bool {
	return a.UserID == auth.UserID(ctx) || auth.IsAdmin(ctx)
}

func teamChanged(a, b *int64) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

func applyPatch(a model.Activity, in UpdateInput) model.Activity {
	if in.Date != nil {
		a.Date = strings.TrimSpace(*in.Date)
	}
	if in.Time != nil {
		a.Time = strings.TrimSpace(*in.Time)
	}
	if in.Subject != nil {
		a.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.Project != nil {
		a.Project = strings.TrimSpace(*in.Project)
	}
	if in.IsWFH != nil {
		a.IsWFH = *in.IsWFH
	}
	if in.ClearTeam {
		a.TeamID = nil
	} else if in.TeamID != nil {
		id := *in.TeamID
		a.TeamID = &id
	}
	return a
}
