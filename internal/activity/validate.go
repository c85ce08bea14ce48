package activity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/teampulse/internal/model"
)

const maxSubjectLen = 255

var timeRegexp = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// validate checks a fully populated activity and returns its parsed day.
func validate(a *model.Activity) (time.Time, error) {
	verr := &ValidationError{}

	d, err := time.Parse(model.DateLayout, a.Date)
	if err != nil {
		verr.add("date", "must be a date in YYYY-MM-DD format")
	}
	if a.Time != "" && !timeRegexp.MatchString(a.Time) {
		verr.add("time", "must be HH:MM in 24-hour format")
	}

	switch n := utf8.RuneCountInString(a.Subject); {
	case strings.TrimSpace(a.Subject) == "":
		verr.add("subject", "is required")
	case n > maxSubjectLen:
		verr.add("subject", "must be at most %d characters", maxSubjectLen)
	}
	if strings.TrimSpace(a.Description) == "" {
		verr.add("description", "is required")
	}
	if !model.ValidActivityStatus(a.Status) {
		verr.add("status", "must be one of %s, %s, %s", model.ActivityInProgress, model.ActivityDone, model.ActivityBlocked)
	}
	if a.IsWFH && a.TeamID == nil {
		verr.add("teamId", "is required when isWfh is true")
	}

	return d, verr.orNil()
}
