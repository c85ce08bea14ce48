package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/objectstore"
)

var ErrStorageNotConfigured = errors.New("report storage is not configured")

// Exporter uploads CSV renderings of team reports to S3-compatible storage.
type Exporter struct {
	bucket string
	client objectstore.Putter
	now    func() time.Time
}

// NewExporter returns an Exporter. With a nil client every export fails with
// ErrStorageNotConfigured.
func NewExporter(client objectstore.Putter, bucket string) *Exporter {
	return &Exporter{bucket: bucket, client: client, now: time.Now}
}

func (e *Exporter) Configured() bool {
	return e.client != nil
}

// Export is the result of a stored report upload.
type Export struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Rows       int       `json:"rows"`
	ExportedAt time.Time `json:"exportedAt"`
}

// ExportTeam renders the report as CSV and uploads it under
// reports/team-<id>/<year>-<month>/<uuid>.csv.
func (e *Exporter) ExportTeam(ctx context.Context, rep *model.TeamReport) (*Export, error) {
	if e.client == nil {
		return nil, ErrStorageNotConfigured
	}

	body, err := RenderCSV(rep)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/team-%d/%04d-%02d/%s.csv", rep.TeamID, rep.Year, rep.Month, uuid.NewString())
	if err := objectstore.Put(ctx, e.client, e.bucket, key, "text/csv", body); err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}

	return &Export{Bucket: e.bucket, Key: key, Rows: len(rep.Members), ExportedAt: e.now().UTC()}, nil
}

var csvHeader = []string{"user_id", "username", "activities", "done", "in_progress", "blocked", "wfh_days", "wfh_limit"}

// RenderCSV writes one row per team member after a header row.
func RenderCSV(rep *model.TeamReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	limit := strconv.Itoa(rep.WFHLimit)
	for _, m := range rep.Members {
		err := w.Write([]string{
			strconv.FormatInt(m.UserID, 10),
			m.Username,
			strconv.Itoa(m.Activities),
			strconv.Itoa(m.Done),
			strconv.Itoa(m.InProgress),
			strconv.Itoa(m.Blocked),
			strconv.Itoa(m.WFHDays),
			limit,
		})
		if err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
