package report

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/teampulse/internal/config"
	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/objectstore"
)

// mockS3Client implements objectstore.Putter for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.types[*input.Key] = *input.ContentType
	return &s3.PutObjectOutput{}, nil
}

var fixedNow = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

func sampleReport() *model.TeamReport {
	return &model.TeamReport{
		TeamID:   7,
		TeamName: "Platform",
		Month:    5,
		Year:     2026,
		WFHLimit: 3,
		Members: []model.MemberReport{
			{UserID: 1, Username: "lena", Activities: 4, Done: 3, InProgress: 1, WFHDays: 2},
			{UserID: 2, Username: "mark, jr", Activities: 1, Blocked: 1},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	body, err := RenderCSV(sampleReport())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "user_id,username,activities,done,in_progress,blocked,wfh_days,wfh_limit\n" +
		"1,lena,4,3,1,0,2,3\n" +
		"2,\"mark, jr\",1,0,0,1,0,3\n"
	if string(body) != want {
		t.Errorf("csv =\n%s\nwant\n%s", body, want)
	}
}

func TestExportTeam(t *testing.T) {
	mock := newMockS3()
	e := &Exporter{bucket: "reports", client: mock, now: func() time.Time { return fixedNow }}

	exp, err := e.ExportTeam(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exp.Bucket != "reports" || exp.Rows != 2 {
		t.Errorf("export = %+v", exp)
	}
	if !strings.HasPrefix(exp.Key, "reports/team-7/2026-05/") || !strings.HasSuffix(exp.Key, ".csv") {
		t.Errorf("key = %q", exp.Key)
	}
	if !exp.ExportedAt.Equal(fixedNow) {
		t.Errorf("exportedAt = %v, want %v", exp.ExportedAt, fixedNow)
	}

	data, ok := mock.objects[exp.Key]
	if !ok {
		t.Fatal("object not uploaded")
	}
	if !strings.HasPrefix(string(data), "user_id,username") {
		t.Errorf("body = %q", data)
	}
	if mock.types[exp.Key] != "text/csv" {
		t.Errorf("content type = %q, want text/csv", mock.types[exp.Key])
	}
}

func TestExportTeamUniqueKeys(t *testing.T) {
	mock := newMockS3()
	e := &Exporter{bucket: "reports", client: mock, now: time.Now}

	a, _ := e.ExportTeam(context.Background(), sampleReport())
	b, _ := e.ExportTeam(context.Background(), sampleReport())
	if a.Key == b.Key {
		t.Errorf("keys collide: %q", a.Key)
	}
}

func TestExportTeamUploadError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("bucket gone")
	e := &Exporter{bucket: "reports", client: mock, now: time.Now}

	if _, err := e.ExportTeam(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error")
	}
}

func TestExporterNotConfigured(t *testing.T) {
	e := NewExporter(objectstore.NewClient(config.S3Config{Bucket: "reports"}), "reports")
	if e.Configured() {
		t.Fatal("expected unconfigured exporter")
	}
	if _, err := e.ExportTeam(context.Background(), sampleReport()); !errors.Is(err, ErrStorageNotConfigured) {
		t.Errorf("err = %v, want ErrStorageNotConfigured", err)
	}

	cfg := config.S3Config{
		Endpoint: "http://localhost:9000", Bucket: "reports", Region: "us-east-1", AccessKey: "key", SecretKey: "secret",
	}
	if configured := NewExporter(objectstore.NewClient(cfg), cfg.Bucket); !configured.Configured() {
		t.Error("expected configured exporter")
	}
}
