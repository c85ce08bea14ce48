package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMonthParams(t *testing.T) {
	now := time.Date(2026, time.May, 31, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		query     string
		wantMonth int
		wantYear  int
		wantOK    bool
	}{
		{"", 5, 2026, true},
		{"?month=2", 2, 2026, true},
		{"?month=12&year=2025", 12, 2025, true},
		{"?month=0", 0, 0, false},
		{"?month=13", 0, 0, false},
		{"?year=abc", 0, 0, false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/reports/system"+tt.query, nil)
		m, y, ok := monthParams(r, now)
		if m != tt.wantMonth || y != tt.wantYear || ok != tt.wantOK {
			t.Errorf("monthParams(%q) = %d, %d, %v; want %d, %d, %v", tt.query, m, y, ok, tt.wantMonth, tt.wantYear, tt.wantOK)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"core"}`))
	if !decodeJSON(rec, r, &v) || v.Name != "core" {
		t.Errorf("decode valid body: name = %q", v.Name)
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	if decodeJSON(rec, r, &v) {
		t.Error("expected empty body to fail")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "request body is required") {
		t.Errorf("empty body: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r = httptest.NewRequest("POST", "/", strings.NewReader("{"))
	if decodeJSON(rec, r, &v) {
		t.Error("expected malformed body to fail")
	}
	if !strings.Contains(rec.Body.String(), "invalid JSON") {
		t.Errorf("malformed body: %s", rec.Body.String())
	}
}
