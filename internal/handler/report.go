package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/teampulse/internal/model"
	"github.com/dukerupert/teampulse/internal/report"
)

type ReportHandler struct {
	aggregator *report.Aggregator
	exporter   *report.Exporter
	now        func() time.Time
	logger     *slog.Logger
}

func NewReportHandler(agg *report.Aggregator, exp *report.Exporter, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{aggregator: agg, exporter: exp, now: time.Now, logger: logger}
}

func (h *ReportHandler) Team(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.teamReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *ReportHandler) System(w http.ResponseWriter, r *http.Request) {
	month, year, ok := monthParams(r, h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month or year")
		return
	}
	rep, err := h.aggregator.SystemReport(r.Context(), month, year)
	if err != nil {
		h.writeReportError(w, "system report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Export uploads the team report as CSV to object storage.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.exporter.Configured() {
		writeError(w, http.StatusServiceUnavailable, report.ErrStorageNotConfigured.Error())
		return
	}
	rep, ok := h.teamReport(w, r)
	if !ok {
		return
	}
	exp, err := h.exporter.ExportTeam(r.Context(), rep)
	if err != nil {
		h.writeReportError(w, "export team report", err)
		return
	}
	h.logger.Info("team report exported", "team_id", rep.TeamID, "key", exp.Key)
	writeJSON(w, http.StatusCreated, exp)
}

func (h *ReportHandler) teamReport(w http.ResponseWriter, r *http.Request) (*model.TeamReport, bool) {
	teamID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team ID")
		return nil, false
	}
	month, year, ok := monthParams(r, h.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month or year")
		return nil, false
	}
	rep, err := h.aggregator.TeamReport(r.Context(), teamID, month, year)
	if err != nil {
		h.writeReportError(w, "team report", err)
		return nil, false
	}
	return rep, true
}

func (h *ReportHandler) writeReportError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, report.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, report.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, report.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, report.ErrStorageNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeInternal(w, h.logger, op, err)
	}
}
