package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/teampulse/internal/backup"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, logger: logger}
}

// Create takes a database snapshot now and uploads it.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Snapshot(r.Context())
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, backup.ErrInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeInternal(w, h.logger, "backup", err)
		return
	}
	h.logger.Info("backup uploaded", "key", snap.Key, "size", snap.Size, "encrypted", snap.Encrypted)
	writeJSON(w, http.StatusCreated, snap)
}

// Last returns the most recent snapshot taken by this process.
func (h *BackupHandler) Last(w http.ResponseWriter, r *http.Request) {
	snap := h.manager.Last()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no backup taken yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
