package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
)

// LegacyHandler serves the original dashboard wire surface:
// GET /fetch_repo/{repo_name} and POST /pull_repo. Both always answer
// 200 with either a status row or a flat {"name": ..., "error": ...}
// object; the embedded UI keys off the error field, not status codes.
type LegacyHandler struct {
	scanner *scanner.Scanner
	syncer  SyncService
	logger  *slog.Logger
}

// NewLegacyHandler creates a new legacy handler.
func NewLegacyHandler(sc *scanner.Scanner, sync SyncService, logger *slog.Logger) *LegacyHandler {
	return &LegacyHandler{scanner: sc, syncer: sync, logger: logger}
}

// errorRow is the legacy error payload shape.
type errorRow struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// FetchRepo handles GET /fetch_repo/{repo_name}.
func (h *LegacyHandler) FetchRepo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "repo_name")

	// Pick up repos that appeared after the last scan.
	if _, err := h.scanner.Resolve(name); err != nil {
		if _, scanErr := h.scanner.Scan(); scanErr != nil {
			h.logger.Error("rescan failed", "error", scanErr)
		}
	}

	status, err := h.syncer.Fetch(r.Context(), name)
	if err != nil {
		WriteJSON(w, http.StatusOK, errorRow{Name: name, Error: "Could not fetch repo"})
		return
	}
	h.writeStatus(w, status)
}

// PullRepo handles POST /pull_repo with form field repo_path. The path
// must resolve to a scanned repository inside the scan root; arbitrary
// filesystem paths are rejected.
func (h *LegacyHandler) PullRepo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteBadRequest(w, "Invalid form data")
		return
	}
	path := r.PostFormValue("repo_path")
	if path == "" {
		WriteBadRequest(w, "repo_path is required")
		return
	}

	repo, err := h.scanner.ResolvePath(path)
	if err != nil {
		h.logger.Warn("rejected pull path", "path", path, "error", err)
		WriteJSON(w, http.StatusOK, errorRow{Name: path, Error: "Pull failed"})
		return
	}

	status, err := h.syncer.Pull(r.Context(), repo.Name)
	if err != nil {
		WriteJSON(w, http.StatusOK, errorRow{Name: repo.Name, Error: "Pull failed"})
		return
	}
	h.writeStatus(w, status)
}

func (h *LegacyHandler) writeStatus(w http.ResponseWriter, status *models.RepoStatus) {
	// Inspection failures collapse to the legacy error shape.
	if status.State() == models.SyncStateError {
		WriteJSON(w, http.StatusOK, errorRow{Name: status.Name, Error: status.Error})
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
