// Package handlers provides HTTP request handlers for the dashboard.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/models"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
)

// SyncService is the subset of the syncer used by HTTP handlers.
type SyncService interface {
	Refresh(ctx context.Context, name string) (*models.RepoStatus, error)
	Fetch(ctx context.Context, name string) (*models.RepoStatus, error)
	Pull(ctx context.Context, name string) (*models.RepoStatus, error)
	FetchAll(ctx context.Context) (int, error)
}

// ReposHandler serves repository listing and sync endpoints.
type ReposHandler struct {
	scanner *scanner.Scanner
	cache   *cache.StatusCache
	syncer  SyncService
	logger  *slog.Logger

	mu         sync.Mutex
	refreshing map[string]bool
}

// NewReposHandler creates a new repos handler.
func NewReposHandler(sc *scanner.Scanner, c *cache.StatusCache, sync SyncService, logger *slog.Logger) *ReposHandler {
	return &ReposHandler{scanner: sc, cache: c, syncer: sync, logger: logger, refreshing: make(map[string]bool)}
}

// List handles GET /api/repos - returns the scanned repositories with
// their cached statuses. No git commands run in the request path: fresh
// entries are served as-is, while stale or never-inspected repos are
// served with what is known and re-inspected in the background.
func (h *ReposHandler) List(w http.ResponseWriter, r *http.Request) {
	repos, err := h.scanner.Scan()
	if err != nil {
		h.logger.Error("scan failed", "error", err)
		WriteInternalError(w, "Failed to scan repositories")
		return
	}

	statuses := make([]*models.RepoStatus, 0, len(repos))
	for _, repo := range repos {
		if status, ok := h.cache.Get(repo.Name); ok {
			statuses = append(statuses, status)
			continue
		}
		if repo.IsGit {
			h.refreshAsync(r.Context(), repo.Name)
		}
		if status, ok := h.cache.GetStale(repo.Name); ok {
			statuses = append(statuses, status)
			continue
		}
		row := &models.RepoStatus{Name: repo.Name, Path: repo.Path}
		if !repo.IsGit {
			row.Error = "not a git repository"
		}
		statuses = append(statuses, row)
	}

	WriteJSON(w, http.StatusOK, statuses)
}

// refreshAsync re-inspects one repo in the background. At most one
// refresh per repo is in flight; repeated listings while one is pending
// are no-ops.
func (h *ReposHandler) refreshAsync(ctx context.Context, name string) {
	h.mu.Lock()
	if h.refreshing[name] {
		h.mu.Unlock()
		return
	}
	h.refreshing[name] = true
	h.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.refreshing, name)
			h.mu.Unlock()
		}()
		if _, err := h.syncer.Refresh(ctx, name); err != nil {
			h.logger.Warn("background refresh failed", "repo", name, "error", err)
		}
	}()
}

// Refresh handles POST /api/repos/{name}/refresh - re-inspects without
// touching the network.
func (h *ReposHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := h.syncer.Refresh(r.Context(), name)
	if err != nil {
		h.writeResolveError(w, name, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Fetch handles POST /api/repos/{name}/fetch.
func (h *ReposHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := h.syncer.Fetch(r.Context(), name)
	if err != nil {
		h.writeResolveError(w, name, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Pull handles POST /api/repos/{name}/pull.
func (h *ReposHandler) Pull(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := h.syncer.Pull(r.Context(), name)
	if err != nil {
		h.writeResolveError(w, name, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// FetchAll handles POST /api/fetch-all - fetches every repo with bounded
// parallelism. Responds once the sweep finished.
func (h *ReposHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.syncer.FetchAll(r.Context())
	if err != nil {
		h.logger.Error("fetch-all failed", "error", err)
		WriteInternalError(w, "Failed to fetch repositories")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"fetched": count})
}

func (h *ReposHandler) writeResolveError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, scanner.ErrUnknownRepo) {
		WriteNotFound(w, "Unknown repository: "+name)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		WriteGitTimeout(w, "Git operation timed out for "+name)
		return
	}
	h.logger.Error("repo operation failed", "repo", name, "error", err)
	WriteInternalError(w, "Repository operation failed")
}
