package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/models"
	"github.com/LeanderZiehm/git-dashboard/internal/store"
)

// StatsHandler serves aggregate dashboard statistics.
type StatsHandler struct {
	cache   *cache.StatusCache
	history store.OperationStore
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(c *cache.StatusCache, history store.OperationStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{cache: c, history: history, logger: logger}
}

// DashboardStats summarizes the current repository population and the
// recorded operation history.
type DashboardStats struct {
	TotalRepos    int              `json:"total_repos"`
	CleanRepos    int              `json:"clean_repos"`
	OutdatedRepos int              `json:"outdated_repos"`
	ErroredRepos  int              `json:"errored_repos"`
	Operations    OperationSummary `json:"operations"`
}

// OperationSummary counts recorded operations by outcome.
type OperationSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.calculate(r.Context())
	if err != nil {
		h.logger.Error("failed to calculate stats", "error", err)
		WriteInternalError(w, "Failed to calculate dashboard statistics")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) calculate(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	for _, status := range h.cache.Snapshot() {
		stats.TotalRepos++
		switch status.State() {
		case models.SyncStateOutdated:
			stats.OutdatedRepos++
		case models.SyncStateError:
			stats.ErroredRepos++
		default:
			stats.CleanRepos++
		}
	}

	ok, err := h.history.CountByStatus(ctx, models.OperationOK)
	if err != nil {
		return nil, err
	}
	failed, err := h.history.CountByStatus(ctx, models.OperationFailed)
	if err != nil {
		return nil, err
	}
	stats.Operations = OperationSummary{Succeeded: ok, Failed: failed}

	return stats, nil
}
