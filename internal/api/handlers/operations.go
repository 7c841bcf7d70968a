package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LeanderZiehm/git-dashboard/internal/store"
)

// defaultOperationsLimit bounds the history listing when the client
// does not ask for a specific amount.
const defaultOperationsLimit = 50

// OperationsHandler serves the sync operation history.
type OperationsHandler struct {
	history store.OperationStore
	logger  *slog.Logger
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(history store.OperationStore, logger *slog.Logger) *OperationsHandler {
	return &OperationsHandler{history: history, logger: logger}
}

// List handles GET /api/operations - returns recent operations, newest
// first. Supports ?limit=N up to 500.
func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultOperationsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			WriteBadRequest(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	ops, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list operations", "error", err)
		WriteInternalError(w, "Failed to list operations")
		return
	}
	WriteJSON(w, http.StatusOK, ops)
}
