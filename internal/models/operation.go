package models

import "time"

// OperationKind identifies what a sync operation did.
type OperationKind string

const (
	OperationFetch    OperationKind = "fetch"
	OperationPull     OperationKind = "pull"
	OperationFetchAll OperationKind = "fetch_all"
)

// OperationStatus is the terminal state of a sync operation.
type OperationStatus string

const (
	OperationOK     OperationStatus = "ok"
	OperationFailed OperationStatus = "failed"
)

// Operation records one fetch or pull against a repository. Operations
// are appended to the history store for the operations view.
type Operation struct {
	ID         string          `json:"id"`
	RepoName   string          `json:"repo_name"`
	Kind       OperationKind   `json:"kind"`
	Status     OperationStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`

	// ErrorMessage holds the rendered error for failed operations.
	ErrorMessage string `json:"error_message,omitempty"`
	// Stderr holds a trimmed tail of git's stderr, when captured.
	Stderr string `json:"stderr,omitempty"`
}

// Duration returns how long the operation took.
func (o *Operation) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
