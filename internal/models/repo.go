// Package models defines the core data types shared across the dashboard.
package models

import "time"

// SyncState classifies a repository row for the UI.
type SyncState string

const (
	// SyncStateClean means the local branch is not behind its upstream.
	SyncStateClean SyncState = "clean"
	// SyncStateOutdated means the local branch is behind its upstream.
	SyncStateOutdated SyncState = "outdated"
	// SyncStateError means the repository could not be inspected.
	SyncStateError SyncState = "error"
)

// RepoStatus is the inspected state of one git working copy. The JSON
// field names are the dashboard's wire format and are relied on by the
// embedded UI.
type RepoStatus struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Branch       string `json:"branch,omitempty"`
	LocalCommit  string `json:"local_commit,omitempty"`
	RemoteCommit string `json:"remote_commit,omitempty"`
	Ahead        int    `json:"ahead"`
	Behind       int    `json:"behind"`

	LastLocalCommitAt  *time.Time `json:"last_local_commit_date,omitempty"`
	LastRemoteCommitAt *time.Time `json:"last_remote_commit_date,omitempty"`

	// Error is set when inspection or the last sync operation failed.
	// Rows with an error keep any previously known fields.
	Error string `json:"error,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// State derives the sync state for this status.
func (s *RepoStatus) State() SyncState {
	if s.Error != "" && s.LocalCommit == "" {
		return SyncStateError
	}
	if s.Behind > 0 {
		return SyncStateOutdated
	}
	return SyncStateClean
}
