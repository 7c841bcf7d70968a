// Package inspect assembles repository status snapshots from git queries.
package inspect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeanderZiehm/git-dashboard/internal/gitcli"
	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

// GitClient is the subset of the git runner used for inspection.
type GitClient interface {
	IsRepo(dir string) bool
	CurrentBranch(ctx context.Context, dir string) (string, error)
	HeadCommit(ctx context.Context, dir string) (string, error)
	UpstreamCommit(ctx context.Context, dir, branch string) (string, error)
	AheadBehind(ctx context.Context, dir, branch string) (ahead, behind int, err error)
	LastCommitDate(ctx context.Context, dir, ref string) (time.Time, error)
}

// Inspector builds RepoStatus values for working copies.
type Inspector struct {
	git     GitClient
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Inspector. timeout bounds the git queries for a single
// status; zero means no per-status deadline.
func New(git GitClient, timeout time.Duration, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{git: git, timeout: timeout, logger: logger}
}

// Status inspects the working copy at path. Branch and local head are
// mandatory; everything that depends on an upstream ref is optional so
// repos without a remote still render.
func (i *Inspector) Status(ctx context.Context, name, path string) (*models.RepoStatus, error) {
	if !i.git.IsRepo(path) {
		return nil, fmt.Errorf("%s: %w", path, gitcli.ErrNotARepo)
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	branch, err := i.git.CurrentBranch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolve branch: %w", err)
	}

	head, err := i.git.HeadCommit(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	status := &models.RepoStatus{
		Name:        name,
		Path:        path,
		Branch:      branch,
		LocalCommit: head,
		CheckedAt:   time.Now().UTC(),
	}

	if local, err := i.git.LastCommitDate(ctx, path, branch); err == nil {
		status.LastLocalCommitAt = &local
	}

	// Detached HEAD has no upstream to compare against.
	if branch == "HEAD" {
		return status, nil
	}

	remote, err := i.git.UpstreamCommit(ctx, path, branch)
	if err != nil {
		i.logger.Debug("no upstream ref", "repo", name, "branch", branch)
		return status, nil
	}
	status.RemoteCommit = remote

	ahead, behind, err := i.git.AheadBehind(ctx, path, branch)
	if err == nil {
		status.Ahead = ahead
		status.Behind = behind
	}

	if remoteDate, err := i.git.LastCommitDate(ctx, path, "origin/"+branch); err == nil {
		status.LastRemoteCommitAt = &remoteDate
	}

	return status, nil
}
