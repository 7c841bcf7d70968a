// Package gitcli shells out to the system git binary for repository
// inspection and synchronization.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Observer receives the duration of every executed git command. Used to
// feed the metrics histogram without coupling this package to prometheus.
type Observer func(command string, elapsed time.Duration)

// Runner executes git commands inside a repository directory. All
// commands run with GIT_TERMINAL_PROMPT=0 so git never blocks on a
// credential prompt.
type Runner struct {
	git     string
	logger  *slog.Logger
	observe Observer
}

// NewRunner creates a Runner using the given git binary.
func NewRunner(gitBinary string, logger *slog.Logger, observe Observer) *Runner {
	if gitBinary == "" {
		gitBinary = "git"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{git: gitBinary, logger: logger, observe: observe}
}

// IsRepo reports whether dir contains a git working copy. A .git file
// (worktree or submodule checkout) counts as well as a directory.
func (r *Runner) IsRepo(dir string) bool {
	_, err := os.Stat(dir + string(os.PathSeparator) + ".git")
	return err == nil
}

// Output runs git with the given arguments in dir and returns trimmed
// stdout. Failures are returned as *GitError with captured stderr.
func (r *Runner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.git, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if r.observe != nil && len(args) > 0 {
		r.observe(args[0], time.Since(start))
	}
	if err != nil {
		exitCode := 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		// A command killed by its context reports "signal: killed";
		// surface the context error instead so callers can match it.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &GitError{
			Args:     args,
			Stderr:   stderr.String(),
			ExitCode: exitCode,
			Err:      err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Run runs git discarding stdout. Used for mutating commands.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) error {
	_, err := r.Output(ctx, dir, args...)
	return err
}

// CurrentBranch returns the short name of the checked out branch, or
// "HEAD" for a detached checkout.
func (r *Runner) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return r.Output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// HeadCommit returns the full SHA of the local HEAD.
func (r *Runner) HeadCommit(ctx context.Context, dir string) (string, error) {
	return r.Output(ctx, dir, "rev-parse", "HEAD")
}

// UpstreamCommit returns the full SHA of origin/<branch>, or an error
// when no such ref exists.
func (r *Runner) UpstreamCommit(ctx context.Context, dir, branch string) (string, error) {
	return r.Output(ctx, dir, "rev-parse", "origin/"+branch)
}

// AheadBehind returns how many commits branch is ahead of and behind
// origin/<branch>.
func (r *Runner) AheadBehind(ctx context.Context, dir, branch string) (ahead, behind int, err error) {
	out, err := r.Output(ctx, dir, "rev-list", "--left-right", "--count",
		fmt.Sprintf("%s...origin/%s", branch, branch))
	if err != nil {
		return 0, 0, err
	}
	return ParseAheadBehind(out)
}

// ParseAheadBehind parses the two tab-separated counters printed by
// rev-list --left-right --count.
func ParseAheadBehind(out string) (ahead, behind int, err error) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	ahead, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse ahead count %q: %w", fields[0], err)
	}
	behind, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse behind count %q: %w", fields[1], err)
	}
	return ahead, behind, nil
}

// LastCommitDate returns the committer date of the newest commit on ref.
func (r *Runner) LastCommitDate(ctx context.Context, dir, ref string) (time.Time, error) {
	out, err := r.Output(ctx, dir, "log", "-1", "--format=%cI", ref)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, out)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit date %q: %w", out, err)
	}
	return t, nil
}

// Fetch updates all remotes. Shallow and quiet, pruning deleted refs.
func (r *Runner) Fetch(ctx context.Context, dir string) error {
	return r.Run(ctx, dir, "fetch", "--all", "--prune", "--quiet", "--depth=1")
}

// Pull fast-forwards the current branch from its upstream. Merges and
// rebases are never attempted on the operator's behalf.
func (r *Runner) Pull(ctx context.Context, dir string) error {
	return r.Run(ctx, dir, "pull", "--ff-only")
}
