package gitcli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotARepo is returned when a path does not contain a git working copy.
var ErrNotARepo = errors.New("not a git repository")

// GitError represents a detailed error from a git subprocess.
type GitError struct {
	// Args are the git arguments that were executed.
	Args []string

	// Stderr contains the captured git stderr output.
	Stderr string

	// ExitCode is the exit code from git.
	ExitCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	cmd := "git " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed (exit %d): %s", cmd, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", cmd, e.Err)
	}
	return fmt.Sprintf("%s failed with exit code %d", cmd, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *GitError) Unwrap() error {
	return e.Err
}

// AsGitError attempts to convert an error to a GitError.
func AsGitError(err error) (*GitError, bool) {
	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return gitErr, true
	}
	return nil, false
}
