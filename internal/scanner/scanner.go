// Package scanner discovers git working copies under the scan root.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownRepo is returned when a name does not match a scanned repo.
var ErrUnknownRepo = errors.New("unknown repository")

// Repo is one discovered directory under the scan root.
type Repo struct {
	Name  string
	Path  string
	IsGit bool
}

// Scanner lists the immediate subdirectories of the scan root and keeps
// the latest snapshot for name resolution. Repo names, not client
// supplied paths, are the only way operations address a working copy.
type Scanner struct {
	root string

	mu     sync.RWMutex
	latest map[string]Repo
}

// New creates a Scanner for root. The root is cleaned and made absolute
// so containment checks are well defined.
func New(root string) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	return &Scanner{root: abs, latest: make(map[string]Repo)}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan reads the scan root and returns its subdirectories sorted by
// name. Hidden directories are skipped. Non-git directories are listed
// too; the dashboard renders them as error rows.
func (s *Scanner) Scan() ([]Repo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read scan root: %w", err)
	}

	repos := make([]Repo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(s.root, entry.Name())
		_, statErr := os.Stat(filepath.Join(path, ".git"))
		repos = append(repos, Repo{
			Name:  entry.Name(),
			Path:  path,
			IsGit: statErr == nil,
		})
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

	s.mu.Lock()
	s.latest = make(map[string]Repo, len(repos))
	for _, r := range repos {
		s.latest[r.Name] = r
	}
	s.mu.Unlock()

	return repos, nil
}

// Resolve maps a repo name from the latest scan to its directory.
func (s *Scanner) Resolve(name string) (Repo, error) {
	s.mu.RLock()
	repo, ok := s.latest[name]
	s.mu.RUnlock()
	if !ok {
		return Repo{}, fmt.Errorf("%s: %w", name, ErrUnknownRepo)
	}
	return repo, nil
}

// ResolvePath maps a filesystem path to a scanned repo. The path must
// clean to a direct child of the scan root; anything else is rejected.
// This exists for the legacy pull endpoint, which addressed repos by
// path.
func (s *Scanner) ResolvePath(path string) (Repo, error) {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		clean = filepath.Join(s.root, clean)
	}
	if filepath.Dir(clean) != s.root {
		return Repo{}, fmt.Errorf("%s: outside scan root: %w", path, ErrUnknownRepo)
	}
	return s.Resolve(filepath.Base(clean))
}
