// Package syncer orchestrates repository inspection, fetch and pull
// operations, and fans results out to the cache, history and event hub.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/events"
	"github.com/LeanderZiehm/git-dashboard/internal/gitcli"
	"github.com/LeanderZiehm/git-dashboard/internal/models"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
	"github.com/LeanderZiehm/git-dashboard/internal/store"
)

// stderrTailLimit caps how much captured git stderr is kept per operation.
const stderrTailLimit = 2048

// GitSyncClient runs the mutating git commands.
type GitSyncClient interface {
	Fetch(ctx context.Context, dir string) error
	Pull(ctx context.Context, dir string) error
}

// StatusInspector builds a status snapshot for one working copy.
type StatusInspector interface {
	Status(ctx context.Context, name, path string) (*models.RepoStatus, error)
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	FetchCompleted(ok bool)
	PullCompleted(ok bool)
	SetRepoCounts(total, behind int)
}

// Config holds the syncer's tunables.
type Config struct {
	FetchTimeout     time.Duration
	PullTimeout      time.Duration
	FetchConcurrency int
}

// Syncer coordinates git operations against the scanned repositories.
// One mutating git command runs per repository at a time; fetch-all is
// bounded by the configured concurrency.
type Syncer struct {
	scanner   *scanner.Scanner
	inspector StatusInspector
	git       GitSyncClient
	cache     *cache.StatusCache
	hub       *events.Hub
	history   store.OperationStore
	metrics   Recorder
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	inflight sync.WaitGroup
}

// New creates a Syncer.
func New(sc *scanner.Scanner, ins StatusInspector, git GitSyncClient, c *cache.StatusCache,
	hub *events.Hub, history store.OperationStore, rec Recorder, cfg Config, logger *slog.Logger) *Syncer {
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		scanner:   sc,
		inspector: ins,
		git:       git,
		cache:     c,
		hub:       hub,
		history:   history,
		metrics:   rec,
		cfg:       cfg,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// repoLock returns the mutex serializing git mutations for one repo.
func (s *Syncer) repoLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Refresh inspects a repo and updates cache and subscribers. A failed
// inspection never evicts the last good status; the stale entry is
// annotated with the error instead.
func (s *Syncer) Refresh(ctx context.Context, name string) (*models.RepoStatus, error) {
	repo, err := s.scanner.Resolve(name)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, repo), nil
}

func (s *Syncer) refresh(ctx context.Context, repo scanner.Repo) *models.RepoStatus {
	status, err := s.inspector.Status(ctx, repo.Name, repo.Path)
	if err != nil {
		s.logger.Warn("inspection failed", "repo", repo.Name, "error", err)
		status = s.errorStatus(repo, err)
	}

	s.cache.Put(status)
	if s.hub != nil {
		s.hub.Publish(events.Event{Type: events.EventStatus, Repo: repo.Name, Data: status})
	}
	s.updateGauges()
	return status
}

// errorStatus builds the status row for a failed inspection, carrying
// over the previously known fields when available.
func (s *Syncer) errorStatus(repo scanner.Repo, err error) *models.RepoStatus {
	now := time.Now().UTC()
	if prev, ok := s.cache.GetStale(repo.Name); ok {
		clone := *prev
		clone.Error = err.Error()
		clone.CheckedAt = now
		return &clone
	}
	return &models.RepoStatus{
		Name:      repo.Name,
		Path:      repo.Path,
		Error:     err.Error(),
		CheckedAt: now,
	}
}

// Fetch runs git fetch for the named repo and refreshes its status. The
// refreshed status is returned even when the fetch itself failed, so
// stale-but-valid data stays visible. A fetch that hit its deadline is
// the exception: the error is returned alongside the status so the API
// can answer with a timeout.
func (s *Syncer) Fetch(ctx context.Context, name string) (*models.RepoStatus, error) {
	repo, err := s.scanner.Resolve(name)
	if err != nil {
		return nil, err
	}
	status, fetchErr := s.fetchRepo(ctx, repo)
	if errors.Is(fetchErr, context.DeadlineExceeded) {
		return status, fetchErr
	}
	return status, nil
}

func (s *Syncer) fetchRepo(ctx context.Context, repo scanner.Repo) (*models.RepoStatus, error) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	lock := s.repoLock(repo.Name)
	lock.Lock()
	defer lock.Unlock()

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	started := time.Now().UTC()
	fetchErr := s.git.Fetch(fetchCtx, repo.Path)
	s.record(ctx, repo.Name, models.OperationFetch, started, fetchErr)
	if s.metrics != nil {
		s.metrics.FetchCompleted(fetchErr == nil)
	}

	status := s.refresh(ctx, repo)
	if fetchErr != nil && status.Error == "" {
		status.Error = fetchErr.Error()
	}
	return status, fetchErr
}

// Pull fast-forwards the named repo from its upstream, then refreshes.
// Like Fetch, a pull that hit its deadline returns the error with the
// status.
func (s *Syncer) Pull(ctx context.Context, name string) (*models.RepoStatus, error) {
	repo, err := s.scanner.Resolve(name)
	if err != nil {
		return nil, err
	}

	s.inflight.Add(1)
	defer s.inflight.Done()

	lock := s.repoLock(repo.Name)
	lock.Lock()
	defer lock.Unlock()

	pullCtx := ctx
	if s.cfg.PullTimeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, s.cfg.PullTimeout)
		defer cancel()
	}

	started := time.Now().UTC()
	pullErr := s.git.Pull(pullCtx, repo.Path)
	s.record(ctx, repo.Name, models.OperationPull, started, pullErr)
	if s.metrics != nil {
		s.metrics.PullCompleted(pullErr == nil)
	}

	status := s.refresh(ctx, repo)
	if pullErr != nil && status.Error == "" {
		status.Error = pullErr.Error()
	}
	if errors.Is(pullErr, context.DeadlineExceeded) {
		return status, pullErr
	}
	return status, nil
}

// FetchAll fetches every git repo under the scan root with bounded
// parallelism and returns the number of repos kicked off. Individual
// failures are recorded per repo and never abort the sweep.
func (s *Syncer) FetchAll(ctx context.Context) (int, error) {
	repos, err := s.scanner.Scan()
	if err != nil {
		return 0, err
	}

	var gitRepos []scanner.Repo
	for _, r := range repos {
		if r.IsGit {
			gitRepos = append(gitRepos, r)
		}
	}

	started := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for _, repo := range gitRepos {
		repo := repo
		g.Go(func() error {
			s.fetchRepo(gctx, repo)
			return nil
		})
	}
	_ = g.Wait()

	s.record(ctx, "*", models.OperationFetchAll, started, nil)
	s.updateGauges()
	return len(gitRepos), nil
}

// RefreshAll rescans the root and re-inspects every directory. Removed
// directories are dropped from the cache and announced to subscribers.
func (s *Syncer) RefreshAll(ctx context.Context) error {
	repos, err := s.scanner.Scan()
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(repos))
	for _, repo := range repos {
		keep[repo.Name] = true
	}
	for _, prev := range s.cache.Snapshot() {
		if !keep[prev.Name] && s.hub != nil {
			s.hub.Publish(events.Event{Type: events.EventRemoved, Repo: prev.Name})
		}
	}
	s.cache.Retain(keep)

	for _, repo := range repos {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.refresh(ctx, repo)
	}

	s.updateGauges()
	return nil
}

func (s *Syncer) updateGauges() {
	if s.metrics == nil {
		return
	}
	statuses := s.cache.Snapshot()
	behind := 0
	for _, st := range statuses {
		if st.Behind > 0 {
			behind++
		}
	}
	s.metrics.SetRepoCounts(len(statuses), behind)
}

// record writes an operation to the history store. History failures are
// logged and never surfaced to the caller.
func (s *Syncer) record(ctx context.Context, repoName string, kind models.OperationKind, started time.Time, opErr error) {
	if s.history == nil {
		return
	}

	op := &models.Operation{
		ID:         uuid.New().String(),
		RepoName:   repoName,
		Kind:       kind,
		Status:     models.OperationOK,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if opErr != nil {
		op.Status = models.OperationFailed
		op.ErrorMessage = opErr.Error()
		if gitErr, ok := gitcli.AsGitError(opErr); ok {
			op.Stderr = tail(gitErr.Stderr, stderrTailLimit)
		}
	}

	if err := s.history.RecordOperation(ctx, op); err != nil {
		s.logger.Error("failed to record operation", "repo", repoName, "kind", kind, "error", err)
	}
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}

// Name implements the shutdown component interface.
func (s *Syncer) Name() string { return "syncer" }

// Shutdown waits for in-flight git operations to finish or the context
// to expire.
func (s *Syncer) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
