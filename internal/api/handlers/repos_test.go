package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/models"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
)

// stubSync is a scripted SyncService. Refresh calls are counted under a
// lock because the list handler refreshes in the background.
type stubSync struct {
	mu           sync.Mutex
	statuses     map[string]*models.RepoStatus
	err          error
	refreshCalls []string
	fetchCalls   []string
	pullCalls    []string
	fetchAll     int
}

func (s *stubSync) status(name string) (*models.RepoStatus, error) {
	if s.err != nil {
		return nil, s.err
	}
	if st, ok := s.statuses[name]; ok {
		return st, nil
	}
	return &models.RepoStatus{Name: name, Branch: "main", LocalCommit: "abc", CheckedAt: time.Now().UTC()}, nil
}

func (s *stubSync) Refresh(_ context.Context, name string) (*models.RepoStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls = append(s.refreshCalls, name)
	return s.status(name)
}

func (s *stubSync) refreshed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refreshCalls...)
}

func (s *stubSync) Fetch(_ context.Context, name string) (*models.RepoStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls = append(s.fetchCalls, name)
	return s.status(name)
}

func (s *stubSync) Pull(_ context.Context, name string) (*models.RepoStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pullCalls = append(s.pullCalls, name)
	return s.status(name)
}

func (s *stubSync) FetchAll(context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.fetchAll, nil
}

func testScanner(t *testing.T, repoNames ...string) *scanner.Scanner {
	t.Helper()
	root := t.TempDir()
	for _, name := range repoNames {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name, ".git"), 0o755))
	}
	sc, err := scanner.New(root)
	require.NoError(t, err)
	_, err = sc.Scan()
	require.NoError(t, err)
	return sc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reposRouter(sc *scanner.Scanner, c *cache.StatusCache, sync SyncService) chi.Router {
	h := NewReposHandler(sc, c, sync, testLogger())
	r := chi.NewRouter()
	r.Get("/api/repos", h.List)
	r.Post("/api/fetch-all", h.FetchAll)
	r.Post("/api/repos/{name}/refresh", h.Refresh)
	r.Post("/api/repos/{name}/fetch", h.Fetch)
	r.Post("/api/repos/{name}/pull", h.Pull)
	return r
}

func TestListMergesCacheAndScan(t *testing.T) {
	sc := testScanner(t, "alpha", "beta")
	c := cache.New(time.Minute)
	c.Put(&models.RepoStatus{Name: "alpha", Branch: "main", LocalCommit: "abc", CheckedAt: time.Now().UTC()})

	r := reposRouter(sc, c, &stubSync{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/repos", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.RepoStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, "main", got[0].Branch)

	// beta was never inspected: bare row.
	assert.Equal(t, "beta", got[1].Name)
	assert.Empty(t, got[1].Branch)
	assert.True(t, got[1].CheckedAt.IsZero())
}

func TestListMarksNonGitDirectories(t *testing.T) {
	sc := testScanner(t, "alpha")
	require.NoError(t, os.Mkdir(filepath.Join(sc.Root(), "plain"), 0o755))
	_, err := sc.Scan()
	require.NoError(t, err)

	r := reposRouter(sc, cache.New(time.Minute), &stubSync{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/repos", nil))

	var got []models.RepoStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "not a git repository", got[1].Error)
}

func TestFetchEndpoint(t *testing.T) {
	sc := testScanner(t, "alpha")
	sync := &stubSync{}
	r := reposRouter(sc, cache.New(time.Minute), sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/repos/alpha/fetch", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"alpha"}, sync.fetchCalls)
}

func TestFetchUnknownRepoIs404(t *testing.T) {
	sc := testScanner(t, "alpha")
	sync := &stubSync{err: scanner.ErrUnknownRepo}
	r := reposRouter(sc, cache.New(time.Minute), sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/repos/ghost/fetch", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrCodeNotFound, apiErr.Code)
}

func TestListServesFreshEntriesWithoutRefreshing(t *testing.T) {
	sc := testScanner(t, "alpha")
	c := cache.New(time.Minute)
	c.Put(&models.RepoStatus{Name: "alpha", Branch: "main", LocalCommit: "abc", CheckedAt: time.Now().UTC()})
	sync := &stubSync{}

	r := reposRouter(sc, c, sync)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/repos", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, sync.refreshed())
}

func TestListKicksBackgroundRefreshForStaleEntries(t *testing.T) {
	sc := testScanner(t, "alpha")

	c := cache.New(time.Minute)
	base := time.Unix(1700000000, 0)
	now := base
	c.SetClock(func() time.Time { return now })
	c.Put(&models.RepoStatus{Name: "alpha", Branch: "main", LocalCommit: "abc", CheckedAt: base})
	now = base.Add(2 * time.Minute)

	sync := &stubSync{}
	r := reposRouter(sc, c, sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/repos", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// The stale row is still served in the response.
	var got []models.RepoStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].LocalCommit)

	require.Eventually(t, func() bool {
		return len(sync.refreshed()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"alpha"}, sync.refreshed())
}

func TestFetchTimeoutIs504(t *testing.T) {
	sc := testScanner(t, "alpha")
	sync := &stubSync{err: context.DeadlineExceeded}
	r := reposRouter(sc, cache.New(time.Minute), sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/repos/alpha/fetch", nil))
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, ErrCodeGitTimeout, apiErr.Code)
}

func TestPullTimeoutIs504(t *testing.T) {
	sc := testScanner(t, "alpha")
	sync := &stubSync{err: context.DeadlineExceeded}
	r := reposRouter(sc, cache.New(time.Minute), sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/repos/alpha/pull", nil))
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestFetchAllEndpoint(t *testing.T) {
	sc := testScanner(t, "alpha", "beta")
	sync := &stubSync{fetchAll: 2}
	r := reposRouter(sc, cache.New(time.Minute), sync)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/fetch-all", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got["fetched"])
}
