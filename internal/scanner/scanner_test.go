package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRepo(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))
	return path
}

func TestScanFindsDirectories(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, root, "beta")
	mkRepo(t, root, "alpha")
	require.NoError(t, os.Mkdir(filepath.Join(root, "plain"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".hidden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	s, err := New(root)
	require.NoError(t, err)

	repos, err := s.Scan()
	require.NoError(t, err)
	require.Len(t, repos, 3)

	// Sorted by name; hidden dirs and plain files excluded.
	assert.Equal(t, "alpha", repos[0].Name)
	assert.Equal(t, "beta", repos[1].Name)
	assert.Equal(t, "plain", repos[2].Name)

	assert.True(t, repos[0].IsGit)
	assert.True(t, repos[1].IsGit)
	assert.False(t, repos[2].IsGit)
}

func TestResolveKnownAndUnknown(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, root, "alpha")

	s, err := New(root)
	require.NoError(t, err)
	_, err = s.Scan()
	require.NoError(t, err)

	repo, err := s.Resolve("alpha")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "alpha"), repo.Path)

	_, err = s.Resolve("missing")
	assert.ErrorIs(t, err, ErrUnknownRepo)
}

func TestResolvePathContainment(t *testing.T) {
	root := t.TempDir()
	alpha := mkRepo(t, root, "alpha")

	s, err := New(root)
	require.NoError(t, err)
	_, err = s.Scan()
	require.NoError(t, err)

	repo, err := s.ResolvePath(alpha)
	require.NoError(t, err)
	assert.Equal(t, "alpha", repo.Name)

	// Relative name resolves against the scan root.
	repo, err = s.ResolvePath("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", repo.Name)

	for _, path := range []string{
		"/etc/passwd",
		filepath.Join(root, "alpha", "nested"),
		filepath.Join(root, "..", "alpha"),
		"alpha/../../etc",
	} {
		_, err := s.ResolvePath(path)
		assert.ErrorIs(t, err, ErrUnknownRepo, "path %s should be rejected", path)
	}
}

func TestScanRefreshesSnapshot(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, root, "alpha")

	s, err := New(root)
	require.NoError(t, err)
	_, err = s.Scan()
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "alpha")))
	_, err = s.Scan()
	require.NoError(t, err)

	_, err = s.Resolve("alpha")
	assert.ErrorIs(t, err, ErrUnknownRepo)
}
