package cache

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

func status(name string) *models.RepoStatus {
	return &models.RepoStatus{Name: name, Path: "/repos/" + name}
}

func TestCacheFreshnessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("entries younger than the TTL are fresh, older ones are stale but retained", prop.ForAll(
		func(age int64) bool {
			ttl := 30 * time.Second
			c := New(ttl)

			base := time.Unix(1700000000, 0)
			now := base
			c.SetClock(func() time.Time { return now })

			c.Put(status("repo"))
			now = base.Add(time.Duration(age) * time.Millisecond)

			_, fresh := c.Get("repo")
			_, stale := c.GetStale("repo")

			wantFresh := time.Duration(age)*time.Millisecond < ttl
			return fresh == wantFresh && stale
		},
		gen.Int64Range(0, 120000),
	))

	properties.TestingRun(t)
}

func TestSnapshotSortedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("snapshot is always sorted by repo name", prop.ForAll(
		func(count int) bool {
			c := New(time.Minute)
			for i := count; i > 0; i-- {
				c.Put(status(fmt.Sprintf("repo-%03d", i)))
			}
			snap := c.Snapshot()
			if len(snap) != count {
				return false
			}
			return sort.SliceIsSorted(snap, func(i, j int) bool {
				return snap[i].Name < snap[j].Name
			})
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestRetainDropsRemovedRepos(t *testing.T) {
	c := New(time.Minute)
	c.Put(status("keep"))
	c.Put(status("drop"))

	c.Retain(map[string]bool{"keep": true})

	if _, ok := c.GetStale("keep"); !ok {
		t.Fatal("expected keep to survive")
	}
	if _, ok := c.GetStale("drop"); ok {
		t.Fatal("expected drop to be removed")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Put(status("repo"))
	c.Invalidate("repo")
	if _, ok := c.GetStale("repo"); ok {
		t.Fatal("expected entry to be gone after invalidate")
	}
}
