package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/mydehq/mediasort/internal/cache"
	"github.com/mydehq/mediasort/internal/types"
)

func TestRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	key := cache.Key("the wire", types.MediaTypeTV, 1, 2)
	match := types.MetadataMatch{
		Provider:     "tvmaze",
		ProviderID:   "179",
		Title:        "The Wire",
		Type:         types.MediaTypeTV,
		Season:       1,
		Episode:      2,
		EpisodeTitle: "The Detail",
		Score:        1.0,
	}
	c.Put(key, match)

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := cache.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, ok := reloaded.Get(key)
	if !ok {
		t.Fatal("reloaded cache misses the stored key")
	}
	if got != match {
		t.Errorf("got %+v; want %+v", got, match)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c, err := cache.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c == nil {
		t.Fatal("got nil cache for a valid path")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d; want 0", c.Len())
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	c, err := cache.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c != nil {
		t.Fatal("empty path should disable the cache")
	}

	// All operations on the nil cache are no-ops.
	c.Put("k", types.MetadataMatch{Title: "x"})
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache returned a hit")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d; want 0", c.Len())
	}
	if err := c.Save(); err != nil {
		t.Errorf("Save on nil cache failed: %v", err)
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	// Pointing at an unwritable location is fine as long as nothing
	// was ever stored.
	c, err := cache.Load(filepath.Join(t.TempDir(), "sub", "cache.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Save(); err != nil {
		t.Errorf("Save of a clean cache failed: %v", err)
	}
}

func TestKeyDistinguishesRequests(t *testing.T) {
	a := cache.Key("fargo", types.MediaTypeMovie, -1, -1)
	b := cache.Key("fargo", types.MediaTypeTV, -1, -1)
	e1 := cache.Key("fargo", types.MediaTypeTV, 1, 1)
	e2 := cache.Key("fargo", types.MediaTypeTV, 1, 2)

	keys := map[string]struct{}{a: {}, b: {}, e1: {}, e2: {}}
	if len(keys) != 4 {
		t.Errorf("keys collide: %v", keys)
	}
}
