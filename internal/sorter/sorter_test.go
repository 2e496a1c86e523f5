package sorter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mydehq/mediasort/internal/config"
	"github.com/mydehq/mediasort/internal/overrides"
	"github.com/mydehq/mediasort/internal/resolver"
	"github.com/mydehq/mediasort/internal/sorter"
	"github.com/mydehq/mediasort/internal/types"
)

// fakeProvider answers searches from a fixed term -> results map. A
// per-term delay simulates lookups finishing out of order.
type fakeProvider struct {
	results map[string][]types.RawCandidate
	delay   map[string]time.Duration
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Configured() bool { return true }

func (f *fakeProvider) Serves(mediaType types.MediaType) bool {
	return mediaType == types.MediaTypeMovie || mediaType == types.MediaTypeTV
}

func (f *fakeProvider) Search(ctx context.Context, term string, mediaType types.MediaType, season, episode int) ([]types.RawCandidate, error) {
	if d := f.delay[term]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	var out []types.RawCandidate
	for _, res := range f.results[term] {
		if res.Type == mediaType {
			out = append(out, res)
		}
	}
	return out, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newEngine(provider types.Provider) *sorter.Engine {
	res := resolver.New([]types.Provider{provider}, overrides.NewTable(nil), resolver.Options{})
	return sorter.New(res, sorter.Options{
		Extensions:  []string{".mkv", ".mp4"},
		Concurrency: 2,
	})
}

func TestScanSource(t *testing.T) {
	incoming := t.TempDir()
	movies := t.TempDir()
	tv := t.TempDir()

	writeFile(t, filepath.Join(incoming, "Inception.2010.mkv"), "movie bytes")
	writeFile(t, filepath.Join(incoming, "The.Wire.S01E02.mkv"), "episode bytes")
	writeFile(t, filepath.Join(incoming, "garbage.mkv"), "???")
	writeFile(t, filepath.Join(incoming, "notes.txt"), "not media")

	engine := newEngine(&fakeProvider{results: map[string][]types.RawCandidate{
		"inception": {
			{Provider: "fake", ID: "27205", Title: "Inception", Year: 2010, Type: types.MediaTypeMovie},
		},
		"the wire": {
			{Provider: "fake", ID: "179", Title: "The Wire", Type: types.MediaTypeTV,
				Episode: &types.EpisodeInfo{Title: "The Detail", Season: 1, Number: 2}},
		},
	}})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:          incoming,
		MoviesOutput:  movies,
		TVShowsOutput: tv,
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries; want 3 (the .txt file is not media)", len(result.Entries))
	}

	// Entries come back in discovery (lexical walk) order.
	wantDest := []struct {
		action types.Action
		dest   string
	}{
		{types.ActionMove, filepath.Join(movies, "Inception (2010)", "Inception (2010).mkv")},
		{types.ActionMove, filepath.Join(tv, "The Wire", "Season 01", "The Wire - S01E02 - The Detail.mkv")},
		{types.ActionSkipUnresolved, ""},
	}
	for i, want := range wantDest {
		entry := result.Entries[i]
		if entry.Action != want.action {
			t.Errorf("entry[%d].Action = %q; want %q", i, entry.Action, want.action)
		}
		if entry.Destination != want.dest {
			t.Errorf("entry[%d].Destination = %q; want %q", i, entry.Destination, want.dest)
		}
	}

	if result.Summary.Resolved != 2 || result.Summary.Unresolved != 1 || result.Summary.Collisions != 0 {
		t.Errorf("Summary = %+v; want 2 resolved, 1 unresolved", result.Summary)
	}

	// A dry scan never touches the filesystem.
	if _, err := os.Stat(wantDest[0].dest); !os.IsNotExist(err) {
		t.Errorf("destination %s exists after a plan-only scan", wantDest[0].dest)
	}
}

func TestScanSourceUnresolvedNeverPlansMove(t *testing.T) {
	incoming := t.TempDir()
	writeFile(t, filepath.Join(incoming, "randomfile.mkv"), "???")

	engine := newEngine(&fakeProvider{})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:          incoming,
		MoviesOutput:  t.TempDir(),
		TVShowsOutput: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries; want 1", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.Action != types.ActionSkipUnresolved {
		t.Errorf("Action = %q; want skip-unresolved", entry.Action)
	}
	if entry.Destination != "" {
		t.Errorf("Destination = %q; want empty", entry.Destination)
	}
	if entry.Reason == "" {
		t.Error("Reason is empty; want an explanation")
	}
}

func TestScanSourceCollisionDivergesWithinBatch(t *testing.T) {
	incoming := t.TempDir()
	movies := t.TempDir()

	writeFile(t, filepath.Join(incoming, "a", "Heat.1995.mkv"), "first rip")
	writeFile(t, filepath.Join(incoming, "b", "Heat.1995.mkv"), "second different rip")

	engine := newEngine(&fakeProvider{results: map[string][]types.RawCandidate{
		"heat": {
			{Provider: "fake", ID: "949", Title: "Heat", Year: 1995, Type: types.MediaTypeMovie},
		},
	}})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:         incoming,
		MoviesOutput: movies,
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries; want 2", len(result.Entries))
	}
	first, second := result.Entries[0], result.Entries[1]
	if first.Action != types.ActionMove {
		t.Errorf("first Action = %q; want move", first.Action)
	}
	if second.Action != types.ActionRename {
		t.Errorf("second Action = %q; want rename", second.Action)
	}
	if first.Destination == second.Destination {
		t.Errorf("both entries plan to %q", first.Destination)
	}
}

func TestScanSourceForcedTVUsesExtendedMarkers(t *testing.T) {
	incoming := t.TempDir()
	tv := t.TempDir()

	writeFile(t, filepath.Join(incoming, "Cowboy Bebop 05.mkv"), "episode")

	engine := newEngine(&fakeProvider{results: map[string][]types.RawCandidate{
		"cowboy bebop": {
			{Provider: "fake", ID: "30991", Title: "Cowboy Bebop", Type: types.MediaTypeTV,
				Episode: &types.EpisodeInfo{Title: "Ballad of Fallen Angels", Season: 1, Number: 5}},
		},
	}})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:          incoming,
		MediaType:     "tv",
		TVShowsOutput: tv,
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries; want 1", len(result.Entries))
	}
	want := filepath.Join(tv, "Cowboy Bebop", "Season 01", "Cowboy Bebop - S01E05 - Ballad of Fallen Angels.mkv")
	if result.Entries[0].Destination != want {
		t.Errorf("Destination = %q; want %q", result.Entries[0].Destination, want)
	}
}

func TestScanSourceForcedTVWithoutEpisodeMarkers(t *testing.T) {
	incoming := t.TempDir()
	tv := t.TempDir()

	// No marker anywhere in the name, and the provider only knows the
	// series. The file must be reported, not filed under a fabricated
	// season.
	writeFile(t, filepath.Join(incoming, "The Wire.mkv"), "episode")

	engine := newEngine(&fakeProvider{results: map[string][]types.RawCandidate{
		"the wire": {
			{Provider: "fake", ID: "179", Title: "The Wire", Type: types.MediaTypeTV},
		},
	}})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:          incoming,
		MediaType:     "tv",
		TVShowsOutput: tv,
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries; want 1", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.Action != types.ActionSkipUnresolved {
		t.Errorf("Action = %q; want skip-unresolved", entry.Action)
	}
	if entry.Destination != "" {
		t.Errorf("Destination = %q; want empty", entry.Destination)
	}
}

func TestScanSourceEmitsInDiscoveryOrder(t *testing.T) {
	incoming := t.TempDir()
	movies := t.TempDir()

	writeFile(t, filepath.Join(incoming, "Alien.1979.mkv"), "a")
	writeFile(t, filepath.Join(incoming, "Brazil.1985.mkv"), "b")

	// The first file's lookup finishes well after the second one, but
	// its entry must still come back first.
	engine := newEngine(&fakeProvider{
		results: map[string][]types.RawCandidate{
			"alien":  {{ID: "348", Title: "Alien", Year: 1979, Type: types.MediaTypeMovie}},
			"brazil": {{ID: "68", Title: "Brazil", Year: 1985, Type: types.MediaTypeMovie}},
		},
		delay: map[string]time.Duration{"alien": 100 * time.Millisecond},
	})

	result, err := engine.ScanSource(context.Background(), config.ScanSource{
		Path:         incoming,
		MoviesOutput: movies,
	})
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries; want 2", len(result.Entries))
	}
	if base := filepath.Base(result.Entries[0].Source); base != "Alien.1979.mkv" {
		t.Errorf("first entry is %q; want Alien.1979.mkv", base)
	}
	if base := filepath.Base(result.Entries[1].Source); base != "Brazil.1985.mkv" {
		t.Errorf("second entry is %q; want Brazil.1985.mkv", base)
	}
}

func TestScanConcatenatesSources(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	movies := t.TempDir()

	writeFile(t, filepath.Join(first, "Inception.2010.mkv"), "a")
	writeFile(t, filepath.Join(second, "Heat.1995.mkv"), "b")

	engine := newEngine(&fakeProvider{results: map[string][]types.RawCandidate{
		"inception": {{ID: "27205", Title: "Inception", Year: 2010, Type: types.MediaTypeMovie}},
		"heat":      {{ID: "949", Title: "Heat", Year: 1995, Type: types.MediaTypeMovie}},
	}})

	result, err := engine.Scan(context.Background(), []config.ScanSource{
		{Path: first, MoviesOutput: movies},
		{Path: second, MoviesOutput: movies},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries; want 2", len(result.Entries))
	}
	if base := filepath.Base(result.Entries[0].Source); base != "Inception.2010.mkv" {
		t.Errorf("entries not in source order: first is %q", base)
	}
	if result.Summary.Resolved != 2 {
		t.Errorf("Resolved = %d; want 2", result.Summary.Resolved)
	}
}
