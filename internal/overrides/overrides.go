// Package overrides maps mis-parsed title fragments to better search
// terms. Two sources are merged at load time: a bundled default table
// shipped with the binary and the user's search_overrides configuration,
// with user entries winning on key collision.
package overrides

import (
	_ "embed"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bundled.yml
var bundledRaw []byte

// bundledFile mirrors the layout of the shipped override file.
type bundledFile struct {
	Movies map[string]string `yaml:"movies"`
	Shows  map[string]string `yaml:"shows"`
}

// Table resolves normalized titles to corrected search terms. It is
// immutable after construction and safe for concurrent readers.
type Table struct {
	exact map[string]string

	// substring fallback, in merge order (bundled first, then user),
	// applied only when no exact key matches
	keys []string
}

// Load builds the table from the bundled defaults merged with the
// user-supplied entries. User entries override bundled ones on exact
// key collision.
func Load(user map[string]string) (*Table, error) {
	var bundled bundledFile
	if err := yaml.Unmarshal(bundledRaw, &bundled); err != nil {
		return nil, err
	}

	t := &Table{exact: make(map[string]string)}
	t.merge(bundled.Movies)
	t.merge(bundled.Shows)
	t.merge(user)
	return t, nil
}

// NewTable builds a table from explicit entries only, skipping the
// bundled defaults. Intended for tests and programmatic use.
func NewTable(entries map[string]string) *Table {
	t := &Table{exact: make(map[string]string)}
	t.merge(entries)
	return t
}

func (t *Table) merge(entries map[string]string) {
	// Deterministic substring order within one source.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		norm := strings.ToLower(strings.TrimSpace(k))
		if norm == "" {
			continue
		}
		if _, seen := t.exact[norm]; !seen {
			t.keys = append(t.keys, norm)
		}
		t.exact[norm] = entries[k]
	}
}

// Resolve returns the corrected search term for a normalized title, or
// the title unchanged when no override applies. An exact key match wins;
// otherwise the first key (in merge order) contained in the title as a
// whitespace-bounded substring is used. Resolve is idempotent as long as
// no override maps onto another override's key.
func (t *Table) Resolve(normalizedTitle string) string {
	if term, ok := t.exact[normalizedTitle]; ok {
		return term
	}
	for _, key := range t.keys {
		if containsWordBounded(normalizedTitle, key) {
			return t.exact[key]
		}
	}
	return normalizedTitle
}

// Len returns the number of distinct override keys.
func (t *Table) Len() int { return len(t.keys) }

// Entries returns the effective override pairs in merge order.
func (t *Table) Entries() [][2]string {
	out := make([][2]string, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, [2]string{k, t.exact[k]})
	}
	return out
}

// containsWordBounded reports whether key occurs in title delimited by
// whitespace (or the string edges) on both sides.
func containsWordBounded(title, key string) bool {
	idx := 0
	for {
		i := strings.Index(title[idx:], key)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(key)
		leftOK := start == 0 || title[start-1] == ' '
		rightOK := end == len(title) || title[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(title) {
			return false
		}
	}
}
