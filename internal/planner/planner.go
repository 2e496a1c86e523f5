// Package planner computes canonical destination paths for resolved
// media and decides what to do when a destination already exists.
package planner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mydehq/mediasort/internal/types"
)

// renameLimit caps the numeric suffix search. In practice it is never
// reached; hitting it degrades the entry to a skip.
const renameLimit = 99

// StatFunc abstracts os.Stat so collision checks are testable offline.
type StatFunc func(path string) (fs.FileInfo, error)

// Options configure a planner.
type Options struct {
	// SuffixThe moves a leading "The" to the end of directory titles
	// ("The Wire" becomes "Wire, The").
	SuffixThe bool

	// Stat defaults to os.Stat.
	Stat StatFunc

	// Logger is optional.
	Logger *log.Logger
}

// Planner plans destinations for a single batch. It remembers the paths
// it has already handed out so two entries in one batch can never both
// move to the same destination. Not safe for concurrent use; the engine
// plans sequentially in input order.
type Planner struct {
	moviesRoot string
	tvRoot     string
	suffixThe  bool
	stat       StatFunc
	log        *log.Logger

	claimed map[string]struct{}
}

// New builds a planner for one batch. Either root may be empty, which
// routes files of that type to skip-unresolved.
func New(moviesRoot, tvRoot string, opts Options) *Planner {
	stat := opts.Stat
	if stat == nil {
		stat = func(path string) (fs.FileInfo, error) { return os.Stat(path) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{
		moviesRoot: moviesRoot,
		tvRoot:     tvRoot,
		suffixThe:  opts.SuffixThe,
		stat:       stat,
		log:        logger,
		claimed:    make(map[string]struct{}),
	}
}

// Plan computes the plan entry for a resolved file.
func (p *Planner) Plan(source string, match *types.MetadataMatch) types.SortPlanEntry {
	ext := filepath.Ext(source)

	var dest string
	switch match.Type {
	case types.MediaTypeMovie:
		if p.moviesRoot == "" {
			return skipUnresolved(source, match.Score, types.ErrDestinationMissing{Type: match.Type}.Error())
		}
		dest = p.moviePath(match, ext)
	case types.MediaTypeTV:
		if p.tvRoot == "" {
			return skipUnresolved(source, match.Score, types.ErrDestinationMissing{Type: match.Type}.Error())
		}
		if match.Season < 0 || match.Episode < 0 {
			return skipUnresolved(source, match.Score,
				fmt.Sprintf("no season or episode number for %s", match.Title))
		}
		dest = p.episodePath(match, ext)
	default:
		return skipUnresolved(source, match.Score, "unclassified media type")
	}

	return p.resolveCollision(source, dest, match.Score)
}

// SkipUnresolved builds the terminal entry for a file the pipeline could
// not identify.
func SkipUnresolved(source, reason string) types.SortPlanEntry {
	return skipUnresolved(source, 0, reason)
}

func skipUnresolved(source string, score float64, reason string) types.SortPlanEntry {
	return types.SortPlanEntry{
		Source: source,
		Action: types.ActionSkipUnresolved,
		Score:  score,
		Reason: reason,
	}
}

// moviePath builds "{root}/{Title} ({Year})/{Title} ({Year}).{ext}".
// A movie without a known year collapses to the bare title.
func (p *Planner) moviePath(match *types.MetadataMatch, ext string) string {
	name := sanitizeName(match.Title)
	if p.suffixThe {
		name = suffixLeadingThe(name)
	}
	if match.Year > 0 {
		name = fmt.Sprintf("%s (%d)", name, match.Year)
	}
	return filepath.Join(p.moviesRoot, name, name+ext)
}

// episodePath builds
// "{root}/{Series}/Season {SS}/{Series} - S{SS}E{EE}[ - {Episode}].{ext}".
func (p *Planner) episodePath(match *types.MetadataMatch, ext string) string {
	series := sanitizeName(match.Title)
	if p.suffixThe {
		series = suffixLeadingThe(series)
	}

	file := fmt.Sprintf("%s - S%02dE%02d", series, match.Season, match.Episode)
	if match.EpisodeTitle != "" {
		file = fmt.Sprintf("%s - %s", file, sanitizeName(match.EpisodeTitle))
	}

	return filepath.Join(
		p.tvRoot,
		series,
		fmt.Sprintf("Season %02d", match.Season),
		file+ext,
	)
}

// resolveCollision decides the action for a computed destination. An
// existing file of identical size is assumed to be the same content and
// skipped; anything else diverges to the first free numeric suffix.
func (p *Planner) resolveCollision(source, dest string, score float64) types.SortPlanEntry {
	srcSize := int64(-1)
	if info, err := p.stat(source); err == nil {
		srcSize = info.Size()
	}

	if info, err := p.stat(dest); err == nil {
		if info.Size() == srcSize {
			return types.SortPlanEntry{
				Source: source,
				Action: types.ActionSkipCollision,
				Score:  score,
				Reason: fmt.Sprintf("destination %s exists with identical size", dest),
			}
		}
		return p.renamed(source, dest, score)
	} else if _, taken := p.claimed[dest]; taken {
		// A previous entry in this batch already claimed the path.
		return p.renamed(source, dest, score)
	}

	p.claimed[dest] = struct{}{}
	return types.SortPlanEntry{
		Source:      source,
		Destination: dest,
		Action:      types.ActionMove,
		Score:       score,
	}
}

// renamed finds the first free " (n)" suffix for dest.
func (p *Planner) renamed(source, dest string, score float64) types.SortPlanEntry {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)

	for n := 1; n <= renameLimit; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, taken := p.claimed[candidate]; taken {
			continue
		}
		if _, err := p.stat(candidate); err == nil {
			continue
		}
		p.claimed[candidate] = struct{}{}
		return types.SortPlanEntry{
			Source:      source,
			Destination: candidate,
			Action:      types.ActionRename,
			Score:       score,
		}
	}

	p.log.Warn("exhausted rename suffixes", "destination", dest)
	return types.SortPlanEntry{
		Source: source,
		Action: types.ActionSkipCollision,
		Score:  score,
		Reason: fmt.Sprintf("no free rename suffix for %s", dest),
	}
}

var illegalChars = regexp.MustCompile(`[:#]`)

// sanitizeName strips characters that are illegal or troublesome in
// destination file names on common filesystems.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = illegalChars.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// suffixLeadingThe rewrites "The Wire" as "Wire, The" so shows sort by
// their significant word.
func suffixLeadingThe(name string) string {
	rest, ok := strings.CutPrefix(name, "The ")
	if !ok || rest == "" {
		return name
	}
	return rest + ", The"
}
