// Package sorter drives the identification pipeline over batches of
// files: discover, parse, classify, resolve concurrently, then plan
// destinations in discovery order. It never mutates the filesystem;
// the resulting plan is handed to a mover separately.
package sorter

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mydehq/mediasort/internal/classify"
	"github.com/mydehq/mediasort/internal/config"
	"github.com/mydehq/mediasort/internal/parser"
	"github.com/mydehq/mediasort/internal/planner"
	"github.com/mydehq/mediasort/internal/resolver"
	"github.com/mydehq/mediasort/internal/types"
)

// Summary counts the outcomes of one batch.
type Summary struct {
	Resolved   int
	Collisions int
	Unresolved int
}

// Result is the ordered plan for one batch plus outcome counts.
type Result struct {
	Entries []types.SortPlanEntry
	Summary Summary
}

// Engine runs the pipeline. Construct with New; safe to reuse across
// batches.
type Engine struct {
	resolver    *resolver.Resolver
	extensions  map[string]struct{}
	concurrency int
	suffixThe   bool
	stat        planner.StatFunc
	log         *log.Logger
}

// Options configure an engine.
type Options struct {
	// Extensions filters discovered files; entries include the dot.
	Extensions []string

	// Concurrency caps simultaneous metadata lookups (default 4).
	Concurrency int

	// SuffixThe is forwarded to the planner.
	SuffixThe bool

	// Stat is forwarded to the planner (tests).
	Stat planner.StatFunc

	// Logger is optional.
	Logger *log.Logger
}

// New builds an engine over the given resolver.
func New(res *resolver.Resolver, opts Options) *Engine {
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		resolver:    res,
		extensions:  exts,
		concurrency: concurrency,
		suffixThe:   opts.SuffixThe,
		stat:        opts.Stat,
		log:         logger,
	}
}

// resolution is the per-file outcome of the concurrent stage.
type resolution struct {
	match *types.MetadataMatch
	err   error
}

// ScanSource plans one configured source directory (or single file).
// Metadata lookups run concurrently under the engine's limit, but the
// returned entries are in discovery order regardless of completion
// order. Cancelling the context stops the batch between files.
func (e *Engine) ScanSource(ctx context.Context, src config.ScanSource) (*Result, error) {
	files, err := e.discover(src.Path)
	if err != nil {
		return nil, err
	}
	e.log.Debug("scanning source", "path", src.Path, "files", len(files), "type", src.MediaType)

	forced := src.ForcedType()
	resolutions := make([]resolution, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolutions[i] = e.resolveFile(gctx, file, forced)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Planning is sequential and ordered: collision divergence depends
	// on which entry claims a destination first.
	p := planner.New(src.MoviesOutput, src.TVShowsOutput, planner.Options{
		SuffixThe: e.suffixThe,
		Stat:      e.stat,
		Logger:    e.log,
	})

	result := &Result{Entries: make([]types.SortPlanEntry, 0, len(files))}
	for i, file := range files {
		var entry types.SortPlanEntry
		if res := resolutions[i]; res.err != nil {
			e.log.Warn("unresolved", "file", filepath.Base(file), "reason", res.err)
			entry = planner.SkipUnresolved(file, res.err.Error())
		} else {
			entry = p.Plan(file, res.match)
		}

		switch entry.Action {
		case types.ActionMove, types.ActionRename:
			result.Summary.Resolved++
		case types.ActionSkipCollision:
			result.Summary.Collisions++
		case types.ActionSkipUnresolved:
			result.Summary.Unresolved++
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// Scan plans every source of the configuration, concatenating the
// per-source plans in configuration order.
func (e *Engine) Scan(ctx context.Context, sources []config.ScanSource) (*Result, error) {
	combined := &Result{}
	for _, src := range sources {
		res, err := e.ScanSource(ctx, src)
		if err != nil {
			return nil, err
		}
		combined.Entries = append(combined.Entries, res.Entries...)
		combined.Summary.Resolved += res.Summary.Resolved
		combined.Summary.Collisions += res.Summary.Collisions
		combined.Summary.Unresolved += res.Summary.Unresolved
	}
	return combined, nil
}

// resolveFile runs parse → classify → resolve for a single file. All
// failures are contained here and reported on the plan entry.
func (e *Engine) resolveFile(ctx context.Context, file string, forced types.MediaType) resolution {
	var cand types.ParsedCandidate
	if forced == types.MediaTypeTV {
		cand = parser.ParseForced(file)
	} else {
		cand = parser.Parse(file)
	}

	mediaType, match, err := classify.Classify(ctx, cand, forced, e.resolver)
	if err != nil {
		return resolution{err: err}
	}
	if match != nil {
		return resolution{match: match}
	}

	match, err = e.resolver.Resolve(ctx, cand, mediaType)
	if err != nil {
		return resolution{err: err}
	}
	return resolution{match: match}
}

// discover lists the media files under root in deterministic walk
// order. A root that is itself a media file yields a single entry.
func (e *Engine) discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if e.isMedia(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (e *Engine) isMedia(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	if len(e.extensions) == 0 {
		return true
	}
	_, ok := e.extensions[ext]
	return ok
}
