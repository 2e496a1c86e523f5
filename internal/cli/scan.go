package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/mydehq/mediasort/internal/cache"
	"github.com/mydehq/mediasort/internal/config"
	"github.com/mydehq/mediasort/internal/mover"
	"github.com/mydehq/mediasort/internal/overrides"
	"github.com/mydehq/mediasort/internal/provider"
	"github.com/mydehq/mediasort/internal/resolver"
	"github.com/mydehq/mediasort/internal/sorter"
	"github.com/mydehq/mediasort/internal/types"
)

var (
	flagCommit   bool
	flagType     string
	flagTVOut    string
	flagMovieOut string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Plan (and optionally commit) a sorting run",
	Long: "Scans the configured sources, or the given path, and prints the\n" +
		"resulting sort plan. Nothing is touched unless --commit is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&flagCommit, "commit", false, "apply the plan instead of only printing it")
	scanCmd.Flags().StringVar(&flagType, "type", "auto", "force the media type for an explicit path (auto, tv, movie)")
	scanCmd.Flags().StringVar(&flagTVOut, "tv-output", "", "TV shows output root for an explicit path")
	scanCmd.Flags().StringVar(&flagMovieOut, "movie-output", "", "movies output root for an explicit path")
	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", "path", path)

	sources := cfg.ScanSources
	if len(args) == 1 {
		switch flagType {
		case "auto", "tv", "movie":
		default:
			return fmt.Errorf("invalid --type %q (want auto, tv or movie)", flagType)
		}
		sources = []config.ScanSource{{
			Path:          args[0],
			MediaType:     flagType,
			TVShowsOutput: flagTVOut,
			MoviesOutput:  flagMovieOut,
		}}
	}
	if len(sources) == 0 {
		return fmt.Errorf("nothing to scan: no scan_sources configured and no path given")
	}

	if err := registerProviders(cfg); err != nil {
		return err
	}
	if err := checkCapabilities(sources); err != nil {
		return err
	}

	table, err := overrides.Load(cfg.SearchOverrides)
	if err != nil {
		return fmt.Errorf("failed to load search overrides: %w", err)
	}

	lookupCache, err := cache.Load(cfg.CachePath)
	if err != nil {
		logger.Warn("metadata cache unavailable", "err", err)
	}

	res := resolver.New(provider.All(), table, resolver.Options{
		MinScore: cfg.Parameters.MinScore,
		Cache:    lookupCache,
		Logger:   logger,
	})

	engine := sorter.New(res, sorter.Options{
		Extensions:  cfg.Parameters.ValidExtensions,
		Concurrency: cfg.Parameters.Concurrency,
		SuffixThe:   cfg.Parameters.SuffixThe,
		Logger:      logger,
	})

	result, err := scanWithSpinner(cmd.Context(), engine, sources)
	if err != nil {
		return err
	}
	if err := lookupCache.Save(); err != nil {
		logger.Warn("metadata cache not saved", "err", err)
	}

	printPlan(result)

	if !flagCommit {
		return nil
	}
	return commitPlan(cmd, cfg, sources, result)
}

// scanWithSpinner runs the engine over all sources behind a spinner.
func scanWithSpinner(ctx context.Context, engine *sorter.Engine, sources []config.ScanSource) (*sorter.Result, error) {
	var result *sorter.Result
	var scanErr error

	err := spinner.New().
		Title(StyleDim.Render("Resolving metadata")).
		Action(func() {
			result, scanErr = engine.Scan(ctx, sources)
		}).
		Run()
	if err != nil {
		return nil, err
	}
	return result, scanErr
}

func printPlan(result *sorter.Result) {
	fmt.Println(StyleHeader.Render("Sort plan"))
	for _, entry := range result.Entries {
		switch entry.Action {
		case types.ActionMove, types.ActionRename:
			fmt.Printf(" %s %s\n   %s %s %s\n",
				StyleAction.Render(string(entry.Action)),
				StylePath.Render(entry.Source),
				StyleDim.Render("->"),
				StylePath.Render(entry.Destination),
				StyleDim.Render(fmt.Sprintf("(score %.2f)", entry.Score)),
			)
		default:
			fmt.Printf(" %s %s\n   %s\n",
				StyleSkip.Render(string(entry.Action)),
				StylePath.Render(entry.Source),
				StyleDim.Render(entry.Reason),
			)
		}
	}
	fmt.Printf("\n%s %d resolved, %d collisions, %d unresolved\n",
		StyleHeader.Render("Summary:"),
		result.Summary.Resolved,
		result.Summary.Collisions,
		result.Summary.Unresolved,
	)
}

// commitPlan hands the plan to the mover, source by source so per-source
// transfer modes and options apply.
func commitPlan(cmd *cobra.Command, cfg *config.Config, sources []config.ScanSource, result *sorter.Result) error {
	moved, failed := 0, 0
	for _, entry := range result.Entries {
		src := sourceFor(sources, entry.Source)
		m := mover.New(src.TransferMode(), src.MoveOptionsOrDefault(cfg.Options), logger)

		outcome, err := m.Apply(cmd.Context(), entry)
		switch outcome.Status {
		case types.MoveStatusMoved:
			moved++
		case types.MoveStatusFailed:
			failed++
		}
		if err != nil && cmd.Context().Err() != nil {
			return err
		}
	}

	logger.Info("commit finished", "moved", moved, "failed", failed)
	return nil
}

// sourceFor maps a planned file back to the scan source it came from.
// The match is on a path-separator boundary so a source path that is a
// string prefix of another ("/data/a" vs "/data/ab") never claims the
// other's files.
func sourceFor(sources []config.ScanSource, file string) config.ScanSource {
	for _, src := range sources {
		if file == src.Path || strings.HasPrefix(file, src.Path+string(filepath.Separator)) {
			return src
		}
	}
	return sources[0]
}
