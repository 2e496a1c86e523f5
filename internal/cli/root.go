// Package cli wires the cobra command surface around the sorting
// pipeline: configuration loading, provider registration, logging and
// the report output.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mydehq/mediasort/internal/config"
	"github.com/mydehq/mediasort/internal/provider"
	"github.com/mydehq/mediasort/internal/types"
)

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	flagConfig  string
	flagVerbose bool
)

// RootCmd is the top-level mediasort command.
var RootCmd = &cobra.Command{
	Use:   "mediasort",
	Short: "Sort loosely-named media files into a canonical library layout",
	Long: "mediasort identifies movies and TV episodes from their filenames,\n" +
		"confirms the identification against metadata services (TMDB, TVMaze)\n" +
		"and files them into a canonical directory layout.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureStyles()
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the configuration file")
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the configured (or default-located) config file. A
// missing file at the default location is not an error; the built-in
// defaults apply. An explicitly given --config must exist.
func loadConfig() (*config.Config, string, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		if flagConfig == "" && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), path, nil
		}
		return nil, path, err
	}
	return cfg, path, nil
}

// registerProviders installs the configured providers into the registry.
func registerProviders(cfg *config.Config) error {
	provider.Reset()
	for _, api := range cfg.APIs {
		switch api.Name {
		case "tmdb":
			provider.Register(provider.NewTMDB(api.Key, api.URL))
		case "tvmaze":
			provider.Register(provider.NewTVMaze(api.URL))
		default:
			return types.ErrProviderNotFound{Name: api.Name}
		}
	}
	return nil
}

// checkCapabilities verifies each domain the run may need is served by
// at least one registered, configured provider. A missing capability
// aborts before any file is processed. A provider without its
// credentials does not count as serving anything.
func checkCapabilities(sources []config.ScanSource) error {
	needsMovie, needsTV := false, false
	for _, src := range sources {
		switch src.ForcedType() {
		case types.MediaTypeMovie:
			needsMovie = true
		case types.MediaTypeTV:
			needsTV = true
		default:
			needsMovie, needsTV = true, true
		}
	}
	if needsMovie && !domainServed(types.MediaTypeMovie) {
		return fmt.Errorf("no configured provider can search movies; add tmdb to the api list and set its api key")
	}
	if needsTV && !domainServed(types.MediaTypeTV) {
		return fmt.Errorf("no configured provider can search tv shows; add tvmaze or tmdb to the api list")
	}
	return nil
}

func domainServed(mediaType types.MediaType) bool {
	for _, p := range provider.ForType(mediaType) {
		if p.Configured() {
			return true
		}
	}
	return false
}
