package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mydehq/mediasort/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	RootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil {
		overwrite := false
		if err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("\nOverwrite %s?", path)).
			Value(&overwrite).
			Run(); err != nil {
			return handleAbort(err)
		}
		if !overwrite {
			logger.Info(StyleDim.Render("Init cancelled"))
			return nil
		}
	}

	cfg := config.Default()

	var (
		tmdbKey   string
		scanPath  string
		mediaType = "auto"
		tvOutput  string
		movieOut  string
		transfer  = "move"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("TMDB API key").
				Description("\nOptional. Leave empty to use TVMaze only (TV shows)").
				Value(&tmdbKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Scan directory").
				Description("\nDirectory holding the files to sort").
				Value(&scanPath).
				Validate(validateRequired),
			huh.NewSelect[string]().
				Title("Media type").
				Description("\nForce a type for this directory, or detect per file").
				Options(
					huh.NewOption("Detect automatically", "auto"),
					huh.NewOption("TV shows", "tv"),
					huh.NewOption("Movies", "movie"),
				).
				Value(&mediaType),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("TV shows library root").
				Description("\nWhere sorted episodes land, e.g. /srv/media/tv").
				Value(&tvOutput),
			huh.NewInput().
				Title("Movies library root").
				Description("\nWhere sorted movies land, e.g. /srv/media/movies").
				Value(&movieOut),
			huh.NewSelect[string]().
				Title("Transfer mode").
				Options(
					huh.NewOption("Move", "move"),
					huh.NewOption("Copy", "copy"),
					huh.NewOption("Hardlink", "hardlink"),
					huh.NewOption("Symlink", "symlink"),
				).
				Value(&transfer),
		),
	)

	if err := form.Run(); err != nil {
		return handleAbort(err)
	}

	if key := strings.TrimSpace(tmdbKey); key != "" {
		for i := range cfg.APIs {
			if cfg.APIs[i].Name == "tmdb" {
				cfg.APIs[i].Key = key
			}
		}
	}
	cfg.ScanSources = []config.ScanSource{{
		Path:          strings.TrimSpace(scanPath),
		MediaType:     mediaType,
		TVShowsOutput: strings.TrimSpace(tvOutput),
		MoviesOutput:  strings.TrimSpace(movieOut),
		Transfer:      transfer,
	}}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Info(fmt.Sprintf("%s %s", StyleHeader.Render("Created config:"), StylePath.Render(path)))
	return nil
}

// handleAbort turns a user abort into a clean exit.
func handleAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		logger.Info(StyleDim.Render("Init cancelled"))
		os.Exit(0)
	}
	return err
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}
