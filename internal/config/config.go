// Package config loads the mediasort YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mydehq/mediasort/internal/types"
)

// DefaultRelPath is where the config lives under the user's config dir.
const DefaultRelPath = "mediasort/config.yml"

// Config is the root of the configuration file.
type Config struct {
	// APIs lists the enabled metadata providers in query order.
	APIs []ProviderAPI `yaml:"api"`

	// ScanSources are the directories sorted by a bare "mediasort scan".
	ScanSources []ScanSource `yaml:"scan_sources"`

	// SearchOverrides maps normalized title fragments to corrected
	// search terms, layered over the bundled override table.
	SearchOverrides map[string]string `yaml:"search_overrides,omitempty"`

	Parameters Parameters `yaml:"parameters"`

	// Options are the default move options, overridable per source.
	Options MoveOptions `yaml:"options"`

	// CachePath enables the metadata lookup cache when set.
	CachePath string `yaml:"cache_path,omitempty"`
}

// ProviderAPI configures one metadata provider.
type ProviderAPI struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// ScanSource is one input directory with its outputs.
type ScanSource struct {
	Path string `yaml:"path"`

	// MediaType forces classification for this source: auto, tv, movie.
	MediaType string `yaml:"media_type,omitempty"`

	TVShowsOutput string `yaml:"tv_shows_output,omitempty"`
	MoviesOutput  string `yaml:"movies_output,omitempty"`

	// Transfer selects move, copy, hardlink or symlink.
	Transfer string `yaml:"transfer,omitempty"`

	Options *MoveOptions `yaml:"options,omitempty"`
}

// Parameters tune the pipeline.
type Parameters struct {
	ValidExtensions []string `yaml:"valid_extensions,flow"`

	// MinScore is the resolver confidence threshold (0..1).
	MinScore float64 `yaml:"min_score"`

	// Concurrency caps simultaneous metadata lookups.
	Concurrency int `yaml:"concurrency"`

	// SuffixThe renames "The Wire" directories to "Wire, The".
	SuffixThe bool `yaml:"suffix_the"`
}

// MoveOptions tune how the mover applies a plan entry.
type MoveOptions struct {
	Overwrite bool `yaml:"overwrite"`
	InfoFile  bool `yaml:"infofile"`
	Shasum    bool `yaml:"shasum"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIs: []ProviderAPI{
			{Name: "tvmaze"},
			{Name: "tmdb"},
		},
		Parameters: Parameters{
			ValidExtensions: []string{".avi", ".mkv", ".mp4"},
			MinScore:        0.5,
			Concurrency:     4,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, DefaultRelPath), nil
}

// Load reads the config file at path, layering it over the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (c *Config) applyFallbacks() {
	def := Default()
	if len(c.Parameters.ValidExtensions) == 0 {
		c.Parameters.ValidExtensions = def.Parameters.ValidExtensions
	}
	if c.Parameters.MinScore <= 0 {
		c.Parameters.MinScore = def.Parameters.MinScore
	}
	if c.Parameters.Concurrency <= 0 {
		c.Parameters.Concurrency = def.Parameters.Concurrency
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	for i, src := range c.ScanSources {
		switch src.MediaType {
		case "", "auto", "tv", "movie":
		default:
			return fmt.Errorf("scan_sources[%d]: invalid media_type %q (want auto, tv or movie)", i, src.MediaType)
		}
		switch src.Transfer {
		case "", "move", "copy", "hardlink", "symlink":
		default:
			return fmt.Errorf("scan_sources[%d]: invalid transfer %q", i, src.Transfer)
		}
		if src.Path == "" {
			return fmt.Errorf("scan_sources[%d]: path is required", i)
		}
	}
	if c.Parameters.MinScore > 1 {
		return fmt.Errorf("parameters.min_score must be within (0, 1]")
	}
	return nil
}

// ForcedType maps a source's media_type setting to the pipeline enum.
func (s ScanSource) ForcedType() types.MediaType {
	switch s.MediaType {
	case "tv":
		return types.MediaTypeTV
	case "movie":
		return types.MediaTypeMovie
	default:
		return types.MediaTypeUnknown
	}
}

// TransferMode returns the configured transfer mode, defaulting to copy.
func (s ScanSource) TransferMode() types.Transfer {
	switch s.Transfer {
	case "move":
		return types.TransferMove
	case "hardlink":
		return types.TransferHardlink
	case "symlink":
		return types.TransferSymlink
	default:
		return types.TransferCopy
	}
}

// MoveOptionsOrDefault returns the per-source options if present, else
// the global defaults.
func (s ScanSource) MoveOptionsOrDefault(global MoveOptions) MoveOptions {
	if s.Options != nil {
		return *s.Options
	}
	return global
}
