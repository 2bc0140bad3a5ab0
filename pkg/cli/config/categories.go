package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// CategoryConfig is the TOML shape of the category table
type CategoryConfig struct {
	Categories []CategoryEntry `toml:"category"`
}

// CategoryEntry is one category declaration. Declaration order in the file
// defines the tie-break priority of keyword matching.
type CategoryEntry struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// Validate checks if the CategoryEntry is valid
func (c *CategoryEntry) Validate() error {
	id := types.CategoryID(c.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category ID")
	}
	if c.Name == "" {
		return goerr.Wrap(ErrMissingName, "category name is required", goerr.V(CategoryIDKey, c.ID))
	}
	if len(c.Keywords) == 0 {
		return goerr.Wrap(ErrMissingKeywords, "category has no keywords", goerr.V(CategoryIDKey, c.ID))
	}
	return nil
}

// Validate checks if the CategoryConfig is valid
func (c *CategoryConfig) Validate() error {
	seen := make(map[string]bool)
	for i, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			return goerr.Wrap(err, "invalid category", goerr.V(CategoryIndexKey, i))
		}
		if seen[cat.ID] {
			return goerr.Wrap(ErrDuplicateCategoryID, "duplicate category", goerr.V(CategoryIDKey, cat.ID))
		}
		seen[cat.ID] = true
	}
	return nil
}

// Categories holds the CLI flag for the category table file
type Categories struct {
	path string
}

// Flags returns CLI flags for category configuration
func (c *Categories) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "categories",
			Usage:       "Path to the category table TOML file (built-in table when omitted)",
			Sources:     cli.EnvVars("MNEMOSYNE_CATEGORIES"),
			Destination: &c.path,
		},
	}
}

// Configure loads the category table. Without a configured path the built-in
// hardware-support taxonomy is used.
func (c *Categories) Configure() ([]model.Category, error) {
	if c.path == "" {
		logging.Default().Info("Using built-in category table")
		return model.DefaultCategories(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "category table missing", goerr.V(ConfigPathKey, c.path))
		}
		return nil, goerr.Wrap(err, "failed to read category table", goerr.V(ConfigPathKey, c.path))
	}

	var cfg CategoryConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, c.path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, c.path))
	}

	categories := make([]model.Category, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		categories[i] = model.Category{
			ID:       types.CategoryID(cat.ID),
			Name:     cat.Name,
			Keywords: cat.Keywords,
			Priority: i,
		}
	}

	logging.Default().Info("Loaded category table",
		"path", c.path,
		"categories", len(categories))

	return categories, nil
}
