// Package config reads server configuration from flags and environment
// variables. Environment variables win over flags when both are set.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the loyalty server configuration.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	CardsFile    string `env:"CARDS_FILE"`
	DatabasePath string `env:"DATABASE_PATH"`
}

// Parse reads configuration from command-line flags and environment
// variables. A non-empty DatabasePath selects the SQLite backing
// instead of the XML document file.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envCardsFile := cfg.CardsFile
	envDatabasePath := cfg.DatabasePath

	fs := flag.NewFlagSet("loyalty-server", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	fs.StringVar(&cfg.CardsFile, "f", "bonus_cards.xml", "path to the XML card file")
	fs.StringVar(&cfg.DatabasePath, "d", "", "SQLite database path (overrides the XML file)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envCardsFile != "" {
		cfg.CardsFile = envCardsFile
	}
	if envDatabasePath != "" {
		cfg.DatabasePath = envDatabasePath
	}

	return cfg, nil
}
