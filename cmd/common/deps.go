// Package common holds the dependencies shared by every command.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/config"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

var (
	// Debug enables debug logging for all commands.
	Debug bool

	// Version is set at build time with -ldflags "-X ...common.Version=...".
	Version = "dev"
)

// NewCommandDeps loads the configuration from viper and creates the logger.
// Validation is left to the command.
func NewCommandDeps() (bootstrap.Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return bootstrap.Deps{}, fmt.Errorf("load config: %w", err)
	}

	if Debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return bootstrap.Deps{}, fmt.Errorf("create logger: %w", err)
	}

	return bootstrap.Deps{Config: cfg, Logger: log, Version: Version}, nil
}
