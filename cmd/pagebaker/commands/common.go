// Package commands implements the pagebaker subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagebaker/internal/bakerecord"
	"git.home.luguber.info/inful/pagebaker/internal/config"
	"git.home.luguber.info/inful/pagebaker/internal/foundation/errors"
)

// Global is passed to every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagebaker.yaml" env:"PAGEBAKER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Bake    BakeCmd    `cmd:"" default:"1" help:"Bake every page of the site to the output directory"`
	Watch   WatchCmd   `cmd:"" help:"Rebake the site whenever its sources change"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"Show recorded bakes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// parseLogLevel maps --verbose and PAGEBAKER_LOG_LEVEL to a slog level. The
// flag wins over the environment.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("PAGEBAKER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration named by --config and applies the
// output directory override, which is taken relative to the working directory.
func loadConfig(root *CLI, output string) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryValidation, "invalid output directory").
				WithContext("output", output).
				Build()
		}
		cfg.Baker.OutputDir = abs
	}
	return cfg, nil
}

// openRecord opens the bake record when baker.record_path is set. The
// returned store is nil otherwise.
func openRecord(cfg *config.Config) (*bakerecord.SQLiteStore, error) {
	if cfg.Baker.RecordPath == "" {
		return nil, nil
	}
	path := cfg.Resolve(cfg.Baker.RecordPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create record directory").
			WithContext("path", path).
			Build()
	}
	return bakerecord.NewSQLiteStore(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
