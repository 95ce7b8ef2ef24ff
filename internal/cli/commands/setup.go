// Package commands implements the partnerlens subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/adapter"
	"github.com/partnerlens/partnerlens/internal/cli/config"
	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the values the root
// command stored on the context, falling back to the loaded configuration
// when a command runs outside the root (e.g. in tests).
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()

	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = getConfig()
	}

	r := output.FromContext(ctx)
	if r == nil {
		mode := output.Mode(cfg.OutputFormat)
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: r,
	}
}

// AdapterConfig converts the configured target into an adapter config.
func (c *CommandContext) AdapterConfig() adapter.Config {
	t := c.Cfg.Target
	if t == nil {
		return adapter.Config{Type: "duckdb"}
	}
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// WithDB runs fn against a freshly connected adapter and always closes it.
func (c *CommandContext) WithDB(ctx context.Context, fn func(adapter.Adapter) error) error {
	return adapter.WithConnection(ctx, c.AdapterConfig(), c.Logger, fn)
}

// RecordRun wraps a report execution with run-history bookkeeping. History
// is best effort: a broken state database logs a warning and never fails
// the report itself.
func (c *CommandContext) RecordRun(report, params string, fn func() (int64, error)) error {
	store := state.NewSQLiteStore()
	if err := store.Open(c.Cfg.StatePath); err != nil {
		c.Logger.Warn("run history unavailable", slog.String("error", err.Error()))
		store = nil
	} else if err := store.Migrate(); err != nil {
		c.Logger.Warn("run history migration failed", slog.String("error", err.Error()))
		_ = store.Close()
		store = nil
	}

	var run *state.ReportRun
	if store != nil {
		defer func() { _ = store.Close() }()
		var err error
		run, err = store.CreateRun(report, c.Cfg.Environment, params)
		if err != nil {
			c.Logger.Warn("failed to record run", slog.String("error", err.Error()))
			run = nil
		}
	}

	rows, err := fn()

	if store != nil && run != nil {
		status := state.RunStatusSuccess
		errMsg := ""
		if err != nil {
			status = state.RunStatusFailed
			errMsg = err.Error()
		}
		if cerr := store.CompleteRun(run.ID, status, rows, errMsg); cerr != nil {
			c.Logger.Warn("failed to complete run record", slog.String("error", cerr.Error()))
		}
	}

	return err
}

// getConfig returns the current configuration, falling back to environment
// variables when no Load has run (e.g. a command invoked in isolation).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		StatePath:    getEnvOrDefault("PARTNERLENS_STATE_PATH", config.DefaultStateFile),
		Environment:  getEnvOrDefault("PARTNERLENS_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("PARTNERLENS_VERBOSE") == "true",
		OutputFormat: os.Getenv("PARTNERLENS_OUTPUT"),
		Target:       &config.TargetConfig{Type: "duckdb"},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
