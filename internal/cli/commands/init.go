package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/partnerlens/partnerlens/internal/cli/config"
	"github.com/partnerlens/partnerlens/internal/cli/output"
)

// scaffoldConfig mirrors the config file layout for the init scaffold.
// Written with yaml tags so the generated file matches what the loader reads.
type scaffoldConfig struct {
	StatePath    string                    `yaml:"state_path"`
	Environment  string                    `yaml:"environment"`
	Output       string                    `yaml:"output"`
	Target       scaffoldTarget            `yaml:"target"`
	Environments map[string]map[string]any `yaml:"environments,omitempty"`
}

type scaffoldTarget struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a partnerlens project",
		Long: `Initialize a partnerlens project with a starter configuration.

This creates:
  - partnerlens.yaml configuration file
  - .partnerlens/ directory for run history

The generated target points at a local postgres database with the password
read from the PARTNERLENS_DB_PASSWORD environment variable.`,
		Example: `  # Initialize in current directory
  partnerlens init

  # Initialize in a new directory
  partnerlens init my-analytics

  # Force overwrite existing config
  partnerlens init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "partnerlens.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("partnerlens.yaml already exists. Use --force to overwrite")
	}

	scaffold := scaffoldConfig{
		StatePath:   config.DefaultStateFile,
		Environment: config.DefaultEnv,
		Output:      config.DefaultOutput,
		Target: scaffoldTarget{
			Type:     "postgres",
			Host:     "localhost",
			Port:     5432,
			Database: "analytics",
			User:     "analytics",
			Password: "${PARTNERLENS_DB_PASSWORD}",
			Schema:   "public",
		},
		Environments: map[string]map[string]any{
			"dev": {
				"target": map[string]any{
					"type": "duckdb",
					"path": "dev.duckdb",
				},
			},
		},
	}

	data, err := yaml.Marshal(&scaffold)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine("partnerlens.yaml", "success", "")

	stateDir := filepath.Join(dir, ".partnerlens")
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", stateDir, err)
	}
	r.StatusLine(".partnerlens/", "success", "")

	r.Println("")
	r.Success("Project initialized")
	r.Println("Next: adjust the target in partnerlens.yaml, then run 'partnerlens doctor'")
	return nil
}
