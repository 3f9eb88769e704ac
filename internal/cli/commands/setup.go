// Package commands implements the cteshift subcommands.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/cteshift/internal/cli/config"
	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/convert"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Converter *convert.Converter
	Renderer  *output.Renderer
}

// NewCommandContext builds the shared dependencies of a command,
// including a converter for the configured options.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc := NewCommandContextWithoutConverter(cmd)
	conv, err := convert.New(cc.Cfg.ConvertOptions())
	if err != nil {
		return nil, err
	}
	cc.Converter = conv
	return cc, nil
}

// NewCommandContextWithoutConverter builds a CommandContext without a
// converter. Useful for commands that never touch SQL.
func NewCommandContextWithoutConverter(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back
// to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	patterns := convert.DefaultTempTablePatterns
	if raw := os.Getenv("CTESHIFT_TEMP_TABLE_PATTERNS"); raw != "" {
		patterns = strings.Split(raw, ",")
	}

	return &config.Config{
		Dialect:           getEnvOrDefault("CTESHIFT_DIALECT", config.DefaultDialect),
		TempTablePatterns: patterns,
		IndentWidth:       config.DefaultIndentWidth,
		Verbose:           os.Getenv("CTESHIFT_VERBOSE") == "true",
		OutputFormat:      getEnvOrDefault("CTESHIFT_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
