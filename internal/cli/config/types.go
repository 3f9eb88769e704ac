// Package config loads CLI configuration from file, environment, and flags.
package config

import "github.com/leapstack-labs/cteshift/pkg/convert"

// Config holds all CLI configuration options.
type Config struct {
	Dialect           string   `koanf:"dialect"`
	TempTablePatterns []string `koanf:"temp_table_patterns"`
	IndentWidth       int      `koanf:"indent_width"`
	Verbose           bool     `koanf:"verbose"`
	OutputFormat      string   `koanf:"output"`
}

// Default configuration values.
const (
	DefaultDialect     = convert.DefaultDialect
	DefaultIndentWidth = convert.DefaultIndentWidth
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// ConvertOptions translates the CLI configuration into engine options.
func (c *Config) ConvertOptions() convert.Options {
	return convert.Options{
		Dialect:           c.Dialect,
		TempTablePatterns: c.TempTablePatterns,
		IndentWidth:       c.IndentWidth,
	}
}
