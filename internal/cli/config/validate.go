package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/dialect"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if name := strings.TrimSpace(c.Dialect); name != "" {
		if _, ok := dialect.Get(name); !ok {
			return fmt.Errorf("unknown dialect %q\nHint: supported dialects are %s",
				c.Dialect, strings.Join(dialect.List(), ", "))
		}
	}
	if c.IndentWidth < 0 {
		return fmt.Errorf("indent_width must be zero or positive, got %d", c.IndentWidth)
	}
	for _, p := range c.TempTablePatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("temp_table_patterns must not contain blank entries")
		}
	}
	if !output.IsValidMode(c.OutputFormat) {
		return fmt.Errorf("unknown output format %q\nHint: valid formats are %s",
			c.OutputFormat, strings.Join(output.ValidModes, ", "))
	}
	return nil
}
