package convert

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
)

// Default option values.
const (
	DefaultDialect     = dialect.DefaultName
	DefaultIndentWidth = 4
)

// DefaultTempTablePatterns matches any name carrying the temp marker prefix.
var DefaultTempTablePatterns = []string{"#*"}

// Options configures a conversion.
type Options struct {
	// Dialect names the SQL dialect to tokenize with. Empty selects ansi.
	Dialect string

	// TempTablePatterns are glob-like patterns a table name must match to
	// be treated as a temp table: '*' matches any run of characters, '?'
	// matches one character, everything else is literal. Matching is
	// case-insensitive and anchored. Empty selects ["#*"].
	TempTablePatterns []string

	// IndentWidth is the number of spaces CTE bodies are indented by.
	// Must be >= 0. Zero is honored; the default applies only through
	// DefaultOptions.
	IndentWidth int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Dialect:           DefaultDialect,
		TempTablePatterns: DefaultTempTablePatterns,
		IndentWidth:       DefaultIndentWidth,
	}
}

// resolve validates the options and fills in defaults, returning the
// compiled form a Converter runs with.
func (o Options) resolve() (*dialect.Dialect, []pattern, int, error) {
	name := o.Dialect
	if strings.TrimSpace(name) == "" {
		name = DefaultDialect
	}
	d, ok := dialect.Get(name)
	if !ok {
		return nil, nil, 0, &ConfigError{
			Field:   "dialect",
			Value:   o.Dialect,
			Message: fmt.Sprintf("supported dialects are %s", strings.Join(dialect.List(), ", ")),
		}
	}

	raw := o.TempTablePatterns
	if len(raw) == 0 {
		raw = DefaultTempTablePatterns
	}
	patterns, err := compilePatterns(raw)
	if err != nil {
		return nil, nil, 0, err
	}

	if o.IndentWidth < 0 {
		return nil, nil, 0, &ConfigError{
			Field:   "indent width",
			Value:   fmt.Sprintf("%d", o.IndentWidth),
			Message: "must be zero or positive",
		}
	}

	return d, patterns, o.IndentWidth, nil
}
