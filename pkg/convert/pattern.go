package convert

import (
	"regexp"
	"strings"
)

// pattern is one compiled temp-table name pattern.
type pattern struct {
	source string
	re     *regexp.Regexp
}

// compilePatterns compiles glob-like patterns into anchored,
// case-insensitive regular expressions: '*' becomes '.*', '?' becomes '.',
// everything else (the temp marker included) is literal.
func compilePatterns(sources []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(sources))
	for _, src := range sources {
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			return nil, &ConfigError{
				Field:   "temp table pattern",
				Value:   src,
				Message: "pattern is empty",
			}
		}

		var sb strings.Builder
		sb.WriteString("(?i)^")
		for _, r := range trimmed {
			switch r {
			case '*':
				sb.WriteString(".*")
			case '?':
				sb.WriteString(".")
			default:
				sb.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		sb.WriteString("$")

		re, err := regexp.Compile(sb.String())
		if err != nil {
			return nil, &ConfigError{
				Field:   "temp table pattern",
				Value:   src,
				Message: err.Error(),
			}
		}
		patterns = append(patterns, pattern{source: trimmed, re: re})
	}
	return patterns, nil
}

// matchAny reports whether name satisfies at least one pattern.
func matchAny(patterns []pattern, name string) bool {
	for _, p := range patterns {
		if p.re.MatchString(name) {
			return true
		}
	}
	return false
}

// cteNameFor derives the CTE name for a temp-table name: the leading run
// of temp markers is stripped and dots become underscores.
func cteNameFor(name string) string {
	trimmed := strings.TrimLeft(name, "#")
	if trimmed == "" {
		trimmed = name
	}
	return strings.ReplaceAll(trimmed, ".", "_")
}
