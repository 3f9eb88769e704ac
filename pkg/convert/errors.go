package convert

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/token"
)

// ConfigError reports invalid conversion options: an unknown dialect, a
// malformed temp-table pattern, or a negative indent width.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// SyntaxError reports input SQL that could not be tokenized or split into
// statements. It wraps the underlying parser or lexer error and carries
// its position when one was derivable.
type SyntaxError struct {
	Pos token.Position
	Err error
}

func (e *SyntaxError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("syntax error at %s: %v", e.Pos, e.Err)
	}
	return fmt.Sprintf("syntax error: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// CycleError reports a circular dependency between temp tables. Cycle
// holds the full path, first table repeated at the end.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// CollisionError reports a CTE name clash: two distinct temp-table names
// deriving the same CTE name, or a derived name the script already uses
// for a CTE of its own.
type CollisionError struct {
	CTEName string
	Names   []string
	// Existing marks a clash with a CTE already present in the script
	// rather than between two temp tables.
	Existing bool
}

func (e *CollisionError) Error() string {
	if e.Existing {
		return fmt.Sprintf("temp table %s derives the CTE name %q, which the script already defines as a CTE; rename one of them",
			strings.Join(e.Names, " and "), e.CTEName)
	}
	return fmt.Sprintf("temp tables %s all derive the CTE name %q; rename one of them",
		strings.Join(e.Names, " and "), e.CTEName)
}

// UndefinedTempError reports a reference to a name that matches a temp
// pattern but was never defined in the script. Context names where the
// reference was found: a statement index or the temp table whose
// definition contains it.
type UndefinedTempError struct {
	Name    string
	Context string
}

func (e *UndefinedTempError) Error() string {
	return fmt.Sprintf("temp table %s is referenced in %s but never defined", e.Name, e.Context)
}

// ConvertError wraps any other failure during detection, rewriting, or
// assembly with the stage and, when known, the temp table involved.
type ConvertError struct {
	Stage string
	Table string
	Err   error
}

func (e *ConvertError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s failed for temp table %s: %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }
