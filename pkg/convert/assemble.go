package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/parser"
)

// retainedStmt pairs a retained statement with its rewritten text.
type retainedStmt struct {
	stmt *parser.Statement
	text string
}

// assemble emits the converted script: a WITH prologue carrying the
// ordered CTEs, attached to every retained statement that can carry one.
// Statements that already open with WITH get the new CTEs prepended into
// the existing clause, so a pre-existing CTE that reads a temp table still
// finds its dependency defined first.
func (c *Converter) assemble(ordered []*TempTable, bodies map[string]string, retained []retainedStmt) (string, error) {
	prologue := c.cteList(ordered, bodies)

	carriers := 0
	for _, r := range retained {
		if r.stmt.Kind.CanCarryWith() {
			carriers++
		}
	}
	if carriers == 0 {
		return "", &ConvertError{
			Stage: "assembly",
			Err:   errors.New("no statement remains to carry the WITH clause after removing temp-table definitions"),
		}
	}

	parts := make([]string, 0, len(retained))
	for _, r := range retained {
		text := r.text
		switch {
		case !r.stmt.Kind.CanCarryWith():
			// pass through rewritten; a WITH prefix here would be invalid
		case r.stmt.With != nil:
			merged, err := c.mergeWith(text, prologue)
			if err != nil {
				return "", err
			}
			text = merged
		default:
			text = "WITH " + prologue + "\n" + text
		}

		if r.stmt.Raw.Terminated {
			text += ";"
		}
		if r.stmt.Raw.Separator != "" {
			text += "\n" + r.stmt.Raw.Separator
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// cteList renders the ordered CTE definitions as
// "a AS (\n<indent>body\n), b AS (\n<indent>body\n)".
func (c *Converter) cteList(ordered []*TempTable, bodies map[string]string) string {
	indent := strings.Repeat(" ", c.indentWidth)
	items := make([]string, 0, len(ordered))
	for _, tt := range ordered {
		body := indentLines(bodies[key(tt.Name)], indent)
		items = append(items, fmt.Sprintf("%s AS (\n%s\n)", tt.CTEName, body))
	}
	return strings.Join(items, ", ")
}

// mergeWith splices the prologue into a statement's existing WITH clause,
// directly after WITH [RECURSIVE]. The statement text has already been
// rewritten, so the insert offset is recovered from a fresh parse.
func (c *Converter) mergeWith(text, prologue string) (string, error) {
	stmt, err := parser.Parse(parser.RawStatement{Text: text}, c.dialect)
	if err != nil || stmt.With == nil {
		return "", &ConvertError{
			Stage: "assembly",
			Err:   fmt.Errorf("cannot merge CTEs into existing WITH clause: %v", err),
		}
	}
	off := stmt.With.InsertOffset
	return text[:off] + " " + prologue + "," + text[off:], nil
}

// indentLines prefixes every non-empty line with the indent string.
func indentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
