// Package convert rewrites SQL scripts that build session-scoped temp
// tables into a single statement using common table expressions.
//
// The engine recognizes three creation idioms (SELECT ... INTO #t,
// CREATE TEMP TABLE ... AS SELECT, and CREATE TEMP TABLE followed by
// INSERT INTO), builds the dependency graph between the detected tables,
// orders them topologically, rewrites every reference to the derived CTE
// names, and assembles a WITH prologue onto the remaining statements.
// A conversion is a pure function of its input: nothing is cached or
// shared between calls, and identical input with identical options yields
// byte-identical output.
package convert

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/leapstack-labs/cteshift/pkg/parser"
)

// Result is the outcome of one conversion.
type Result struct {
	// SQL is the rewritten script. When the input contains no temp-table
	// idioms it is the input, unchanged.
	SQL string
	// CTENames lists the emitted CTE names in definition order.
	CTENames []string
	// TempTables counts the temp tables converted.
	TempTables int
	// Warnings carries non-fatal findings, such as a name defined twice.
	Warnings []string
}

// Converter converts scripts under one fixed set of options. It holds no
// per-conversion state and is safe for concurrent use.
type Converter struct {
	dialect     *dialect.Dialect
	patterns    []pattern
	indentWidth int
}

// New validates the options and builds a Converter. A zero Options value
// resolves the dialect and patterns to their defaults but keeps an indent
// width of zero; start from DefaultOptions for the default indent.
func New(opts Options) (*Converter, error) {
	d, patterns, indent, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	return &Converter{dialect: d, patterns: patterns, indentWidth: indent}, nil
}

// Convert is a convenience wrapper building a one-shot Converter.
// Options resolve the same way New resolves them.
func Convert(sql string, opts Options) (string, error) {
	c, err := New(opts)
	if err != nil {
		return "", err
	}
	res, err := c.Convert(sql)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

// Convert rewrites one script. Errors abort the whole conversion; no
// partial output is produced.
func (c *Converter) Convert(sql string) (*Result, error) {
	raws, err := parser.Split(sql, c.dialect)
	if err != nil {
		return nil, wrapSyntax(err)
	}

	stmts := make([]*parser.Statement, len(raws))
	for i, raw := range raws {
		stmt, perr := parser.Parse(raw, c.dialect)
		if perr != nil {
			return nil, wrapSyntax(perr)
		}
		stmts[i] = stmt
	}

	det, err := detect(stmts, c.patterns)
	if err != nil {
		return nil, err
	}
	if len(det.order) == 0 {
		// No temp-table idioms: the script passes through unchanged.
		return &Result{SQL: sql}, nil
	}

	if err := det.resolveDeps(c); err != nil {
		return nil, err
	}

	ordered, err := newGraph(det).order()
	if err != nil {
		return nil, err
	}

	bodies := make(map[string]string, len(ordered))
	orderedDefs := make([]*TempTable, 0, len(ordered))
	names := make([]string, 0, len(ordered))
	for _, k := range ordered {
		tt := det.defs[k]
		body, rerr := c.rewriteBody(tt, tt.refs, det.defs)
		if rerr != nil {
			return nil, rerr
		}
		bodies[k] = body
		orderedDefs = append(orderedDefs, tt)
		names = append(names, tt.CTEName)
	}

	retained, err := c.retainStatements(stmts, det)
	if err != nil {
		return nil, err
	}

	out, err := c.assemble(orderedDefs, bodies, retained)
	if err != nil {
		return nil, err
	}
	return &Result{
		SQL:        out,
		CTENames:   names,
		TempTables: len(orderedDefs),
		Warnings:   det.warnings,
	}, nil
}

// retainStatements rewrites every non-defining statement. DROP TABLE
// statements lose the targets that became CTEs; a DROP whose every target
// converted is elided entirely, since a CTE has no lifecycle to end.
func (c *Converter) retainStatements(stmts []*parser.Statement, det *detection) ([]retainedStmt, error) {
	var retained []retainedStmt
	for i, stmt := range stmts {
		if det.defining[i] {
			continue
		}

		if stmt.Drop != nil {
			text, keep := c.stripDroppedTemps(stmt, det)
			if !keep {
				continue
			}
			retained = append(retained, retainedStmt{stmt: stmt, text: text})
			continue
		}

		text, err := c.rewriteText(stmt.Raw.Text, stmt.Refs, det.defs, fmt.Sprintf("statement %d", i+1))
		if err != nil {
			return nil, err
		}
		retained = append(retained, retainedStmt{stmt: stmt, text: text})
	}
	return retained, nil
}

// stripDroppedTemps removes converted temp tables from a DROP TABLE
// target list. It reports keep=false when nothing is left to drop.
func (c *Converter) stripDroppedTemps(stmt *parser.Statement, det *detection) (string, bool) {
	var kept []parser.TableRef
	for _, target := range stmt.Drop.Targets {
		if defKey, _, _ := resolveRef(target, det.defs, c.patterns); defKey != "" {
			continue
		}
		kept = append(kept, target)
	}
	if len(kept) == 0 {
		return "", false
	}
	if len(kept) == len(stmt.Drop.Targets) {
		return stmt.Raw.Text, true
	}

	text := stmt.Raw.Text
	first := stmt.Drop.Targets[0].Span.Start
	last := stmt.Drop.Targets[len(stmt.Drop.Targets)-1].Span.End
	names := make([]string, 0, len(kept))
	for _, target := range kept {
		names = append(names, text[target.Span.Start:target.Span.End])
	}
	return text[:first] + strings.Join(names, ", ") + text[last:], true
}

// wrapSyntax classifies parser and lexer failures as syntax errors,
// keeping the position when one was derivable.
func wrapSyntax(err error) error {
	switch e := err.(type) {
	case *parser.ParseError:
		return &SyntaxError{Pos: e.Pos, Err: err}
	case *parser.LexError:
		return &SyntaxError{Pos: e.Pos, Err: err}
	default:
		return &SyntaxError{Err: err}
	}
}
