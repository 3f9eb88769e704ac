package convert

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/parser"
	"github.com/leapstack-labs/cteshift/pkg/token"
)

// CreationKind identifies which idiom defined a temp table.
type CreationKind int

const (
	// SelectInto is SELECT <cols> INTO <name> FROM <rest>.
	SelectInto CreationKind = iota
	// CreateAs is CREATE TEMP TABLE <name> AS <select>.
	CreateAs
	// CreateThenInsert is CREATE TEMP TABLE <name> followed by
	// INSERT INTO <name> <select>.
	CreateThenInsert
)

// String returns the kind as it is shown in diagnostics.
func (k CreationKind) String() string {
	switch k {
	case SelectInto:
		return "select-into"
	case CreateAs:
		return "create-as"
	case CreateThenInsert:
		return "create-then-insert"
	default:
		return "unknown"
	}
}

// TempTable is one recognized temp-table definition.
type TempTable struct {
	// Name is the temp table's name as first written, decoded ("#orders").
	Name string
	// CTEName is the derived CTE name ("orders").
	CTEName string
	// Kind is the creation idiom that supplied the definition.
	Kind CreationKind
	// Body is the defining query's text, cut from the original statement.
	Body string
	// Deps holds the keys of other temp tables the body references,
	// self-reference excluded.
	Deps []string
	// Order is the index of first appearance among temp tables.
	Order int
	// Statements are the indexes of the defining statements: one, or two
	// for the create-then-insert pair.
	Statements []int

	refs []parser.TableRef // dotted chains in Body, parsed once
}

// key returns the canonical map key for a temp-table name. Matching
// between definition and reference is case-insensitive.
func key(name string) string {
	return strings.ToLower(name)
}

// detection is the outcome of scanning a script's statements.
type detection struct {
	defs     map[string]*TempTable
	order    []string // keys in order of first appearance
	defining map[int]bool
	warnings []string
}

// detect walks parsed statements and recognizes the three temp-table
// creation idioms, trying them in order per statement. A CREATE without a
// defining query stays pending until the next INSERT INTO the same name;
// another temp creation or end of script before that INSERT leaves the
// table without a definition, which is an error rather than a silent drop.
func detect(stmts []*parser.Statement, patterns []pattern) (*detection, error) {
	det := &detection{
		defs:     make(map[string]*TempTable),
		defining: make(map[int]bool),
	}

	var pending *TempTable
	pendingKey := ""

	abandonPending := func() error {
		if pending == nil {
			return nil
		}
		return &ConvertError{
			Stage: "detection",
			Table: pending.Name,
			Err:   fmt.Errorf("created without a defining query and never populated by INSERT INTO"),
		}
	}

	for i, stmt := range stmts {
		switch {
		case stmt.Into != nil && matchAny(patterns, stmt.Into.Target.Name()):
			if err := abandonPending(); err != nil {
				return nil, err
			}
			pending = nil
			det.add(&TempTable{
				Name:       stmt.Into.Target.Name(),
				Kind:       SelectInto,
				Body:       exciseInto(stmt),
				Statements: []int{i},
			})

		case stmt.Create != nil && matchAny(patterns, stmt.Create.Target.Name()):
			if err := abandonPending(); err != nil {
				return nil, err
			}
			pending = nil
			tt := &TempTable{
				Name:       stmt.Create.Target.Name(),
				Statements: []int{i},
			}
			if stmt.Create.HasBody {
				tt.Kind = CreateAs
				tt.Body = bodyText(stmt, stmt.Create.Body)
				det.add(tt)
				continue
			}
			tt.Kind = CreateThenInsert
			pending = tt
			pendingKey = key(tt.Name)
			det.defining[i] = true

		case stmt.Insert != nil && pending != nil && key(stmt.Insert.Target.Name()) == pendingKey:
			pending.Body = bodyText(stmt, stmt.Insert.Body)
			pending.Statements = append(pending.Statements, i)
			det.add(pending)
			pending = nil
		}
	}
	if err := abandonPending(); err != nil {
		return nil, err
	}

	if err := det.checkCollisions(); err != nil {
		return nil, err
	}
	if err := det.checkExistingCTEs(stmts); err != nil {
		return nil, err
	}
	return det, nil
}

// add records a definition, keeping first-appearance order and surfacing
// redefinition as a warning. A later definition overwrites the earlier
// one; every defining statement is removed from the main query either way.
func (d *detection) add(tt *TempTable) {
	for _, idx := range tt.Statements {
		d.defining[idx] = true
	}

	k := key(tt.Name)
	if prev, ok := d.defs[k]; ok {
		d.warnings = append(d.warnings, fmt.Sprintf(
			"temp table %s is defined more than once; the later definition wins", prev.Name))
		tt.Order = prev.Order
		tt.Name = prev.Name
		tt.Statements = append(prev.Statements, tt.Statements...)
		d.defs[k] = tt
		tt.CTEName = cteNameFor(tt.Name)
		return
	}

	tt.Order = len(d.order)
	tt.CTEName = cteNameFor(tt.Name)
	d.defs[k] = tt
	d.order = append(d.order, k)
}

// checkCollisions reports two distinct names deriving the same CTE name.
func (d *detection) checkCollisions() error {
	byCTE := make(map[string][]string)
	for _, k := range d.order {
		tt := d.defs[k]
		byCTE[strings.ToLower(tt.CTEName)] = append(byCTE[strings.ToLower(tt.CTEName)], tt.Name)
	}
	for _, k := range d.order {
		tt := d.defs[k]
		if names := byCTE[strings.ToLower(tt.CTEName)]; len(names) > 1 {
			return &CollisionError{CTEName: tt.CTEName, Names: names}
		}
	}
	return nil
}

// checkExistingCTEs reports a derived CTE name that a retained statement
// already defines in its own WITH clause. The converted CTEs get
// prepended into that clause at assembly, so the clash would put two
// definitions of the same name into one WITH. CTE names resolve
// case-insensitively, so the comparison is too.
func (d *detection) checkExistingCTEs(stmts []*parser.Statement) error {
	byCTE := make(map[string]*TempTable, len(d.order))
	for _, k := range d.order {
		tt := d.defs[k]
		byCTE[strings.ToLower(tt.CTEName)] = tt
	}
	for i, stmt := range stmts {
		if d.defining[i] || stmt.With == nil {
			continue
		}
		for _, name := range stmt.With.Names {
			if tt, ok := byCTE[strings.ToLower(name)]; ok {
				return &CollisionError{
					CTEName:  tt.CTEName,
					Names:    []string{tt.Name},
					Existing: true,
				}
			}
		}
	}
	return nil
}

// resolveDeps parses each definition body and records which other temp
// tables it references. Bodies are parsed standalone; their refs are
// prefix-matched the same way the rewriter matches them, so a dependency
// through a qualified column reference still counts. Self-reference is
// excluded by construction.
func (d *detection) resolveDeps(c *Converter) error {
	for _, k := range d.order {
		tt := d.defs[k]
		refs, err := c.bodyRefs(tt)
		if err != nil {
			return err
		}
		tt.refs = refs

		seen := make(map[string]bool)
		for _, ref := range refs {
			defKey, _, undefined := resolveRef(ref, d.defs, c.patterns)
			if undefined != "" {
				return &UndefinedTempError{
					Name:    undefined,
					Context: fmt.Sprintf("the definition of %s", tt.Name),
				}
			}
			if defKey == "" || defKey == k || seen[defKey] {
				continue
			}
			seen[defKey] = true
			tt.Deps = append(tt.Deps, defKey)
		}
	}
	return nil
}

// exciseInto returns the statement text with its INTO clause cut out,
// which turns SELECT <cols> INTO <name> FROM <rest> into the definition
// query SELECT <cols> FROM <rest>.
func exciseInto(stmt *parser.Statement) string {
	text := stmt.Raw.Text
	clause := stmt.Into.Clause
	return strings.TrimSpace(trimTerminator(text[:clause.Start] + text[clause.End:]))
}

// bodyText cuts a definition body span out of a statement.
func bodyText(stmt *parser.Statement, span token.Span) string {
	return strings.TrimSpace(trimTerminator(stmt.Raw.Text[span.Start:span.End]))
}

// trimTerminator strips a trailing semicolon and surrounding whitespace.
func trimTerminator(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}
