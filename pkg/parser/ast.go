package parser

import (
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/token"
)

// Kind classifies a statement by its leading structure.
type Kind int

const (
	KindOther Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCreate
	KindDrop
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindCreate:
		return "create"
	case KindDrop:
		return "drop"
	default:
		return "other"
	}
}

// CanCarryWith reports whether a WITH clause may prefix this statement kind.
func (k Kind) CanCarryWith() bool {
	switch k {
	case KindSelect, KindInsert, KindUpdate, KindDelete:
		return true
	}
	return false
}

// Statement is the structural view of one split statement. All spans and
// offsets index into Raw.Text. Anything the parser does not model stays
// byte-exact inside that text and round-trips untouched.
type Statement struct {
	Raw    RawStatement
	Tokens []token.Token

	Kind   Kind
	With   *WithClause
	Into   *IntoClause
	Create *CreateTable
	Insert *InsertInto
	Drop   *DropTable

	// Refs lists every dotted identifier chain in the statement in source
	// order. Reference detection and rewriting work off this list rather
	// than clause positions, so names inside subqueries, joins, and
	// expressions are all covered.
	Refs []TableRef
}

// WithClause records an existing WITH prologue on the statement.
type WithClause struct {
	Recursive bool
	Names     []string
	// InsertOffset is the byte offset immediately after WITH [RECURSIVE]
	// where additional CTE definitions can be spliced in.
	InsertOffset int
}

// IntoClause records the INTO target of a SELECT ... INTO statement.
type IntoClause struct {
	Target TableRef
	// Clause spans from the end of the token preceding INTO through the
	// end of the target, so excising it leaves a single separating space.
	Clause token.Span
}

// CreateTable records the shape of a CREATE TABLE statement.
type CreateTable struct {
	Temp        bool // TEMP, TEMPORARY, or GLOBAL/LOCAL TEMPORARY was written
	IfNotExists bool
	Target      TableRef
	// Body spans the defining query after AS, unwrapped from one level of
	// parentheses when they enclose the whole query. Valid only when
	// HasBody is set.
	Body    token.Span
	HasBody bool
}

// InsertInto records an INSERT statement's target and source body.
type InsertInto struct {
	Target TableRef
	// Body spans the source (SELECT, VALUES, or parenthesized query)
	// following the target and optional column list.
	Body token.Span
}

// DropTable records the targets of a DROP TABLE statement.
type DropTable struct {
	IfExists bool
	Targets  []TableRef
}

// TableRef is one dotted identifier chain (`users`, `dbo.#t`, `[s].[t]`)
// as written. Parts holds the identifier tokens; the separating dots are
// implied. Span covers the full chain within the statement text.
type TableRef struct {
	Parts []token.Token
	Span  token.Span
}

// Name returns the decoded dotted name, e.g. `dbo.#orders`.
func (r TableRef) Name() string {
	return r.PrefixName(len(r.Parts))
}

// PrefixName returns the decoded dotted name of the first n parts.
func (r TableRef) PrefixName(n int) string {
	parts := make([]string, 0, n)
	for _, p := range r.Parts[:n] {
		parts = append(parts, p.Literal)
	}
	return strings.Join(parts, ".")
}

// PrefixSpan returns the byte span covering the first n parts.
func (r TableRef) PrefixSpan(n int) token.Span {
	return token.Span{Start: r.Parts[0].Pos.Offset, End: r.Parts[n-1].End}
}

// PrefixQuoted reports whether any of the first n parts is quoted.
func (r TableRef) PrefixQuoted(n int) bool {
	for _, p := range r.Parts[:n] {
		if p.Quote != 0 {
			return true
		}
	}
	return false
}
