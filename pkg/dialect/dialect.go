// Package dialect defines the lexical profiles of supported SQL dialects
// and a registry to look them up by name.
//
// A profile describes only what tokenization needs: identifier quoting,
// string literal escaping, comment styles, and batch separation. Statement
// semantics are dialect-independent in this tool.
package dialect

// Dialect holds the static lexical profile for a SQL dialect.
// This is pure data, with no handler functions.
type Dialect struct {
	// Name is the canonical dialect identifier (e.g. "tsql", "postgres")
	Name string

	// IdentQuotes lists the identifier quoting styles, in scan order.
	// T-SQL carries two: "name" and [name].
	IdentQuotes []QuotePair

	// StringQuotes lists the characters that open a string literal.
	// Always includes '\''; MySQL and BigQuery add '"'.
	StringQuotes []byte

	// BackslashEscapes reports whether backslash escapes apply inside
	// string literals (MySQL, BigQuery). Doubling is always honored.
	BackslashEscapes bool

	// LineComments lists line comment openers ("--" everywhere,
	// plus "#" for MySQL and "//" for Snowflake).
	LineComments []string

	// NestedBlockComments reports whether /* */ comments nest (PostgreSQL).
	NestedBlockComments bool

	// DollarStrings reports whether $$...$$ and $tag$...$tag$ quoting
	// is recognized (PostgreSQL).
	DollarStrings bool

	// BatchSeparator is a word that ends a batch when it stands alone on
	// a line, with no terminating semicolon ("GO" for T-SQL). Empty when
	// the dialect has no such separator.
	BatchSeparator string
}

// QuotePair describes one identifier quoting style.
type QuotePair struct {
	Start  byte   // opening quote character
	End    byte   // closing quote character
	Escape string // sequence that yields a literal End inside the identifier
}

// QuoteFor returns the quoting style opened by the given character.
func (d *Dialect) QuoteFor(start byte) (QuotePair, bool) {
	for _, q := range d.IdentQuotes {
		if q.Start == start {
			return q, true
		}
	}
	return QuotePair{}, false
}

// IsStringQuote returns true if the given character opens a string literal.
func (d *Dialect) IsStringQuote(c byte) bool {
	for _, q := range d.StringQuotes {
		if q == c {
			return true
		}
	}
	return false
}

// QuoteIdent wraps name in the dialect's primary identifier quotes,
// escaping embedded closing quotes.
func (d *Dialect) QuoteIdent(name string) string {
	if len(d.IdentQuotes) == 0 {
		return name
	}
	return d.IdentQuotes[0].Quote(name)
}

// Quote wraps name in this quoting style, escaping embedded closing
// quote characters.
func (q QuotePair) Quote(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, q.Start)
	for i := 0; i < len(name); i++ {
		if name[i] == q.End {
			out = append(out, q.Escape...)
			continue
		}
		out = append(out, name[i])
	}
	out = append(out, q.End)
	return string(out)
}
