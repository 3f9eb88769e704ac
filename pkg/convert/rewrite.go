package convert

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/cteshift/pkg/parser"
)

// resolveRef finds the longest prefix of a dotted reference that names a
// converted temp table, trying shorter prefixes so a qualified column
// reference like #t.col still retargets #t. A prefix that matches a temp
// pattern without having a definition is reported as undefined.
func resolveRef(ref parser.TableRef, defs map[string]*TempTable, patterns []pattern) (defKey string, parts int, undefined string) {
	for n := len(ref.Parts); n >= 1; n-- {
		name := ref.PrefixName(n)
		if _, ok := defs[key(name)]; ok {
			return key(name), n, ""
		}
	}
	// No prefix is a converted table; a prefix that still looks like a
	// temp name is a reference to something never defined.
	for n := len(ref.Parts); n >= 1; n-- {
		if name := ref.PrefixName(n); matchAny(patterns, name) {
			return "", 0, name
		}
	}
	return "", 0, ""
}

// rewriteText splices CTE names over every reference to a converted temp
// table. Matching is whole-token: the refs come from the lexer, so names
// inside strings, comments, or longer identifiers are never touched.
// Quoted references stay quoted in their original style; only the name
// portion changes. The input text is never mutated; context names the
// location for undefined-reference errors.
func (c *Converter) rewriteText(text string, refs []parser.TableRef, defs map[string]*TempTable, context string) (string, error) {
	type splice struct {
		start, end int
		repl       string
	}
	var splices []splice

	for _, ref := range refs {
		defKey, n, undefined := resolveRef(ref, defs, c.patterns)
		if undefined != "" {
			return "", &UndefinedTempError{Name: undefined, Context: context}
		}
		if defKey == "" {
			continue
		}

		tt := defs[defKey]
		repl := tt.CTEName
		if n == 1 && ref.Parts[0].Quote != 0 {
			if q, ok := c.dialect.QuoteFor(ref.Parts[0].Quote); ok {
				repl = q.Quote(tt.CTEName)
			}
		}
		span := ref.PrefixSpan(n)
		splices = append(splices, splice{start: span.Start, end: span.End, repl: repl})
	}
	if len(splices) == 0 {
		return text, nil
	}

	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })
	var sb strings.Builder
	sb.Grow(len(text))
	prev := 0
	for _, s := range splices {
		sb.WriteString(text[prev:s.start])
		sb.WriteString(s.repl)
		prev = s.end
	}
	sb.WriteString(text[prev:])
	return sb.String(), nil
}

// bodyRefs parses a definition body standalone and returns its dotted
// identifier chains.
func (c *Converter) bodyRefs(tt *TempTable) ([]parser.TableRef, error) {
	stmt, err := parser.Parse(parser.RawStatement{Text: tt.Body}, c.dialect)
	if err != nil {
		return nil, &ConvertError{Stage: "rewrite", Table: tt.Name, Err: err}
	}
	return stmt.Refs, nil
}

// rewriteBody substitutes dependency CTE names inside one definition body.
func (c *Converter) rewriteBody(tt *TempTable, refs []parser.TableRef, defs map[string]*TempTable) (string, error) {
	out, err := c.rewriteText(tt.Body, refs, defs, "the definition of "+tt.Name)
	if err != nil {
		return "", err
	}
	return out, nil
}
