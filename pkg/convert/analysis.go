package convert

import "github.com/leapstack-labs/cteshift/pkg/parser"

// TempTableInfo describes one detected temp table for reporting.
type TempTableInfo struct {
	// Name is the temp table's name as written in the script.
	Name string `json:"name"`
	// CTEName is the name its CTE would carry.
	CTEName string `json:"cte_name"`
	// Kind is the creation idiom: select-into, create-as, or
	// create-then-insert.
	Kind string `json:"kind"`
	// Dependencies lists the other temp tables its definition reads.
	Dependencies []string `json:"dependencies,omitempty"`
	// EmitOrder is the table's position in the WITH clause, from 0.
	EmitOrder int `json:"emit_order"`
}

// Analysis is the outcome of inspecting a script without rewriting it.
type Analysis struct {
	TempTables []TempTableInfo `json:"temp_tables"`
	Statements int             `json:"statements"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// Analyze runs detection, dependency resolution, and ordering on a script
// without producing rewritten SQL. It surfaces the same errors Convert
// would: syntax errors, collisions, undefined references inside
// definitions, and cycles.
func (c *Converter) Analyze(sql string) (*Analysis, error) {
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
	analysis := &Analysis{Statements: len(stmts), Warnings: det.warnings}
	if len(det.order) == 0 {
		return analysis, nil
	}

	if err := det.resolveDeps(c); err != nil {
		return nil, err
	}
	ordered, err := newGraph(det).order()
	if err != nil {
		return nil, err
	}

	for i, k := range ordered {
		tt := det.defs[k]
		info := TempTableInfo{
			Name:      tt.Name,
			CTEName:   tt.CTEName,
			Kind:      tt.Kind.String(),
			EmitOrder: i,
		}
		for _, dep := range tt.Deps {
			info.Dependencies = append(info.Dependencies, det.defs[dep].Name)
		}
		analysis.TempTables = append(analysis.TempTables, info)
	}
	return analysis, nil
}
