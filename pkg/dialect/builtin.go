package dialect

// Builtin dialect profiles. Each is pure data; registration happens in init.

var (
	doubleQuote = QuotePair{Start: '"', End: '"', Escape: `""`}
	bracket     = QuotePair{Start: '[', End: ']', Escape: `]]`}
	backtick    = QuotePair{Start: '`', End: '`', Escape: "``"}
)

// ANSI is the portable baseline: "ident" quoting, '' string doubling,
// -- and /* */ comments.
var ANSI = &Dialect{
	Name:         "ansi",
	IdentQuotes:  []QuotePair{doubleQuote},
	StringQuotes: []byte{'\''},
	LineComments: []string{"--"},
}

// TSQL covers SQL Server and Azure SQL: [bracket] identifiers and GO
// batch separators.
var TSQL = &Dialect{
	Name:           "tsql",
	IdentQuotes:    []QuotePair{doubleQuote, bracket},
	StringQuotes:   []byte{'\''},
	LineComments:   []string{"--"},
	BatchSeparator: "GO",
}

// MySQL uses backtick identifiers; double quotes delimit strings in the
// default SQL mode, and # opens a line comment.
var MySQL = &Dialect{
	Name:             "mysql",
	IdentQuotes:      []QuotePair{backtick},
	StringQuotes:     []byte{'\'', '"'},
	BackslashEscapes: true,
	LineComments:     []string{"--", "#"},
}

// Postgres adds nested block comments and dollar-quoted strings.
var Postgres = &Dialect{
	Name:                "postgres",
	IdentQuotes:         []QuotePair{doubleQuote},
	StringQuotes:        []byte{'\''},
	LineComments:        []string{"--"},
	NestedBlockComments: true,
	DollarStrings:       true,
}

// Oracle follows the ANSI profile.
var Oracle = &Dialect{
	Name:         "oracle",
	IdentQuotes:  []QuotePair{doubleQuote},
	StringQuotes: []byte{'\''},
	LineComments: []string{"--"},
}

// BigQuery uses backtick identifiers and both quote styles for strings,
// with backslash escapes.
var BigQuery = &Dialect{
	Name:             "bigquery",
	IdentQuotes:      []QuotePair{backtick},
	StringQuotes:     []byte{'\'', '"'},
	BackslashEscapes: true,
	LineComments:     []string{"--", "#"},
}

// Snowflake follows the ANSI profile and adds // line comments.
var Snowflake = &Dialect{
	Name:         "snowflake",
	IdentQuotes:  []QuotePair{doubleQuote},
	StringQuotes: []byte{'\''},
	LineComments: []string{"--", "//"},
}

// Redshift is Postgres-shaped without nested comments or dollar strings.
var Redshift = &Dialect{
	Name:         "redshift",
	IdentQuotes:  []QuotePair{doubleQuote},
	StringQuotes: []byte{'\''},
	LineComments: []string{"--"},
}

func init() {
	Register(ANSI)
	Register(TSQL)
	Register(MySQL)
	Register(Postgres)
	Register(Oracle)
	Register(BigQuery)
	Register(Snowflake)
	Register(Redshift)

	RegisterAlias("postgresql", "postgres")
	RegisterAlias("pg", "postgres")
	RegisterAlias("mssql", "tsql")
	RegisterAlias("sqlserver", "tsql")
}
