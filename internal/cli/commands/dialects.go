package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutConverter(cmd)
			return runDialects(cc)
		},
	}
}

// dialectInfo is the reported lexical profile of one dialect.
type dialectInfo struct {
	Name           string   `json:"name"`
	Aliases        []string `json:"aliases,omitempty"`
	IdentQuotes    []string `json:"ident_quotes"`
	LineComments   []string `json:"line_comments"`
	BatchSeparator string   `json:"batch_separator,omitempty"`
}

func runDialects(cc *CommandContext) error {
	var infos []dialectInfo
	for _, name := range dialect.List() {
		d := dialect.MustGet(name)
		info := dialectInfo{
			Name:           d.Name,
			Aliases:        dialect.AliasesFor(name),
			LineComments:   d.LineComments,
			BatchSeparator: d.BatchSeparator,
		}
		for _, q := range d.IdentQuotes {
			info.IdentQuotes = append(info.IdentQuotes, string(q.Start)+"..."+string(q.End))
		}
		infos = append(infos, info)
	}

	if cc.Renderer.Mode() == output.ModeJSON {
		return cc.Renderer.JSON(infos)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cc.Renderer.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dialect", "Aliases", "Ident Quotes", "Line Comments", "Batch Sep"})
	for _, info := range infos {
		t.AppendRow(table.Row{
			info.Name,
			strings.Join(info.Aliases, ", "),
			strings.Join(info.IdentQuotes, " "),
			strings.Join(info.LineComments, " "),
			info.BatchSeparator,
		})
	}
	t.Render()
	return nil
}
