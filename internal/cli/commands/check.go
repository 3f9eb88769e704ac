package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/convert"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Inspect scripts without converting them",
		Long: `Report the temp tables a script defines, the idiom that defined
each one, its dependencies, and the order their CTEs would take. The
script is not rewritten; errors a conversion would hit (cycles,
undefined references, name collisions) are reported here too.`,
		Example: `  cteshift check report.sql
  cteshift check queries/ -r --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, recursive)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into directories")
	return cmd
}

// checkResult is the per-file outcome of a check run.
type checkResult struct {
	Path     string            `json:"path"`
	Analysis *convert.Analysis `json:"analysis,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string, recursive bool) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		analysis, err := cc.Converter.Analyze(string(src))
		results := []checkResult{{Path: "<stdin>", Analysis: analysis}}
		if err != nil {
			results[0].Error = err.Error()
		}
		return emitCheckResults(cc, results)
	}

	inputs, err := collectInputs(args, recursive)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .sql files found under %s", strings.Join(args, ", "))
	}

	results := make([]checkResult, 0, len(inputs))
	for _, in := range inputs {
		res := checkResult{Path: in.path}
		src, err := os.ReadFile(in.path)
		if err != nil {
			res.Error = err.Error()
		} else if analysis, err := cc.Converter.Analyze(string(src)); err != nil {
			res.Error = err.Error()
		} else {
			res.Analysis = analysis
		}
		results = append(results, res)
	}
	return emitCheckResults(cc, results)
}

func emitCheckResults(cc *CommandContext, results []checkResult) error {
	if cc.Renderer.Mode() == output.ModeJSON {
		if err := cc.Renderer.JSON(results); err != nil {
			return err
		}
	} else {
		for i, res := range results {
			if i > 0 {
				cc.Renderer.Println("")
			}
			renderCheckResult(cc.Renderer, res)
		}
	}

	var failed int
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed the check", failed, len(results))
	}
	return nil
}

func renderCheckResult(r *output.Renderer, res checkResult) {
	r.Header(2, res.Path)
	if res.Error != "" {
		r.Error(fmt.Sprintf("%s: %s", res.Path, res.Error))
		return
	}
	for _, w := range res.Analysis.Warnings {
		r.Warning(fmt.Sprintf("%s: %s", res.Path, w))
	}
	if len(res.Analysis.TempTables) == 0 {
		r.Printf("no temp tables in %d statements; script would pass through unchanged\n", res.Analysis.Statements)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Temp Table", "CTE", "Kind", "Depends On"})
	for _, tt := range res.Analysis.TempTables {
		t.AppendRow(table.Row{tt.EmitOrder + 1, tt.Name, tt.CTEName, tt.Kind, strings.Join(tt.Dependencies, ", ")})
	}
	t.Render()
}
