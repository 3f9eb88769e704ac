package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/convert"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ConvertOptions holds the convert command's flags.
type ConvertOptions struct {
	Out               string
	Write             bool
	Recursive         bool
	Jobs              int
	Overwrite         bool
	PreserveStructure bool
	Watch             bool
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [path...]",
		Short: "Convert temp-table scripts to CTE form",
		Long: `Convert SQL scripts that create session-scoped temp tables into
single statements using common table expressions.

Paths may be .sql files or directories. With no path, or with "-",
the script is read from stdin and the result written to stdout.`,
		Example: `  # Convert stdin to stdout
  cat report.sql | cteshift convert

  # Convert files into an output directory
  cteshift convert queries/ --out converted/

  # Rewrite files in place
  cteshift convert queries/ --write

  # Keep converting as files change
  cteshift convert queries/ --out converted/ --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "O", "", "Output file or directory")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "Rewrite input files in place")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", false, "Recurse into directories")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "Number of files converted in parallel")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Allow replacing existing output files")
	cmd.Flags().BoolVar(&opts.PreserveStructure, "preserve-structure", false, "Mirror the input directory layout under --out")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Reconvert when input files change")

	return cmd
}

// fileResult is the outcome of converting one input file.
type fileResult struct {
	Path     string   `json:"path"`
	Dest     string   `json:"dest,omitempty"`
	CTENames []string `json:"cte_names,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Err      error    `json:"-"`
	ErrMsg   string   `json:"error,omitempty"`

	sql string
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if opts.Jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", opts.Jobs)
	}
	if opts.Write && opts.Out != "" {
		return fmt.Errorf("--write and --out are mutually exclusive")
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		if opts.Watch {
			return fmt.Errorf("--watch requires file or directory inputs")
		}
		return convertStdin(cmd, cc, opts)
	}

	inputs, err := collectInputs(args, opts.Recursive)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .sql files found under %s", strings.Join(args, ", "))
	}

	passErr := runConvertPass(cmd.Context(), cc, opts, inputs)
	if !opts.Watch {
		return passErr
	}
	if passErr != nil {
		cc.Renderer.Error(passErr.Error())
	}
	return watchInputs(cmd, cc, opts, args)
}

func convertStdin(cmd *cobra.Command, cc *CommandContext, opts *ConvertOptions) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	res, err := cc.Converter.Convert(string(src))
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		cc.Renderer.Warning(w)
	}
	out := ensureTrailingNewline(res.SQL)
	if opts.Out != "" {
		return writeFileAtomic(opts.Out, []byte(out), opts.Overwrite)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

// input is one file to convert, with the directory argument it was
// found under (empty for files given directly).
type input struct {
	path string
	root string
}

// collectInputs expands path arguments into the list of .sql files to
// convert, deduplicated and in deterministic order.
func collectInputs(args []string, recursive bool) ([]input, error) {
	seen := make(map[string]bool)
	var inputs []input
	add := func(path, root string) {
		if !seen[path] {
			seen[path] = true
			inputs = append(inputs, input{path: path, root: root})
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg, "")
			continue
		}
		if recursive {
			err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isSQLFile(path) {
					add(path, arg)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isSQLFile(e.Name()) {
				add(filepath.Join(arg, e.Name()), arg)
			}
		}
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].path < inputs[j].path })
	return inputs, nil
}

func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// runConvertPass converts all inputs in parallel and writes the outputs.
func runConvertPass(ctx context.Context, cc *CommandContext, opts *ConvertOptions, inputs []input) error {
	results := make([]fileResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = convertFile(cc.Converter, in, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	multi := len(inputs) > 1
	for i := range results {
		if results[i].Err == nil {
			results[i].Dest = destinationFor(inputs[i], opts, multi)
		}
	}

	return emitResults(cc, opts, results, multi)
}

// convertFile converts one file. A failure lands in the result rather
// than aborting the pass, so one bad script does not block the rest.
func convertFile(conv *convert.Converter, in input, opts *ConvertOptions) fileResult {
	res := fileResult{Path: in.path}

	src, err := os.ReadFile(in.path)
	if err != nil {
		res.Err = err
		return res
	}
	converted, err := conv.Convert(string(src))
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", in.path, err)
		return res
	}
	res.CTENames = converted.CTENames
	res.Warnings = converted.Warnings
	res.sql = ensureTrailingNewline(converted.SQL)
	return res
}

// destinationFor decides where a converted file goes. Empty means stdout.
// --out names a single file only when there is exactly one input and the
// path is not an existing directory.
func destinationFor(in input, opts *ConvertOptions, multi bool) string {
	if opts.Write {
		return in.path
	}
	if opts.Out == "" {
		return ""
	}
	if info, err := os.Stat(opts.Out); (err == nil && info.IsDir()) || opts.PreserveStructure || multi || in.root != "" {
		name := filepath.Base(in.path)
		if opts.PreserveStructure && in.root != "" {
			if rel, err := filepath.Rel(in.root, in.path); err == nil {
				name = rel
			}
		}
		return filepath.Join(opts.Out, name)
	}
	return opts.Out
}

func emitResults(cc *CommandContext, opts *ConvertOptions, results []fileResult, multi bool) error {
	var failed int
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			r.ErrMsg = r.Err.Error()
			failed++
			continue
		}
		for _, w := range r.Warnings {
			cc.Renderer.Warning(fmt.Sprintf("%s: %s", r.Path, w))
		}
		if r.Dest == "" {
			if multi {
				cc.Renderer.Printf("-- %s\n", r.Path)
			}
			cc.Renderer.Printf("%s", r.sql)
			continue
		}
		if err := writeFileAtomic(r.Dest, []byte(r.sql), opts.Overwrite || opts.Write); err != nil {
			r.Err = err
			r.ErrMsg = err.Error()
			failed++
		}
	}

	if cc.Renderer.Mode() == output.ModeJSON {
		if err := cc.Renderer.JSON(results); err != nil {
			return err
		}
	} else if writingFiles(results) {
		renderConvertSummary(cc.Renderer, results)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func writingFiles(results []fileResult) bool {
	for _, r := range results {
		if r.Dest != "" || r.Err != nil {
			return true
		}
	}
	return false
}

func renderConvertSummary(r *output.Renderer, results []fileResult) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "CTEs", "Status"})

	for _, res := range results {
		status := "converted"
		switch {
		case res.Err != nil:
			status = "failed: " + res.ErrMsg
		case len(res.CTENames) == 0:
			status = "unchanged"
		}
		t.AppendRow(table.Row{res.Path, len(res.CTENames), status})
	}
	t.Render()
}

// writeFileAtomic writes through a uniquely named temp file in the
// destination directory, then renames it into place. Readers never see
// a half-written file.
func writeFileAtomic(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite %s (use --overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// watchDebounce is how long file events are coalesced before a reconvert.
const watchDebounce = 250 * time.Millisecond

// watchInputs reconverts files as they change, until interrupted.
// Editors often emit several events per save; changes are debounced and
// reconverted as one pass.
func watchInputs(cmd *cobra.Command, cc *CommandContext, opts *ConvertOptions, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dirs := make(map[string]bool)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		dir := arg
		if !info.IsDir() {
			dir = filepath.Dir(arg)
		}
		dirs[dir] = true
		if info.IsDir() && opts.Recursive {
			err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					dirs[path] = true
				}
				return err
			})
			if err != nil {
				return err
			}
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	cc.Logger.Info("watching for changes", "dirs", len(dirs))
	cc.Renderer.Printf("Watching %d directories; press Ctrl-C to stop\n", len(dirs))

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Renderer.Error(err.Error())
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !isSQLFile(ev.Name) || strings.Contains(ev.Name, ".tmp-") {
				continue
			}
			cc.Logger.Debug("change detected", "file", ev.Name)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			inputs, err := collectInputs(args, opts.Recursive)
			if err != nil {
				cc.Renderer.Error(err.Error())
				continue
			}
			passOpts := watchPassOptions(opts)
			if err := runConvertPass(ctx, cc, &passOpts, inputs); err != nil {
				cc.Renderer.Error(err.Error())
			}
		}
	}
}

// watchPassOptions relaxes the overwrite check for repeat passes: the
// first pass already owns the destination files.
func watchPassOptions(opts *ConvertOptions) ConvertOptions {
	o := *opts
	o.Overwrite = true
	return o
}
