package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/cteshift/internal/cli/config"
	"github.com/leapstack-labs/cteshift/pkg/convert"
	"github.com/spf13/cobra"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Convert scripts interactively",
		Long: `Start an interactive session. SQL lines accumulate in a buffer;
.convert rewrites the buffer and prints the result. Options can be
changed per session with .dialect, .patterns, and .indent.`,
		RunE: runREPL,
	}
}

// replSession holds the mutable state of one interactive session.
type replSession struct {
	cfg    *config.Config
	buffer []string
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	// The session mutates its own copy; the loaded config stays intact.
	cfgCopy := *cc.Cfg
	session := &replSession{cfg: &cfgCopy}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cteshift> ",
		HistoryFile:     historyFilePath(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "cteshift REPL (dialect: %s)\n", session.dialectName())
	_, _ = fmt.Fprintln(out, "Type SQL lines, then .convert; .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.buffer = nil
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ".") {
			if quit := session.handleDotCommand(cmd, trimmed); quit {
				break
			}
			continue
		}

		session.buffer = append(session.buffer, line)
	}

	return nil
}

func (s *replSession) dialectName() string {
	if s.cfg.Dialect != "" {
		return s.cfg.Dialect
	}
	return config.DefaultDialect
}

// handleDotCommand executes one dot-command. It returns true when the
// session should end.
func (s *replSession) handleDotCommand(cmd *cobra.Command, line string) bool {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".convert":
		if len(s.buffer) == 0 {
			_, _ = fmt.Fprintln(errOut, "Buffer is empty; type some SQL first")
			return false
		}
		sql := strings.Join(s.buffer, "\n")
		result, err := convert.Convert(sql, s.cfg.ConvertOptions())
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(out, result)
		s.buffer = nil

	case ".show":
		if len(s.buffer) == 0 {
			_, _ = fmt.Fprintln(out, "(buffer empty)")
			return false
		}
		_, _ = fmt.Fprintln(out, strings.Join(s.buffer, "\n"))

	case ".clear":
		s.buffer = nil
		_, _ = fmt.Fprintln(out, "Buffer cleared")

	case ".dialect":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Current dialect: %s\n", s.dialectName())
			return false
		}
		trial := *s.cfg
		trial.Dialect = parts[1]
		if _, err := convert.New(trial.ConvertOptions()); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		s.cfg.Dialect = parts[1]
		_, _ = fmt.Fprintf(out, "Dialect set to %s\n", parts[1])

	case ".indent":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Current indent: %d\n", s.cfg.IndentWidth)
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			_, _ = fmt.Fprintln(errOut, "Usage: .indent <non-negative number>")
			return false
		}
		s.cfg.IndentWidth = n
		_, _ = fmt.Fprintf(out, "Indent set to %d\n", n)

	case ".patterns":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Current patterns: %s\n", strings.Join(s.cfg.TempTablePatterns, ", "))
			return false
		}
		patterns := strings.Split(parts[1], ",")
		trial := *s.cfg
		trial.TempTablePatterns = patterns
		if _, err := convert.New(trial.ConvertOptions()); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		s.cfg.TempTablePatterns = patterns
		_, _ = fmt.Fprintf(out, "Patterns set to %s\n", strings.Join(patterns, ", "))

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .convert          Convert the buffered SQL and print the result
  .show             Print the current buffer
  .clear            Discard the buffer
  .dialect [name]   Show or set the SQL dialect
  .indent [n]       Show or set CTE body indentation
  .patterns [p,..]  Show or set temp-table name patterns (comma-separated)
  .help             Show this help message
  .quit / .exit     Exit the REPL

Tips:
  - Paste whole scripts; statements are split on semicolons
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// historyFilePath keeps REPL history in the user's home directory.
func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cteshift_history")
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".convert"),
		readline.PcItem(".show"),
		readline.PcItem(".clear"),
		readline.PcItem(".dialect"),
		readline.PcItem(".indent"),
		readline.PcItem(".patterns"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
