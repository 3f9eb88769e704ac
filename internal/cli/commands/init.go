package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/cteshift/internal/cli/config"
	"github.com/leapstack-labs/cteshift/internal/cli/output"
	"github.com/leapstack-labs/cteshift/pkg/convert"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter cteshift.yaml",
		Long: `Write a cteshift.yaml configuration file with the default settings
so they can be adjusted per project.`,
		Example: `  # Initialize in the current directory
  cteshift init

  # Overwrite an existing configuration
  cteshift init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cc := NewCommandContextWithoutConverter(cmd)
			return runInit(cc.Renderer, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

// starterConfig is what init writes. A separate struct keeps yaml tags
// off the runtime Config, which is decoded through koanf.
type starterConfig struct {
	Dialect           string   `yaml:"dialect"`
	TempTablePatterns []string `yaml:"temp_table_patterns"`
	IndentWidth       int      `yaml:"indent_width"`
	Output            string   `yaml:"output"`
}

const initHeader = `# cteshift configuration.
# Settings may also come from CTESHIFT_* environment variables or flags;
# flags win over environment, environment wins over this file.
`

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "cteshift.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("cteshift.yaml already exists. Use --force to overwrite")
	}

	starter := starterConfig{
		Dialect:           config.DefaultDialect,
		TempTablePatterns: convert.DefaultTempTablePatterns,
		IndentWidth:       config.DefaultIndentWidth,
		Output:            config.DefaultOutput,
	}
	body, err := yaml.Marshal(starter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, append([]byte(initHeader), body...), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.StatusLine(configPath, "success", "")
	r.Println("")
	r.Success("cteshift project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Set the dialect your scripts are written in")
	r.Println("  2. Run 'cteshift check <file.sql>' to see what would convert")
	r.Println("  3. Run 'cteshift convert <file.sql>' to rewrite it")

	return nil
}
