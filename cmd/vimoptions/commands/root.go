// Package commands provides the vimoptions CLI.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/vimoptions/internal/app"
	"github.com/dshills/vimoptions/internal/config"
	"github.com/dshills/vimoptions/internal/logging"
)

// Version information (set via ldflags during build).
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configDir string
	workspace string
	scope     string
	logLevel  string
	logFile   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "vimoptions",
		Short: "Apply configured buffer options to Neovim buffers",
		Long: `vimoptions applies buffer-local options from your settings files to the
active Neovim buffer whenever its filetype is set, leaving alone every option
an EditorConfig file already governs.

Start it from Neovim as a remote plugin with 'vimoptions serve', or use
'vimoptions check' to see what a pass would do for a filetype.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configDir, "config-dir", "", "User settings directory (default $XDG_CONFIG_HOME/vim-options)")
	root.PersistentFlags().StringVarP(&g.workspace, "workspace", "w", "", "Project directory searched for .vim-options files")
	root.PersistentFlags().StringVar(&g.scope, "scope", "", "Settings section holding option values (default vim-options)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Write logs to this file")

	root.SetVersionTemplate(fmt.Sprintf("vimoptions %s\nCommit: %s\nBuilt: %s\n", Version, Commit, Date))

	root.AddCommand(
		newServeCommand(g),
		newCheckCommand(g),
		newManagedCommand(),
		newSchemaCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

// appOptions maps the global flags onto app.Options. Logs go to the
// --log-file when set, to fallback otherwise.
func (g *globalOptions) appOptions(fallback io.Writer) (app.Options, error) {
	switch g.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return app.Options{}, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", g.logLevel)
	}

	opts := app.Options{
		ConfigDir:     g.configDir,
		WorkspacePath: g.workspace,
		Scope:         g.scope,
		LogLevel:      g.logLevel,
		LogOutput:     fallback,
	}
	if g.logFile != "" {
		f, err := logging.OpenFile(g.logFile)
		if err != nil {
			return app.Options{}, fmt.Errorf("open log file: %w", err)
		}
		opts.LogOutput = f
	}
	return opts, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vimoptions %s\n", Version)
			fmt.Fprintf(out, "Commit: %s\n", Commit)
			fmt.Fprintf(out, "Built: %s\n", Date)
		},
	}
}

// workDir returns dir, or the workspace enclosing the current directory
// when dir is empty.
func workDir(dir string) string {
	if dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return config.FindWorkspace(wd)
}
