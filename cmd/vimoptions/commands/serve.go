package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/neovim/go-client/nvim"
	"github.com/spf13/cobra"

	"github.com/dshills/vimoptions/internal/app"
	"github.com/dshills/vimoptions/internal/config"
	"github.com/dshills/vimoptions/internal/host/nvimhost"
	"github.com/dshills/vimoptions/internal/logging"
)

type serveOptions struct {
	editorConfigVar string
	sessionVar      string
	noWatch         bool
}

func newServeCommand(g *globalOptions) *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a Neovim RPC host on stdin/stdout",
		Long: `Run as a Neovim RPC host on stdin/stdout.

Start it from Neovim with:

  vim.fn.jobstart({ 'vimoptions', 'serve' }, { rpc = true })

Logs go to --log-file, or $XDG_STATE_HOME/vim-options/vim-options.log,
since stdout carries the RPC stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g, o)
		},
	}
	cmd.Flags().StringVar(&o.editorConfigVar, "editorconfig-var", "", "Buffer variable holding EditorConfig state (default editorconfig)")
	cmd.Flags().StringVar(&o.sessionVar, "session-var", nvimhost.DefaultSessionVar, "Global variable read as the session settings layer (empty disables)")
	cmd.Flags().BoolVar(&o.noWatch, "no-watch", false, "Do not reload settings files when they change")
	return cmd
}

func runServe(ctx context.Context, g *globalOptions, o *serveOptions) error {
	if g.logFile == "" {
		g.logFile = logging.DefaultLogPath()
	}
	opts, err := g.appOptions(io.Discard)
	if err != nil {
		return err
	}
	opts.EditorConfigVar = o.editorConfigVar
	opts.Watch = !o.noWatch

	v, err := nvim.New(os.Stdin, os.Stdout, os.Stdout, func(format string, args ...any) {})
	if err != nil {
		return fmt.Errorf("connect to nvim: %w", err)
	}
	defer v.Close()

	served := make(chan error, 1)
	go func() {
		served <- v.Serve()
	}()

	if opts.WorkspacePath == "" {
		var cwd string
		if err := v.Call("getcwd", &cwd); err == nil {
			opts.WorkspacePath = config.FindWorkspace(cwd)
		}
	}

	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	h := nvimhost.New(v, application.Store(), nvimhost.WithSessionVar(o.sessionVar))
	if err := application.Activate(ctx, h); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-served:
		// Neovim closing the channel is a normal exit.
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("rpc: %w", err)
		}
	case <-signals:
	case <-application.Done():
	}
	return nil
}
