package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/vimoptions/internal/app"
	"github.com/dshills/vimoptions/internal/config/loader"
	"github.com/dshills/vimoptions/internal/host"
	"github.com/dshills/vimoptions/internal/host/memhost"
	"github.com/dshills/vimoptions/internal/reconcile"
)

type checkOptions struct {
	filetype     string
	editorconfig string
	sets         []string
	showLog      bool
}

func newCheckCommand(g *globalOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run a pass against an in-memory buffer",
		Long: `Dry-run a pass against an in-memory buffer using the loaded settings.

Examples:
  vimoptions check --filetype go
  vimoptions check --filetype python --editorconfig '{"indent_size": "4"}'
  vimoptions check --set textwidth=80 --set expandtab=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, g, o)
		},
	}
	cmd.Flags().StringVarP(&o.filetype, "filetype", "f", "", "Filetype of the buffer")
	cmd.Flags().StringVar(&o.editorconfig, "editorconfig", "", "EditorConfig state as a JSON object")
	cmd.Flags().StringArrayVar(&o.sets, "set", nil, "Session setting option=value (repeatable)")
	cmd.Flags().BoolVar(&o.showLog, "log", false, "Print the pass log before the summary")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions) error {
	ecState, err := parseEditorConfig(o.editorconfig)
	if err != nil {
		return err
	}

	opts, err := g.appOptions(io.Discard)
	if err != nil {
		return err
	}
	opts.WorkspacePath = workDir(opts.WorkspacePath)

	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	store := application.Store()
	if len(o.sets) > 0 {
		session, err := parseSets(store.Scope(), o.sets)
		if err != nil {
			return err
		}
		store.SetSession(session)
	}

	h := memhost.New()
	buf := h.Open(o.filetype)
	if ecState != nil {
		if err := h.SetVar(buf, reconcile.DefaultEditorConfigVar, ecState); err != nil {
			return err
		}
	}
	h.SetConfig(func(scope string, doc host.Document) (map[string]any, error) {
		return store.Section(scope, doc.LanguageID), nil
	})

	report, err := application.Reconciler().Reconcile(cmd.Context(), h)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.showLog {
		for _, line := range application.Output().Lines() {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	}
	return printReport(out, report, func(option string) string {
		return store.Origin(report.LanguageID, option)
	})
}

func printReport(out io.Writer, report *reconcile.Report, origin func(string) string) error {
	if len(report.Outcomes) == 0 {
		fmt.Fprintln(out, "No options configured.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTION\tSTATUS\tREQUESTED\tRESULT\tFROM\t")
	for _, o := range report.Outcomes {
		result := ""
		switch {
		case o.Status == reconcile.StatusFailed:
			result = o.Err.Error()
		case o.Status == reconcile.StatusSuppressed:
			result = "kept EditorConfig value"
		case o.Err != nil:
			result = "<unavailable>"
		default:
			result = fmt.Sprintf("%v", o.Applied)
		}
		fmt.Fprintf(w, "%s\t%s\t%#v\t%s\t%s\t\n", o.Option, o.Status, o.Requested, result, origin(o.Option))
	}
	return w.Flush()
}

// parseEditorConfig decodes the --editorconfig flag. An empty flag means
// no EditorConfig state.
func parseEditorConfig(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("--editorconfig: invalid JSON")
	}
	state, ok := gjson.Parse(s).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("--editorconfig: expected a JSON object")
	}
	return state, nil
}

// parseSets turns option=value pairs into a session layer under scope.
func parseSets(scope string, sets []string) (map[string]any, error) {
	section := make(map[string]any, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected option=value", s)
		}
		section[name] = loader.ParseValue(value)
	}
	return map[string]any{scope: section}, nil
}

