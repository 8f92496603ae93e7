package commands

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/vimoptions/internal/app"
	"github.com/dshills/vimoptions/internal/config/loader"
	"github.com/dshills/vimoptions/internal/config/schema"
)

func newConfigCommand(g *globalOptions) *cobra.Command {
	var filetype string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit settings",
	}
	cmd.PersistentFlags().StringVarP(&filetype, "filetype", "f", "", "Language section to resolve or edit")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved option values and the layer each comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(g)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			store := application.Store()
			section := store.Section("", filetype)
			names := make([]string, 0, len(section))
			for name := range section {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No options configured.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OPTION\tVALUE\tFROM\t")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%#v\t%s\t\n", name, section[name], store.Origin(filetype, name))
			}
			return w.Flush()
		},
	}

	set := &cobra.Command{
		Use:   "set <option> <value>",
		Short: "Write an option value to the user settings.json",
		Long: `Write an option value to the user settings.json.

Values "true" and "false" are booleans and integers are numbers; anything
else is a string. Comments in settings.json are not preserved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSetting(cmd.OutOrStdout(), g, filetype, args[0], loader.ParseValue(args[1]))
		},
	}

	unset := &cobra.Command{
		Use:   "unset <option>",
		Short: "Remove an option from the user settings.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSetting(cmd.OutOrStdout(), g, filetype, args[0], nil)
		},
	}

	files := &cobra.Command{
		Use:   "files",
		Short: "List settings layers from lowest to highest priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(g)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LAYER\tPRIORITY\tPATH\t")
			for _, l := range application.Store().Layers() {
				fmt.Fprintf(w, "%s\t%d\t%s\t\n", l.Name, l.Priority, l.Path)
			}
			return w.Flush()
		},
	}

	var lenient bool
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check configured values against the buffer option catalog",
		Long: `Check configured values against the buffer option catalog.

Reports names that are not buffer-local options, values of the wrong type,
and abbreviated names such as "ts", which EditorConfig cannot suppress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(g)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			store := application.Store()
			prefix := store.Scope()
			if filetype != "" {
				prefix = loader.LanguageKey(filetype) + "." + prefix
			}
			errs := schema.NewValidator().
				WithStrictMode(!lenient).
				Validate(prefix, store.Section("", filetype))
			if err := errs.AsError(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
	validate.Flags().BoolVar(&lenient, "lenient", false, "Do not report options missing from the catalog")

	cmd.AddCommand(show, set, unset, files, validate)
	return cmd
}

func openApp(g *globalOptions) (*app.Application, error) {
	opts, err := g.appOptions(io.Discard)
	if err != nil {
		return nil, err
	}
	opts.WorkspacePath = workDir(opts.WorkspacePath)
	return app.New(opts)
}

func writeSetting(out io.Writer, g *globalOptions, filetype, option string, value any) error {
	application, err := openApp(g)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	store := application.Store()
	if err := store.Set(filetype, option, value); err != nil {
		return err
	}
	if value == nil {
		fmt.Fprintf(out, "unset %s\n", option)
		return nil
	}
	fmt.Fprintf(out, "%s = %#v\n", option, value)
	return nil
}
