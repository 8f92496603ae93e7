package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/vimoptions/internal/reconcile"
)

func newManagedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "managed",
		Short: "List the options each EditorConfig property governs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := reconcile.DefaultManagedOptions()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROPERTY\tOPTIONS\t")
			for _, prop := range m.Properties() {
				fmt.Fprintf(w, "%s\t%s\t\n", prop, strings.Join(m[prop], ", "))
			}
			return w.Flush()
		},
	}
}
