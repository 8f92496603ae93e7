package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/vimoptions/internal/config"
	"github.com/dshills/vimoptions/internal/vimopt"
)

func newSchemaCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the settings schema for every buffer option",
		Long: `Print a "contributes.configuration" JSON fragment describing every
buffer-local option under the settings scope, for editors and language
servers that validate settings files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope := g.scope
			if scope == "" {
				scope = config.DefaultScope
			}
			doc, err := vimopt.Schema(scope)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return err
		},
	}
}
