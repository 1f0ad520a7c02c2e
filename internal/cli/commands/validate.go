package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/resourcegraph/internal/cli/ui"
	"github.com/conduit-lang/resourcegraph/internal/graph"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the declarations build into a graph",
		Long: `Load every configured declaration source and build the resource graph.

Exits non-zero and reports the first offending declaration when the build
fails.`,
		Args:    cobra.NoArgs,
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			var g *graph.Graph
			err := ui.WithSpinner(cmd.ErrOrStderr(), "Building resource graph", a.noColor, func() error {
				var err error
				g, err = loadGraph(cmd.Context(), a.cfg, a.logger)
				return err
			})
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.GraphBuildError(err, a.noColor))
				return err
			}

			if g.Len() == 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("No resources declared. Add manifests under graph.manifests.", a.noColor))
			}
			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Resource graph is valid (%d resources)", g.Len()), a.noColor)
			return nil
		},
	}
}
