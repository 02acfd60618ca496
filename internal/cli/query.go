package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(g *globals) *cobra.Command {
	var (
		n    int
		full bool
	)
	cmd := &cobra.Command{
		Use:   "query TEXT...",
		Short: "Search stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Retriever.Retrieve(cmd.Context(), strings.Join(args, " "), n)
			if err != nil {
				return err
			}
			RenderResults(cmd.OutOrStdout(), results, full)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", 5, "Number of results")
	cmd.Flags().BoolVar(&full, "full", false, "Print whole chunks instead of a preview")
	return cmd
}
