package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDocsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			RenderDocuments(cmd.OutOrStdout(), docs)
			return nil
		},
	}
}

func newShowCmd(g *globals) *cobra.Command {
	var chunks bool
	cmd := &cobra.Command{
		Use:   "show DOC_ID",
		Short: "Show a document's summaries and structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("document %s: %w", args[0], err)
			}
			RenderDocument(cmd.OutOrStdout(), doc, chunks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&chunks, "chunks", false, "Also print every chunk")
	return cmd
}

func newRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm DOC_ID...",
		Short: "Delete documents and their index entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				if err := a.Ingestor.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("deleted"), id)
			}
			return nil
		},
	}
}
