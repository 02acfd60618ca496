package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regrag/internal/convert"
	"github.com/dgallion1/regrag/internal/pipeline"
)

func newIngestCmd(g *globals) *cobra.Command {
	var (
		noHeaders   bool
		noSummaries bool
		force       bool
		maxPage     int
		docID       string
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Convert, structure, store and index documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := pipeline.Options{
				FixHeaders: cfg.FixHeaders && !noHeaders,
				Summarize:  cfg.Summarize && !noSummaries,
				Force:      force,
				MaxPage:    cfg.MaxPage,
			}
			if cmd.Flags().Changed("max-page") {
				opts.MaxPage = maxPage
			}
			if docID != "" && len(args) > 1 {
				return fmt.Errorf("--id applies to a single file")
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				filename := filepath.Base(path)
				conv, err := convert.ForFile(filename, a.Convert)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				text, err := conv.Convert(cmd.Context(), bytes.NewReader(data), filename)
				if err != nil {
					return fmt.Errorf("convert %s: %w", filename, err)
				}

				res, err := a.Ingestor.Ingest(cmd.Context(), pipeline.Request{
					Text:       text,
					Filename:   filename,
					DocumentID: docID,
					Options:    opts,
					Progress: func(stage string) {
						fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  %s %s", filename, stage)))
					},
				})
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("FAIL"), filename, err)
					continue
				}
				RenderIngest(out, res)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Skip LLM header correction")
	cmd.Flags().BoolVar(&noSummaries, "no-summaries", false, "Skip section and document summaries")
	cmd.Flags().BoolVar(&force, "force", false, "Ingest even if identical content is stored")
	cmd.Flags().IntVar(&maxPage, "max-page", 0, "Stop after this page (0 = all)")
	cmd.Flags().StringVar(&docID, "id", "", "Document ID (default: random UUID)")
	return cmd
}
