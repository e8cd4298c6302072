package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"doc-retriever/bootstrap"
	"doc-retriever/config"
	"doc-retriever/port"
)

func newIngestCmd(c *cli) *cobra.Command {
	var (
		refresh bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Parse files and add the documents to the retriever",
		Long: `Parse every file and add all resulting documents in one batch.
The batch is all-or-nothing: if any file fails to parse, nothing is indexed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Retriever.Kind = config.RetrieverKindNone
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), config.IngestTimeout)
			defer cancel()

			r, _, err := bootstrap.NewRetriever(ctx, cfg)
			if err != nil {
				return err
			}
			pipeline, err := bootstrap.NewPipeline(cfg, r)
			if err != nil {
				return err
			}

			if pipeline.Index == nil {
				docs, err := pipeline.Ingest.Execute(ctx, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%s parsed %d file(s) into %d document(s), nothing indexed\n",
					color.YellowString("!"), len(args), len(docs))
				return nil
			}

			var opts []port.AddOption
			if cmd.Flags().Changed("refresh") {
				opts = append(opts, port.WithRefresh(refresh))
			}
			result, err := pipeline.Index.Execute(ctx, args, opts...)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("ingest timed out after %s: %w", config.IngestTimeout, err)
				}
				return err
			}

			fmt.Fprintf(c.out, "%s indexed %d document(s) from %d file(s) into %q\n",
				color.GreenString("✓"), result.DocumentCount, result.FileCount, cfg.Retriever.IndexName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", true, "make documents searchable before returning")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse only, do not index")
	return cmd
}
