package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"doc-retriever/bootstrap"
	"doc-retriever/domain"
)

type documentJSON struct {
	ID       string          `json:"id,omitempty"`
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata"`
}

func newParseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse files and print the resulting documents as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			pipeline, err := bootstrap.NewPipeline(cfg, nil)
			if err != nil {
				return err
			}

			docs, err := pipeline.Ingest.Execute(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := make([]documentJSON, 0, len(docs))
			for _, d := range docs {
				out = append(out, documentJSON{ID: d.ID, Content: d.Content, Metadata: d.Metadata})
			}
			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
