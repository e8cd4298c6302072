package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"doc-retriever/bootstrap"
	"doc-retriever/config"
	"doc-retriever/domain"
)

const snippetRunes = 80

func newSearchCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Return the most relevant documents for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), config.SearchTimeout)
			defer cancel()

			r, _, err := bootstrap.NewRetriever(ctx, cfg)
			if err != nil {
				return err
			}
			pipeline, err := bootstrap.NewPipeline(cfg, r)
			if err != nil {
				return err
			}
			if pipeline.Search == nil {
				return errors.New("search needs a retriever, set --kind or RETRIEVER_KIND")
			}

			result, err := pipeline.Search.Execute(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if jsonOutput {
				out := make([]documentJSON, 0, len(result.Documents))
				for _, d := range result.Documents {
					out = append(out, documentJSON{ID: d.ID, Content: d.Content, Metadata: d.Metadata})
				}
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return renderResults(c, result.Documents)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func renderResults(c *cli, docs []domain.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(c.out, "no matching documents")
		return err
	}

	table := tablewriter.NewTable(c.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{Borders: tw.BorderNone}),
	)
	table.Header([]string{"#", "ID", "Source", "Content"})

	rows := make([][]string, 0, len(docs))
	for i, d := range docs {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			d.ID,
			source(d.Metadata),
			snippet(d.Content),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func source(m domain.Metadata) string {
	for _, key := range []string{"source", "url"} {
		if v, ok := m[key]; ok {
			return fmt.Sprint(v)
		}
	}
	return ""
}

func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= snippetRunes {
		return content
	}
	return string(runes[:snippetRunes-1]) + "…"
}
