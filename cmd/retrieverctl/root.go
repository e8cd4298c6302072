package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"doc-retriever/config"
	"doc-retriever/logger"
)

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	v   *viper.Viper
	out io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), out: os.Stdout}

	root := &cobra.Command{
		Use:   "retrieverctl",
		Short: "Parse, index and search documents",
		Long: `retrieverctl drives the document retrieval pipeline without the HTTP service.

Example usage:
  retrieverctl parse data/records.json         # Print parsed documents as JSON
  retrieverctl ingest data/*.json data/*.pdf   # Parse and index files
  retrieverctl search "bm25 ranking"           # Query the index
  retrieverctl token --permission write        # Mint a service token`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			level := slog.LevelWarn
			if c.v.GetBool("verbose") {
				level = slog.LevelDebug
			}
			logger.Logger = logger.New(cmd.ErrOrStderr(), level, false)
			logger.GlobalContext = logger.NewContextLogger(logger.Logger)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file (overrides RETRIEVER_CONFIG_FILE)")
	flags.String("kind", "", "retriever kind: bm25, meilisearch or none")
	flags.String("index", "", "index name")
	flags.String("root", "", "only read files under this directory (default: no restriction)")
	flags.BoolP("verbose", "v", false, "verbose logging")

	_ = c.v.BindPFlag("config", flags.Lookup("config"))
	_ = c.v.BindPFlag("retriever.kind", flags.Lookup("kind"))
	_ = c.v.BindPFlag("retriever.index_name", flags.Lookup("index"))
	_ = c.v.BindPFlag("ingest.root", flags.Lookup("root"))
	_ = c.v.BindPFlag("verbose", flags.Lookup("verbose"))

	root.AddCommand(
		newParseCmd(c),
		newIngestCmd(c),
		newSearchCmd(c),
		newTokenCmd(c),
	)
	return root
}

// loadConfig loads the service configuration and applies command-line overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	if path := c.v.GetString("config"); path != "" {
		if err := os.Setenv("RETRIEVER_CONFIG_FILE", path); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if kind := c.v.GetString("retriever.kind"); kind != "" {
		cfg.Retriever.Kind = kind
	}
	if index := c.v.GetString("retriever.index_name"); index != "" {
		cfg.Retriever.IndexName = index
	}
	// Paths on the command line come from the operator, so INGEST_ROOT only
	// binds the service surfaces.
	cfg.Ingest.Root = c.v.GetString("ingest.root")
	return cfg, cfg.Validate()
}
