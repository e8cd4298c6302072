package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"doc-retriever/internal/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		service     string
		permissions []string
		ttl         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service token for the write endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.ServiceSecret == "" {
				return errors.New("SERVICE_SECRET is not set")
			}

			client, err := auth.NewClient(auth.Config{
				ServiceName:   service,
				ServiceSecret: cfg.Auth.ServiceSecret,
				TokenTTL:      ttl,
			})
			if err != nil {
				return err
			}

			token, err := client.GenerateServiceToken(permissions...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&service, "service", "retrieverctl", "service name placed in the token subject")
	cmd.Flags().StringSliceVar(&permissions, "permission", []string{auth.PermissionWrite}, "permissions to grant")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
