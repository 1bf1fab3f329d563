package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n-kyan/microsoft-auth/internal/models"
	"github.com/n-kyan/microsoft-auth/pkg/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			b := &backends{}
			defer b.Close()
			store, err := newCredentialStore(cmd.Context(), cfg, b, zap.NewNop())
			if err != nil {
				return err
			}

			var record models.TokenRecord
			if loaded := store.Load(cmd.Context()); loaded != nil {
				record = *loaded
			}
			printStatus(cmd, cfg.Credentials.Store, record, time.Now())
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, storeName string, record models.TokenRecord, now time.Time) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "store:   %s\n", storeName)
	fmt.Fprintf(out, "state:   %s\n", record.State(now))
	if !record.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "expires: %s", record.ExpiresAt.UTC().Format(time.RFC3339))
		if record.Valid(now) {
			fmt.Fprintf(out, " (in %s)", record.ExpiresAt.Sub(now).Round(time.Second))
		}
		fmt.Fprintln(out)
	}
}
