package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSeedCmd provisions an inventories row for account_id. internal/ledger
// never auto-creates this row — that is the external account service's
// job — so local and manual testing needs a way to stand one up without a
// running account service.
func newSeedCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision an empty inventories row for an account (local/manual testing only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = a.ledger.DB().ExecContext(cmd.Context(), `
				INSERT INTO inventories (account_id, latest_keys) VALUES ($1, '{}')
				ON CONFLICT (account_id) DO NOTHING`,
				accountID,
			)
			if err != nil {
				return err
			}
			fmt.Printf("seeded inventories row for %s\n", accountID)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id to provision")
	cmd.MarkFlagRequired("account")
	return cmd
}
