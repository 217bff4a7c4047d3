package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInventoryCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print an account's current stacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stacks, err := a.inventory.GetInventory(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			for _, s := range stacks {
				fmt.Printf("%s  item_type=%d  balance=%d\n", hexEncode(s.StackUUID), s.ItemType, s.Balance)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.MarkFlagRequired("account")
	return cmd
}
