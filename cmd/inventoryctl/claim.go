package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterium/invledger/internal/filterstore"
)

func newClaimCmd() *cobra.Command {
	var x, y, z int64
	var coordA uint32
	var itemType, qty int32
	var accountID string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Try to claim a spatially anchored drop, then credit the account on success",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.filters.TryClaim(cmd.Context(), x, y, z, coordA)
			if err != nil {
				return err
			}
			if result == filterstore.AlreadyConsumed {
				fmt.Println("already_consumed")
				return nil
			}

			stackUUID, err := app.actions.CreateFromXYZA(cmd.Context(), x, y, z, coordA, itemType, qty, accountID)
			if err != nil {
				return err
			}
			fmt.Printf("claimed %s\n", hexEncode(stackUUID))
			return nil
		},
	}
	cmd.Flags().Int64Var(&x, "x", 0, "world x coordinate")
	cmd.Flags().Int64Var(&y, "y", 0, "world y coordinate")
	cmd.Flags().Int64Var(&z, "z", 0, "world z coordinate")
	cmd.Flags().Uint32Var(&coordA, "a", 0, "drop-table disambiguator")
	cmd.Flags().Int32Var(&itemType, "item-type", 0, "item type")
	cmd.Flags().Int32Var(&qty, "qty", 1, "quantity")
	cmd.Flags().StringVar(&accountID, "account", "", "claiming account id")
	cmd.MarkFlagRequired("account")
	return cmd
}
