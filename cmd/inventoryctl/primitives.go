package main

import (
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterium/invledger/internal/ledger"
)

func parseStackUUID(hexStr string) ([16]byte, error) {
	var out [16]byte
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, fmt.Errorf("decode stack uuid: %w", err)
	}
	if len(raw) != 16 {
		return out, fmt.Errorf("stack uuid must be 16 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func newCreateCmd() *cobra.Command {
	var stackHex, accountID string
	var itemType, qty int32

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new stack directly by its stack uuid (bypasses xyza hashing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stackUUID, err := parseStackUUID(stackHex)
			if err != nil {
				return err
			}

			tx, err := a.ledger.DB().BeginTx(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			if err := ledger.Create(tx, stackUUID, itemType, qty, accountID); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			log.Info().Str("stack_uuid", stackHex).Str("account_id", accountID).Msg("created")
			return nil
		},
	}
	cmd.Flags().StringVar(&stackHex, "stack-uuid", "", "hex-encoded 16-byte stack uuid")
	cmd.Flags().StringVar(&accountID, "account", "", "recipient account id")
	cmd.Flags().Int32Var(&itemType, "item-type", 0, "item type")
	cmd.Flags().Int32Var(&qty, "qty", 0, "quantity")
	cmd.MarkFlagRequired("stack-uuid")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("qty")
	return cmd
}

func newDestroyCmd() *cobra.Command {
	var stackHex, accountID string
	var itemType, qty int32

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Debit qty from an account's stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stackUUID, err := parseStackUUID(stackHex)
			if err != nil {
				return err
			}

			tx, err := a.ledger.DB().BeginTx(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			if err := ledger.Destroy(tx, stackUUID, itemType, accountID, qty); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			log.Info().Str("stack_uuid", stackHex).Str("account_id", accountID).Int32("qty", qty).Msg("destroyed")
			return nil
		},
	}
	cmd.Flags().StringVar(&stackHex, "stack-uuid", "", "hex-encoded 16-byte stack uuid")
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().Int32Var(&itemType, "item-type", 0, "expected item type")
	cmd.Flags().Int32Var(&qty, "qty", 0, "quantity to debit")
	cmd.MarkFlagRequired("stack-uuid")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("qty")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var stackHex, sender, recipient string
	var itemType, qty int32

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Transfer qty of a stack from one account to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stackUUID, err := parseStackUUID(stackHex)
			if err != nil {
				return err
			}

			tx, err := a.ledger.DB().BeginTx(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer tx.Rollback()

			if err := ledger.Split(tx, stackUUID, itemType, sender, recipient, qty); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			log.Info().Str("stack_uuid", stackHex).Str("from", sender).Str("to", recipient).Int32("qty", qty).Msg("split")
			return nil
		},
	}
	cmd.Flags().StringVar(&stackHex, "stack-uuid", "", "hex-encoded 16-byte stack uuid")
	cmd.Flags().StringVar(&sender, "from", "", "sender account id")
	cmd.Flags().StringVar(&recipient, "to", "", "recipient account id")
	cmd.Flags().Int32Var(&itemType, "item-type", 0, "expected item type")
	cmd.Flags().Int32Var(&qty, "qty", 0, "quantity to transfer")
	cmd.MarkFlagRequired("stack-uuid")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("qty")
	return cmd
}
