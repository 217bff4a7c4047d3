package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newBuffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buff",
		Short: "Grant, consume for, or read an account's buffs",
	}
	cmd.AddCommand(newBuffObtainCmd(), newBuffConsumeCmd(), newBuffReadCmd())
	return cmd
}

func newBuffObtainCmd() *cobra.Command {
	var accountID string
	var buffType int32

	cmd := &cobra.Command{
		Use:   "obtain",
		Short: "Grant a permanent, no-cost buff (quest rewards, admin grants)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.buffs.ObtainPermanentBuff(cmd.Context(), accountID, buffType); err != nil {
				return err
			}
			log.Info().Str("account_id", accountID).Int32("buff_type", buffType).Msg("buff obtained")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().Int32Var(&buffType, "buff-type", 0, "buff type")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newBuffConsumeCmd() *cobra.Command {
	var accountID string
	var buffType int32
	var expiresAt int64
	var rawSlices []string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Debit slices from an account and grant a buff expiring at expires_at",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			slices, err := parseSlices(rawSlices)
			if err != nil {
				return err
			}
			if err := a.buffs.ConsumeForBuff(cmd.Context(), accountID, slices, buffType, expiresAt); err != nil {
				return err
			}
			log.Info().Str("account_id", accountID).Int32("buff_type", buffType).Int64("expires_at", expiresAt).Msg("buff granted")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().Int32Var(&buffType, "buff-type", 0, "buff type")
	cmd.Flags().Int64Var(&expiresAt, "expires-at", 0, "unix timestamp the buff expires at, 0 for permanent")
	cmd.Flags().StringArrayVar(&rawSlices, "slice", nil, "stackUUIDHex:qty:itemType, repeatable")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("buff-type")
	return cmd
}

func newBuffReadCmd() *cobra.Command {
	var accountID string
	var buffType int32

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print an account's expiry timestamp for a buff type",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			expiresAt, err := a.buffs.ReadBuff(cmd.Context(), accountID, buffType)
			if err != nil {
				return err
			}
			fmt.Printf("expires_at=%d\n", expiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().Int32Var(&buffType, "buff-type", 0, "buff type")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("buff-type")
	return cmd
}
