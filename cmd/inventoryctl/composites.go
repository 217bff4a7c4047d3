package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clusterium/invledger/internal/actions"
	"github.com/clusterium/invledger/internal/dimensions"
)

// resolveVirtualRecipient picks the effective opaque recipient/source
// identifier for drop/gather (§4.6). At least one of three ways to name it
// is required: a raw --to-world/--from-entity string, a known dimension
// name resolved through internal/dimensions, or --briefcase, which names
// the calling account's n-th private briefcase. When several are given,
// the raw string wins, then the dimension, then the briefcase.
func resolveVirtualRecipient(explicit, dim string, briefcaseN int, accountID string) (string, error) {
	switch {
	case explicit != "":
		return explicit, nil
	case dim != "":
		d := dimensions.Dimension(dim)
		if !d.IsKnown() {
			return "", fmt.Errorf("unknown dimension %q", dim)
		}
		return d.String(), nil
	case briefcaseN >= 0:
		return dimensions.Briefcase(accountID, briefcaseN), nil
	default:
		return "", fmt.Errorf("one of --to-world/--from-entity, --dimension, or --briefcase is required")
	}
}

// parseSlices parses repeated "stackUUIDHex:qty:itemType" triples from the
// command line into actions.Slice values shared by drop/gather/craft/trade.
func parseSlices(raw []string) ([]actions.Slice, error) {
	slices := make([]actions.Slice, 0, len(raw))
	for _, s := range raw {
		var stackHex string
		var qty, itemType int32
		_, err := fmtSscanSlice(s, &stackHex, &qty, &itemType)
		if err != nil {
			return nil, err
		}
		stackUUID, err := parseStackUUID(stackHex)
		if err != nil {
			return nil, err
		}
		slices = append(slices, actions.Slice{StackUUID: stackUUID, Qty: qty, ExpectedItemType: itemType})
	}
	return slices, nil
}

func newDropCmd() *cobra.Command {
	var accountID, toWorld, toDimension string
	var toBriefcase int
	var rawSlices []string

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Move slices from an account into a virtual world inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			recipient, err := resolveVirtualRecipient(toWorld, toDimension, toBriefcase, accountID)
			if err != nil {
				return err
			}

			slices, err := parseSlices(rawSlices)
			if err != nil {
				return err
			}
			if err := a.actions.Drop(cmd.Context(), accountID, slices, recipient); err != nil {
				return err
			}
			log.Info().Str("account_id", accountID).Str("to_world", recipient).Int("slices", len(slices)).Msg("dropped")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringVar(&toWorld, "to-world", "", "raw virtual recipient identifier")
	cmd.Flags().StringVar(&toDimension, "dimension", "", "known dimension name (overworld, nether, the_end)")
	cmd.Flags().IntVar(&toBriefcase, "briefcase", -1, "drop into the account's n-th briefcase instead")
	cmd.Flags().StringArrayVar(&rawSlices, "slice", nil, "stackUUIDHex:qty:itemType, repeatable")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newGatherCmd() *cobra.Command {
	var entityID, fromDimension, accountID string
	var fromBriefcase int
	var rawSlices []string

	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Pull slices from a virtual world inventory back into an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			source, err := resolveVirtualRecipient(entityID, fromDimension, fromBriefcase, accountID)
			if err != nil {
				return err
			}

			slices, err := parseSlices(rawSlices)
			if err != nil {
				return err
			}
			if err := a.actions.GatherFromEntity(cmd.Context(), source, slices, accountID); err != nil {
				return err
			}
			log.Info().Str("entity_id", source).Str("account_id", accountID).Int("slices", len(slices)).Msg("gathered")
			return nil
		},
	}
	cmd.Flags().StringVar(&entityID, "from-entity", "", "raw virtual source identifier")
	cmd.Flags().StringVar(&fromDimension, "dimension", "", "known dimension name (overworld, nether, the_end)")
	cmd.Flags().IntVar(&fromBriefcase, "briefcase", -1, "gather from the account's n-th briefcase instead")
	cmd.Flags().StringVar(&accountID, "account", "", "recipient account id")
	cmd.Flags().StringArrayVar(&rawSlices, "slice", nil, "stackUUIDHex:qty:itemType, repeatable")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newCraftCmd() *cobra.Command {
	var accountID string
	var rawSlices []string
	var qty, craftedItemType int32

	cmd := &cobra.Command{
		Use:   "craft",
		Short: "Destroy input slices and create a brand-new crafted stack",
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
			newUUID, err := a.actions.Craft(cmd.Context(), accountID, slices, qty, craftedItemType)
			if err != nil {
				return err
			}
			log.Info().Str("account_id", accountID).Str("new_stack_uuid", hexEncode(newUUID)).Msg("crafted")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "account id")
	cmd.Flags().StringArrayVar(&rawSlices, "slice", nil, "stackUUIDHex:qty:itemType, repeatable")
	cmd.Flags().Int32Var(&qty, "qty", 1, "quantity of the crafted stack")
	cmd.Flags().Int32Var(&craftedItemType, "crafted-item-type", 0, "item type of the crafted stack")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("crafted-item-type")
	return cmd
}

func newTradeCmd() *cobra.Command {
	var accountA, accountB string
	var rawSlicesA, rawSlicesB []string

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Exchange slices between two accounts atomically",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			slicesA, err := parseSlices(rawSlicesA)
			if err != nil {
				return err
			}
			slicesB, err := parseSlices(rawSlicesB)
			if err != nil {
				return err
			}
			if err := a.actions.Trade(cmd.Context(), accountA, slicesA, accountB, slicesB); err != nil {
				return err
			}
			log.Info().Str("account_a", accountA).Str("account_b", accountB).Msg("traded")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountA, "account-a", "", "first account id")
	cmd.Flags().StringVar(&accountB, "account-b", "", "second account id")
	cmd.Flags().StringArrayVar(&rawSlicesA, "from-a", nil, "stackUUIDHex:qty:itemType offered by account-a, repeatable")
	cmd.Flags().StringArrayVar(&rawSlicesB, "from-b", nil, "stackUUIDHex:qty:itemType offered by account-b, repeatable")
	cmd.MarkFlagRequired("account-a")
	cmd.MarkFlagRequired("account-b")
	return cmd
}
