package main

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// fmtSscanSlice parses "stackUUIDHex:qty:itemType" into its three parts.
func fmtSscanSlice(s string, stackHex *string, qty, itemType *int32) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("slice %q must be stackUUIDHex:qty:itemType", s)
	}
	*stackHex = parts[0]
	if _, err := fmt.Sscanf(parts[1], "%d", qty); err != nil {
		return 0, fmt.Errorf("parse qty in slice %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", itemType); err != nil {
		return 0, fmt.Errorf("parse item type in slice %q: %w", s, err)
	}
	return 3, nil
}

func hexEncode(b [16]byte) string {
	return hex.EncodeToString(b[:])
}
