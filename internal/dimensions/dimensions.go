// Package dimensions names the closed set of virtual inventory recipients
// (§4.6): world dimensions and the parameterized briefcase form. The ledger
// itself treats these strings opaquely — this package exists only so
// callers above it (internal/actions, cmd/inventoryctl) spell them
// consistently instead of hand-rolling ad hoc strings.
package dimensions

import "fmt"

// Dimension is one of the closed set of known world dimensions.
type Dimension string

const (
	Overworld Dimension = "overworld"
	Nether    Dimension = "nether"
	End       Dimension = "the_end"
)

// KnownDimensions enumerates every Dimension this service recognizes.
var KnownDimensions = []Dimension{Overworld, Nether, End}

// IsKnown reports whether d is one of KnownDimensions.
func (d Dimension) IsKnown() bool {
	for _, known := range KnownDimensions {
		if d == known {
			return true
		}
	}
	return false
}

// String satisfies fmt.Stringer, returning the recipient identifier used as
// the ledger's account_id for this dimension.
func (d Dimension) String() string {
	return string(d)
}

// Briefcase returns the recipient identifier for an account's n-th
// briefcase: "{account}_b{n}" (§4.6). Briefcases are per-account virtual
// inventories distinct from the player's own account_id.
func Briefcase(accountID string, n int) string {
	return fmt.Sprintf("%s_b%d", accountID, n)
}
