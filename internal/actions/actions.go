// Package actions implements the composite inventory operations of §4.5:
// each opens one transaction, invokes one or more internal/ledger
// primitives, and commits atomically. Retryable contention (a ledger
// unique-violation on a stale Latest read, per §5) is retried here by
// re-running the whole composite from a fresh transaction, not by patching
// up the failed one in place.
package actions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/clusterium/invledger/internal/idhash"
	"github.com/clusterium/invledger/internal/ledger"
	"github.com/clusterium/invledger/internal/metrics"
)

// Slice names one (stack_uuid, qty, expected_item_type) leg of a composite
// operation, matching the drop/craft slice shape in §4.5.
type Slice struct {
	StackUUID        [16]byte
	Qty              int32
	ExpectedItemType int32
}

// Actions brackets ledger primitives in transactions against db, making at
// most maxRetries attempts per composite call when contention is retryable.
type Actions struct {
	db         *sql.DB
	maxRetries int
}

// New returns an Actions with the given contention-retry bound (§5's "bounded
// internal retry" for the ledger unique-violation serialization point).
func New(db *sql.DB, maxRetries int) *Actions {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Actions{db: db, maxRetries: maxRetries}
}

// withRetry runs fn in a fresh transaction, retrying the entire attempt (not
// just the failed statement) when fn's error is a ledger unique-violation,
// per §5's "loser sees a unique-violation and must retry the full operation
// (recompute from a fresh Latest read)".
func (a *Actions) withRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		err := a.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !ledger.IsRetryable(err) {
			return err
		}
		metrics.ContentionRetriesTotal.Inc()
	}
	metrics.ContentionExceededTotal.Inc()
	return &ledger.ContentionExceededError{Op: "composite action", Attempts: a.maxRetries}
}

func (a *Actions) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateFromXYZA computes stack_uuid = xyza_uuid(x,y,z,a) and credits qty to
// account_id (§4.5). If Consumed already contains the uuid, the transaction
// aborts with DuplicateStack: the cross-player loot race loser.
func (a *Actions) CreateFromXYZA(ctx context.Context, x, y, z int64, coordA uint32, itemType, qty int32, accountID string) ([16]byte, error) {
	stackUUID := idhash.XYZAUUID(x, y, z, coordA)
	err := a.withRetry(ctx, func(tx *sql.Tx) error {
		return ledger.Create(tx, stackUUID, itemType, qty, accountID)
	})
	if err != nil {
		return [16]byte{}, err
	}
	return stackUUID, nil
}

// Drop moves each slice from account_id to toWorld, the opaque virtual
// recipient identifier (§4.5, §4.6).
func (a *Actions) Drop(ctx context.Context, accountID string, slices []Slice, toWorld string) error {
	return a.withRetry(ctx, func(tx *sql.Tx) error {
		for _, s := range slices {
			if err := ledger.Split(tx, s.StackUUID, s.ExpectedItemType, accountID, toWorld, s.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

// GatherFromEntity is the inverse of Drop: it pulls slices back out of a
// virtual inventory (to_world, a bag, a chest) into account_id. It is the
// code this system needs to make §8's "drop followed by gather by another
// account transfers exactly q with no net creation" law checkable, not just
// statable.
func (a *Actions) GatherFromEntity(ctx context.Context, entityID string, slices []Slice, accountID string) error {
	return a.withRetry(ctx, func(tx *sql.Tx) error {
		for _, s := range slices {
			if err := ledger.Split(tx, s.StackUUID, s.ExpectedItemType, entityID, accountID, s.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

// Craft destroys each input slice (each carrying its own expected_item_type
// to guard against a stale client) and creates a brand-new, non-spatial
// stack with a random stack_uuid and qty balance of craftedItemType (§4.5).
// The uuid is a random version-4 UUID from crypto/rand-backed google/uuid
// (122 of its 128 bits are random; the rest are fixed version and variant
// bits); a collision with an existing Consumed row still surfaces as
// DuplicateStack rather than silently overwriting.
func (a *Actions) Craft(ctx context.Context, accountID string, slices []Slice, qty, craftedItemType int32) ([16]byte, error) {
	var newStackUUID [16]byte
	err := a.withRetry(ctx, func(tx *sql.Tx) error {
		for _, s := range slices {
			if err := ledger.Destroy(tx, s.StackUUID, s.ExpectedItemType, accountID, s.Qty); err != nil {
				return err
			}
		}
		newStackUUID = uuid.New()
		return ledger.Create(tx, newStackUUID, craftedItemType, qty, accountID)
	})
	if err != nil {
		return [16]byte{}, err
	}
	return newStackUUID, nil
}

// Trade is a symmetric two-party exchange: accountA's slicesFromA move to
// accountB and accountB's slicesFromB move to accountA, inside one
// transaction, failing atomically if either leg hits NotEnoughBalance or
// ItemTypeMismatch.
func (a *Actions) Trade(ctx context.Context, accountA string, slicesFromA []Slice, accountB string, slicesFromB []Slice) error {
	return a.withRetry(ctx, func(tx *sql.Tx) error {
		for _, s := range slicesFromA {
			if err := ledger.Split(tx, s.StackUUID, s.ExpectedItemType, accountA, accountB, s.Qty); err != nil {
				return err
			}
		}
		for _, s := range slicesFromB {
			if err := ledger.Split(tx, s.StackUUID, s.ExpectedItemType, accountB, accountA, s.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}
