// Package inventory implements the read-only projection over an account's
// current stacks (§4.4): join Inventory.latest_keys against Latest rows.
package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/clusterium/invledger/internal/metrics"
)

// Stack is one (stack_uuid, balance, item_type) entry of an account's
// inventory.
type Stack struct {
	StackUUID [16]byte
	Balance   int32
	ItemType  int32
}

// Manager reads inventory projections. Reads are read-committed, not
// transactional with writes (§4.4): a returned balance reflects some
// committed state, never a torn row.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// GetInventory returns every (stack_uuid, balance, item_type) currently owned
// by account_id. An account with no inventory row has an empty inventory,
// not an error — provisioning that row is the account service's job.
func (m *Manager) GetInventory(ctx context.Context, accountID string) ([]Stack, error) {
	var latestKeys [][]byte
	err := m.db.QueryRowContext(ctx, `
		SELECT latest_keys FROM inventories WHERE account_id = $1`,
		accountID,
	).Scan(pq.Array(&latestKeys))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inventory latest_keys: %w", err)
	}

	if len(latestKeys) == 0 {
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT stack_uuid, balance, item_type FROM latest WHERE key = ANY($1)`,
		pq.Array(latestKeys),
	)
	if err != nil {
		return nil, fmt.Errorf("query latest rows: %w", err)
	}
	defer rows.Close()

	var stacks []Stack
	for rows.Next() {
		var uuidBytes []byte
		var s Stack
		if err := rows.Scan(&uuidBytes, &s.Balance, &s.ItemType); err != nil {
			return nil, fmt.Errorf("scan latest row: %w", err)
		}
		copy(s.StackUUID[:], uuidBytes)
		stacks = append(stacks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest rows: %w", err)
	}

	metrics.InventorySize.Observe(float64(len(stacks)))
	return stacks, nil
}
