// Package buffs implements buff-granting operations: debit ledger stacks
// to pay for a buff, then record the grant as a row keyed by
// (account_id, buff_type) with an expiry timestamp. Only the ledger row
// is this package's concern — applying the buff's gameplay effect is an
// external runtime's job.
package buffs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clusterium/invledger/internal/actions"
)

// Permanent is the expires_at sentinel for a buff with no expiry.
const Permanent int64 = 0

// Manager grants and reads buffs, debiting the ledger through actions.Actions.
type Manager struct {
	db      *sql.DB
	actions *actions.Actions
}

func NewManager(db *sql.DB, a *actions.Actions) *Manager {
	return &Manager{db: db, actions: a}
}

// ObtainPermanentBuff grants buffType to accountID with no expiry and no
// cost, for buffs awarded by means outside the item economy (quest
// rewards, admin grants).
func (m *Manager) ObtainPermanentBuff(ctx context.Context, accountID string, buffType int32) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertBuff(tx, accountID, buffType, Permanent); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeForBuff moves each of debits out of accountID's stacks into the
// "buff_furnace" virtual account (via actions.Drop, i.e. ledger Split) and,
// once every debit succeeds, grants buffType expiring at expiresAt. A
// non-positive expiresAt means permanent. The debit runs and commits in its
// own transaction, with actions' unique-violation retry loop; the grant is
// written afterwards in a second transaction. The two are not atomic: if the
// grant fails, the committed debit stays in place.
func (m *Manager) ConsumeForBuff(ctx context.Context, accountID string, debits []actions.Slice, buffType int32, expiresAt int64) error {
	if expiresAt <= 0 {
		expiresAt = Permanent
	}

	// Debiting goes through internal/actions.Drop so the contention retry
	// loop and ledger error taxonomy stay uniform with every other
	// composite operation; the drop recipient is the buff system itself,
	// a virtual account that exists only to receive consumed ingredients.
	if err := m.actions.Drop(ctx, accountID, debits, "buff_furnace"); err != nil {
		return fmt.Errorf("debit for buff: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertBuff(tx, accountID, buffType, expiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertBuff(tx *sql.Tx, accountID string, buffType int32, expiresAt int64) error {
	_, err := tx.Exec(`
		INSERT INTO buffs (account_id, buff_type, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, buff_type) DO UPDATE SET expires_at = $3`,
		accountID, buffType, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert buff: %w", err)
	}
	return nil
}

// ReadBuff returns the expiry timestamp for accountID's buffType, or
// (0, sql.ErrNoRows) if the account holds no such buff.
func (m *Manager) ReadBuff(ctx context.Context, accountID string, buffType int32) (int64, error) {
	var expiresAt int64
	err := m.db.QueryRowContext(ctx, `
		SELECT expires_at FROM buffs WHERE account_id = $1 AND buff_type = $2`,
		accountID, buffType,
	).Scan(&expiresAt)
	if err != nil {
		return 0, err
	}
	return expiresAt, nil
}
