// Package ledger implements the append-only stack ledger (§4.3): Create,
// Destroy and Split, plus the companion `latest` current-balance index. Every
// primitive here accepts an externally owned *sql.Tx so callers (the
// internal/actions composite operations) can bracket several primitives in
// one transaction, per §5's "cooperative, single-threaded per request but
// many requests in parallel" scheduling model.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/clusterium/invledger/internal/idhash"
	"github.com/clusterium/invledger/internal/metrics"
)

// observe times a ledger primitive and records its outcome as one
// counter/histogram pair per operation kind.
func observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	metrics.LedgerOpsTotal.WithLabelValues(op, outcome).Inc()
	metrics.LedgerOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Create inserts a brand-new stack_uuid and credits qty to account_id
// (§4.3.1). The Consumed insert is the serialization point for first-touch:
// a conflict there is the cross-player loot race loser (DuplicateStackError).
func Create(tx *sql.Tx, stackUUID [16]byte, itemType int32, qty int32, accountID string) (err error) {
	defer observe("create", time.Now(), &err)

	if qty <= 0 {
		return fmt.Errorf("create: qty must be positive, got %d", qty)
	}

	latestKey := idhash.LatestKey(accountID, stackUUID)

	if _, err := tx.Exec(`INSERT INTO consumed (stack_uuid) VALUES ($1)`, stackUUID[:]); err != nil {
		if isUniqueViolation(err) {
			return &DuplicateStackError{StackUUID: stackUUID}
		}
		return fmt.Errorf("insert consumed: %w", err)
	}

	var ledgerKey int64
	composite := idhash.CompositeKey(accountID, stackUUID, 0)
	err = tx.QueryRow(`
		INSERT INTO ledger (account_id, stack_uuid, sequence_number, composite, qty, balance, item_type)
		VALUES ($1, $2, 0, $3, $4, $4, $5)
		RETURNING key`,
		accountID, stackUUID[:], composite[:], qty, itemType,
	).Scan(&ledgerKey)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO latest (key, account_id, stack_uuid, sequence_number, balance, item_type)
		VALUES ($1, $2, $3, 0, $4, $5)`,
		latestKey[:], accountID, stackUUID[:], qty, itemType,
	); err != nil {
		return fmt.Errorf("insert latest: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO stacks (stack_uuid, latest_keys, ledger_entries)
		VALUES ($1, $2, $3)`,
		stackUUID[:], pq.Array([][]byte{latestKey[:]}), pq.Array([]int64{ledgerKey}),
	); err != nil {
		return fmt.Errorf("insert stacks backref: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE inventories SET latest_keys = array_append(latest_keys, $1)
		WHERE account_id = $2`,
		latestKey[:], accountID,
	)
	if err != nil {
		return fmt.Errorf("append inventory latest_key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &UnknownAccountError{AccountID: accountID}
	}

	return nil
}

// latestRow is the row read at the top of Destroy/Split-credit.
type latestRow struct {
	key            []byte
	sequenceNumber int32
	balance        int32
	itemType       int32
}

func readLatest(tx *sql.Tx, latestKey [16]byte) (*latestRow, error) {
	row := &latestRow{}
	err := tx.QueryRow(`
		SELECT sequence_number, balance, item_type FROM latest WHERE key = $1`,
		latestKey[:],
	).Scan(&row.sequenceNumber, &row.balance, &row.itemType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest: %w", err)
	}
	row.key = latestKey[:]
	return row, nil
}

// Destroy debits qty from account_id's stack_uuid (§4.3.2). The account must
// already own the stack (UnknownStackError otherwise); the claimed item type
// and requested quantity are validated against the current Latest row before
// any write happens.
func Destroy(tx *sql.Tx, stackUUID [16]byte, expectedItemType int32, accountID string, qty int32) (err error) {
	defer observe("destroy", time.Now(), &err)

	if qty <= 0 {
		return fmt.Errorf("destroy: qty must be positive, got %d", qty)
	}

	latestKey := idhash.LatestKey(accountID, stackUUID)
	latest, err := readLatest(tx, latestKey)
	if err != nil {
		return err
	}
	if latest == nil {
		return &UnknownStackError{AccountID: accountID, StackUUID: stackUUID}
	}

	if expectedItemType != latest.itemType {
		return &ItemTypeMismatchError{
			AccountID: accountID,
			StackUUID: stackUUID,
			Expected:  expectedItemType,
			Actual:    latest.itemType,
		}
	}

	if qty > latest.balance {
		return &NotEnoughBalanceError{
			AccountID: accountID,
			StackUUID: stackUUID,
			Qty:       qty,
			Balance:   latest.balance,
		}
	}

	newSeq := latest.sequenceNumber + 1
	newBalance := latest.balance - qty

	if err := appendLedgerEntry(tx, accountID, stackUUID, newSeq, -qty, newBalance, latest.itemType); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE latest SET sequence_number = $1, balance = $2 WHERE key = $3`,
		newSeq, newBalance, latestKey[:],
	); err != nil {
		return fmt.Errorf("update latest: %w", err)
	}

	if newBalance == 0 {
		if err := removeFromIndexes(tx, accountID, stackUUID, latestKey); err != nil {
			return err
		}
	}

	return nil
}

// Split transfers qty of stack_uuid from sender_id to recipient_id in one
// transaction (§4.3.3): a Destroy on the sender followed by a credit to the
// recipient, which either inserts a fresh Latest row (first appearance) or
// updates an existing one (possibly reviving it from Dormant).
func Split(tx *sql.Tx, stackUUID [16]byte, expectedItemType int32, senderID, recipientID string, qty int32) (err error) {
	defer observe("split", time.Now(), &err)

	if err := Destroy(tx, stackUUID, expectedItemType, senderID, qty); err != nil {
		return err
	}

	recipientKey := idhash.LatestKey(recipientID, stackUUID)
	recipientLatest, err := readLatest(tx, recipientKey)
	if err != nil {
		return err
	}

	if recipientLatest == nil {
		return creditNewRecipient(tx, stackUUID, recipientKey, recipientID, expectedItemType, qty)
	}
	return creditExistingRecipient(tx, stackUUID, recipientKey, recipientID, recipientLatest, qty)
}

func creditNewRecipient(tx *sql.Tx, stackUUID [16]byte, recipientKey [16]byte, recipientID string, itemType int32, qty int32) error {
	if err := appendLedgerEntry(tx, recipientID, stackUUID, 0, qty, qty, itemType); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO latest (key, account_id, stack_uuid, sequence_number, balance, item_type)
		VALUES ($1, $2, $3, 0, $4, $5)`,
		recipientKey[:], recipientID, stackUUID[:], qty, itemType,
	); err != nil {
		return fmt.Errorf("insert latest for new recipient: %w", err)
	}

	return addToIndexes(tx, recipientID, stackUUID, recipientKey)
}

func creditExistingRecipient(tx *sql.Tx, stackUUID [16]byte, recipientKey [16]byte, recipientID string, latest *latestRow, qty int32) error {
	newSeq := latest.sequenceNumber + 1
	newBalance := latest.balance + qty

	if err := appendLedgerEntry(tx, recipientID, stackUUID, newSeq, qty, newBalance, latest.itemType); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE latest SET sequence_number = $1, balance = $2 WHERE key = $3`,
		newSeq, newBalance, recipientKey[:],
	); err != nil {
		return fmt.Errorf("update latest for recipient: %w", err)
	}

	// A prior balance of 0 means this pair was Dormant: the key had
	// already been removed from both indexes and must be re-added now
	// that the stack is active again for this recipient.
	if latest.balance == 0 {
		return addToIndexes(tx, recipientID, stackUUID, recipientKey)
	}
	return nil
}

func appendLedgerEntry(tx *sql.Tx, accountID string, stackUUID [16]byte, seq, qty, balance, itemType int32) error {
	composite := idhash.CompositeKey(accountID, stackUUID, seq)
	_, err := tx.Exec(`
		INSERT INTO ledger (account_id, stack_uuid, sequence_number, composite, qty, balance, item_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountID, stackUUID[:], seq, composite[:], qty, balance, itemType,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// IsRetryable reports whether err is a serialization conflict the caller
// should retry by re-reading Latest and re-running the whole operation in a
// fresh transaction (§5's "ledger unique-violation" retry point).
func IsRetryable(err error) bool {
	return isUniqueViolation(err)
}

func addToIndexes(tx *sql.Tx, accountID string, stackUUID [16]byte, latestKey [16]byte) error {
	res, err := tx.Exec(`
		UPDATE inventories SET latest_keys = array_append(latest_keys, $1) WHERE account_id = $2`,
		latestKey[:], accountID,
	)
	if err != nil {
		return fmt.Errorf("append inventory latest_key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &UnknownAccountError{AccountID: accountID}
	}
	if _, err := tx.Exec(`
		UPDATE stacks SET latest_keys = array_append(latest_keys, $1) WHERE stack_uuid = $2`,
		latestKey[:], stackUUID[:],
	); err != nil {
		return fmt.Errorf("append stacks latest_key: %w", err)
	}
	return nil
}

func removeFromIndexes(tx *sql.Tx, accountID string, stackUUID [16]byte, latestKey [16]byte) error {
	if _, err := tx.Exec(`
		UPDATE inventories SET latest_keys = array_remove(latest_keys, $1) WHERE account_id = $2`,
		latestKey[:], accountID,
	); err != nil {
		return fmt.Errorf("remove inventory latest_key: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE stacks SET latest_keys = array_remove(latest_keys, $1) WHERE stack_uuid = $2`,
		latestKey[:], stackUUID[:],
	); err != nil {
		return fmt.Errorf("remove stacks latest_key: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
