package buffs

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/clusterium/invledger/internal/actions"
)

func newManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewManager(db, actions.New(db, 3)), mock
}

func TestObtainPermanentBuffUpserts(t *testing.T) {
	m, mock := newManager(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO buffs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := m.ObtainPermanentBuff(context.Background(), "accountA", 4)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeForBuffDebitsThenGrants(t *testing.T) {
	m, mock := newManager(t)

	var stackUUID [16]byte
	stackUUID[0] = 9

	// Drop debits the single slice to the buff sink.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sequence_number, balance, item_type FROM latest")).
		WillReturnRows(sqlmock.NewRows([]string{"sequence_number", "balance", "item_type"}).
			AddRow(int32(0), int32(5), int32(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE latest")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stacks SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Split's credit-to-new-recipient side for the buff sink account: the
	// sink has no latest row for this stack yet.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sequence_number, balance, item_type FROM latest")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO latest")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories SET latest_keys = array_append")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stacks SET latest_keys = array_append")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Grant transaction.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO buffs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slices := []actions.Slice{{StackUUID: stackUUID, Qty: 5, ExpectedItemType: 1}}
	err := m.ConsumeForBuff(context.Background(), "accountA", slices, 4, 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadBuffNotFound(t *testing.T) {
	m, mock := newManager(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM buffs")).
		WillReturnError(sql.ErrNoRows)

	_, err := m.ReadBuff(context.Background(), "accountA", 4)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
