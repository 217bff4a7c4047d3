package actions

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Actions, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, 3), mock
}

func TestCreateFromXYZAHappyPath(t *testing.T) {
	a, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consumed")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO latest")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stacks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stackUUID, err := a.CreateFromXYZA(context.Background(), 10, -3, 77, 5, 3, 1, "accountA")
	require.NoError(t, err)
	require.NotEqual(t, [16]byte{}, stackUUID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromXYZADuplicateStopsWithoutRetry(t *testing.T) {
	a, mock := newMock(t)

	// A DuplicateStackError is not retryable: the composite should not
	// re-run the operation even though maxRetries is 3.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consumed")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := a.CreateFromXYZA(context.Background(), 10, -3, 77, 5, 3, 1, "accountA")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCraftHappyPath(t *testing.T) {
	a, mock := newMock(t)

	var u1, u2 [16]byte
	u1[0], u2[0] = 1, 2

	mock.ExpectBegin()
	// Destroy U1
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sequence_number, balance, item_type FROM latest")).
		WillReturnRows(sqlmock.NewRows([]string{"sequence_number", "balance", "item_type"}).
			AddRow(int32(0), int32(3), int32(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE latest")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stacks SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Destroy U2
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sequence_number, balance, item_type FROM latest")).
		WillReturnRows(sqlmock.NewRows([]string{"sequence_number", "balance", "item_type"}).
			AddRow(int32(0), int32(2), int32(2)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE latest")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stacks SET latest_keys = array_remove")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Create the crafted stack
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consumed")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ledger")).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO latest")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stacks")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventories")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	slices := []Slice{
		{StackUUID: u1, Qty: 3, ExpectedItemType: 1},
		{StackUUID: u2, Qty: 2, ExpectedItemType: 2},
	}
	craftedUUID, err := a.Craft(context.Background(), "accountA", slices, 1, 99)
	require.NoError(t, err)
	require.NotEqual(t, [16]byte{}, craftedUUID)
	require.NoError(t, mock.ExpectationsWereMet())
}
