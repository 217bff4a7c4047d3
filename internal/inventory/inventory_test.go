package inventory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestGetInventoryNoRowIsEmptyNotError(t *testing.T) {
	db, mock := newMock(t)
	m := NewManager(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT latest_keys FROM inventories WHERE account_id = $1")).
		WithArgs("nosuchaccount").
		WillReturnError(sql.ErrNoRows)

	stacks, err := m.GetInventory(context.Background(), "nosuchaccount")
	require.NoError(t, err)
	assert.Nil(t, stacks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInventoryEmptyLatestKeysSkipsSecondQuery(t *testing.T) {
	db, mock := newMock(t)
	m := NewManager(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT latest_keys FROM inventories WHERE account_id = $1")).
		WithArgs("accountA").
		WillReturnRows(sqlmock.NewRows([]string{"latest_keys"}).AddRow(byteaArrayValue(t, nil)))

	stacks, err := m.GetInventory(context.Background(), "accountA")
	require.NoError(t, err)
	assert.Nil(t, stacks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInventoryJoinsLatestRows(t *testing.T) {
	db, mock := newMock(t)
	m := NewManager(db)

	var keyA, keyB [16]byte
	keyA[0] = 1
	keyB[0] = 2

	mock.ExpectQuery(regexp.QuoteMeta("SELECT latest_keys FROM inventories WHERE account_id = $1")).
		WithArgs("accountA").
		WillReturnRows(sqlmock.NewRows([]string{"latest_keys"}).AddRow(byteaArrayValue(t, [][]byte{keyA[:], keyB[:]})))

	var stackA, stackB [16]byte
	stackA[0] = 10
	stackB[0] = 20

	mock.ExpectQuery(regexp.QuoteMeta("SELECT stack_uuid, balance, item_type FROM latest WHERE key = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"stack_uuid", "balance", "item_type"}).
			AddRow(stackA[:], int32(5), int32(7)).
			AddRow(stackB[:], int32(3), int32(9)))

	stacks, err := m.GetInventory(context.Background(), "accountA")
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	assert.Equal(t, stackA, stacks[0].StackUUID)
	assert.Equal(t, int32(5), stacks[0].Balance)
	assert.Equal(t, int32(7), stacks[0].ItemType)
	assert.Equal(t, stackB, stacks[1].StackUUID)
	assert.Equal(t, int32(3), stacks[1].Balance)
	assert.Equal(t, int32(9), stacks[1].ItemType)
	require.NoError(t, mock.ExpectationsWereMet())
}

// byteaArrayValue round-trips vals through pq.Array's own driver.Valuer so the
// row value sqlmock hands back is exactly what a real bytea[] column would
// produce, rather than a hand-rolled approximation of Postgres array syntax.
func byteaArrayValue(t *testing.T, vals [][]byte) driver.Value {
	t.Helper()
	v, err := pq.Array(vals).(driver.Valuer).Value()
	require.NoError(t, err)
	return v
}
