package pageindex

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latchdb/tablekernel/storage"
)

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestScanIndexBadger_AddAssignsKey(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	row := storage.NewRow(0, []interface{}{"a"})
	require.NoError(t, idx.Add(session, row))
	assert.Equal(t, int64(1), row.Key)

	row2 := storage.NewRow(0, []interface{}{"b"})
	require.NoError(t, idx.Add(session, row2))
	assert.Equal(t, int64(2), row2.Key)
}

func TestScanIndexBadger_GetRowAndCount(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Add(session, storage.NewRow(0, []interface{}{i})))
	}

	count, err := idx.GetRowCount(session)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	row, err := idx.GetRow(session, 3)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, float64(2), row.Values[0])
}

func TestScanIndexBadger_GetRowMissingReturnsNil(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	row, err := idx.GetRow(session, 99)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestScanIndexBadger_RemoveAndFindRange(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Add(session, storage.NewRow(0, []interface{}{i})))
	}
	row3, err := idx.GetRow(session, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Remove(session, row3))

	cursor, err := idx.Find(session, int64(2), int64(5))
	require.NoError(t, err)
	defer cursor.Close()
	var keys []int64
	for cursor.Next() {
		keys = append(keys, cursor.Row().Key)
	}
	assert.Equal(t, []int64{2, 4, 5}, keys)
}

func TestScanIndexBadger_FindUnbounded(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	for i := 0; i < 3; i++ {
		require.NoError(t, idx.Add(session, storage.NewRow(0, []interface{}{i})))
	}

	cursor, err := idx.Find(session, nil, nil)
	require.NoError(t, err)
	defer cursor.Close()
	var keys []int64
	for cursor.Next() {
		keys = append(keys, cursor.Row().Key)
	}
	assert.Equal(t, []int64{1, 2, 3}, keys)
}

func TestScanIndexBadger_Truncate(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	session := storage.NewSession(0)

	require.NoError(t, idx.Add(session, storage.NewRow(0, []interface{}{1})))
	require.NoError(t, idx.Truncate(session))

	count, err := idx.GetRowCount(session)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestScanIndexBadger_SurvivesReopen(t *testing.T) {
	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	session := storage.NewSession(0)
	require.NoError(t, idx.Add(session, storage.NewRow(0, []interface{}{"persisted"})))
	require.NoError(t, idx.Close())
	require.NoError(t, db.Close())

	db2, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db2.Close() })
	idx2, err := NewScanIndexBadger(db2, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx2.Close() })

	row, err := idx2.GetRow(session, 1)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "persisted", row.Values[0])
}

func TestScanIndexBadger_Flags(t *testing.T) {
	db := openTestBadger(t)
	idx, err := NewScanIndexBadger(db, "t1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	assert.False(t, idx.NeedRebuild())
	assert.True(t, idx.IsUnique())
	assert.False(t, idx.IsHash())
	assert.False(t, idx.IsSpatial())
	assert.True(t, idx.IsPersistent())
}
