package pageindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latchdb/tablekernel/storage"
)

func TestTreeIndexMemory_OrdersByColumn(t *testing.T) {
	session := storage.NewSession(0)
	scan := NewScanIndexMemory("t1")
	cmp := storage.NewComparator()
	idx := NewTreeIndexMemory("by_age", []int{0}, cmp, newLookupOver(scan))

	for _, age := range []int{30, 10, 20} {
		row := storage.NewRow(0, []interface{}{age})
		require.NoError(t, scan.Add(session, row))
		require.NoError(t, idx.Add(session, row))
	}

	cursor, err := idx.Find(session, nil, nil)
	require.NoError(t, err)
	var ages []interface{}
	for cursor.Next() {
		ages = append(ages, cursor.Row().Values[0])
	}
	assert.Equal(t, []interface{}{10, 20, 30}, ages)
}

func TestTreeIndexMemory_CompositeKeyOrdering(t *testing.T) {
	session := storage.NewSession(0)
	scan := NewScanIndexMemory("t1")
	cmp := storage.NewComparator()
	idx := NewTreeIndexMemory("by_last_first", []int{0, 1}, cmp, newLookupOver(scan))

	rows := [][]interface{}{
		{"smith", "bob"},
		{"adams", "zoe"},
		{"smith", "alice"},
	}
	for _, v := range rows {
		row := storage.NewRow(0, v)
		require.NoError(t, scan.Add(session, row))
		require.NoError(t, idx.Add(session, row))
	}

	cursor, err := idx.Find(session, nil, nil)
	require.NoError(t, err)
	var out [][]interface{}
	for cursor.Next() {
		out = append(out, cursor.Row().Values)
	}
	require.Len(t, out, 3)
	assert.Equal(t, "adams", out[0][0])
	assert.Equal(t, "smith", out[1][0])
	assert.Equal(t, "alice", out[1][1])
	assert.Equal(t, "smith", out[2][0])
	assert.Equal(t, "bob", out[2][1])
}

func TestTreeIndexMemory_RemoveAndTruncate(t *testing.T) {
	session := storage.NewSession(0)
	scan := NewScanIndexMemory("t1")
	cmp := storage.NewComparator()
	idx := NewTreeIndexMemory("by_age", []int{0}, cmp, newLookupOver(scan))

	row := storage.NewRow(0, []interface{}{42})
	require.NoError(t, scan.Add(session, row))
	require.NoError(t, idx.Add(session, row))
	require.NoError(t, idx.Remove(session, row))

	count, err := idx.GetRowCount(session)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, idx.Add(session, row))
	require.NoError(t, idx.Truncate(session))
	count, err = idx.GetRowCount(session)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
