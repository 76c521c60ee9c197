package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegateIndex_AddAndRemoveAreNoOps(t *testing.T) {
	scan := newFakeIndex("scan")
	tbl := &Table{Name: "t1", indexes: []Index{scan}}
	d := newDelegateIndex("pk", tbl, 0)
	session := NewSession(0)

	row := NewRow(1, []interface{}{"x"})
	require.NoError(t, d.Add(session, row))
	require.NoError(t, d.Remove(session, row))
	assert.Empty(t, scan.addCalls)
	assert.Empty(t, scan.remCalls)
}

func TestDelegateIndex_ForwardsReadsToScanIndex(t *testing.T) {
	scan := newFakeIndex("scan")
	tbl := &Table{Name: "t1", indexes: []Index{scan}}
	d := newDelegateIndex("pk", tbl, 0)
	session := NewSession(0)

	row := NewRow(1, []interface{}{"x"})
	require.NoError(t, scan.Add(session, row))

	got, err := d.GetRow(session, 1)
	require.NoError(t, err)
	assert.Same(t, row, got)

	count, err := d.GetRowCount(session)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDelegateIndex_Flags(t *testing.T) {
	tbl := &Table{Name: "t1", indexes: []Index{newFakeIndex("scan")}}
	d := newDelegateIndex("pk", tbl, 0)
	assert.False(t, d.NeedRebuild())
	assert.True(t, d.IsUnique())
	assert.False(t, d.IsHash())
	assert.False(t, d.IsSpatial())
	assert.True(t, d.IsPersistent())
	assert.True(t, d.isDelegateIndex())
	assert.True(t, isDelegate(d))
}
