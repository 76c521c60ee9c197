package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow_EstimatesMemory(t *testing.T) {
	row := NewRow(1, []interface{}{"hello", 42})
	assert.Equal(t, int64(8+16+5+16), row.Memory)
}

func TestRow_ColumnAndColumns(t *testing.T) {
	row := NewRow(1, []interface{}{"a", "b"})

	v, err := row.Column(1)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = row.Column(5)
	require.Error(t, err)
	var unsupported *ErrUnsupported
	assert.ErrorAs(t, err, &unsupported)

	values, err := row.Columns()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, values)
}

func TestRemovedRow(t *testing.T) {
	row := RemovedRow(7)
	assert.True(t, row.IsRemoved())
	assert.Equal(t, int64(8), row.Memory)

	_, err := row.Column(0)
	require.Error(t, err)
	var removed *ErrRemovedRow
	assert.ErrorAs(t, err, &removed)

	_, err = row.Columns()
	require.Error(t, err)
}
