package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparator_CompareStrings(t *testing.T) {
	c := NewComparator()
	assert.Negative(t, c.Compare("alice", "bob"))
	assert.Positive(t, c.Compare("bob", "alice"))
	assert.Zero(t, c.Compare("alice", "alice"))
}

func TestComparator_CompareNumeric(t *testing.T) {
	c := NewComparator()
	assert.Negative(t, c.Compare(1, 2))
	assert.Positive(t, c.Compare(2.5, 1.5))
}

func TestComparator_CompareKeys(t *testing.T) {
	c := NewComparator()
	assert.Negative(t, c.CompareKeys([]interface{}{"smith", "alice"}, []interface{}{"smith", "bob"}))
	assert.Zero(t, c.CompareKeys([]interface{}{"smith", "bob"}, []interface{}{"smith", "bob"}))
	assert.Positive(t, c.CompareKeys([]interface{}{"smith", "bob", "extra"}, []interface{}{"smith", "bob"}))
}
