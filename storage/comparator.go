package storage

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/latchdb/tablekernel/pkg/resource/util"
)

// Comparator gives the in-memory tree index a total order over arbitrary
// column values; the badger B-tree orders entries by their encoded key
// bytes and does not consult it. String values are ordered with a locale
// collator rather than a byte-wise comparison; every other type falls
// back to pkg/resource/util's numeric/string comparison.
type Comparator struct {
	collator *collate.Collator
}

// NewComparator builds a Comparator using collation rules for und (root
// locale), which gives a stable, locale-independent string order.
func NewComparator() *Comparator {
	return &Comparator{collator: collate.New(language.Und)}
}

// Compare orders two column values, returning -1, 0, or 1.
func (c *Comparator) Compare(a, b interface{}) int {
	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return c.collator.CompareString(aStr, bStr)
	}
	return util.CompareValues(a, b)
}

// CompareKeys orders two composite index keys column-by-column, the first
// non-equal column determining the order. Used by the tree index.
func (c *Comparator) CompareKeys(a, b []interface{}) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if cmp := c.Compare(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return len(a) - len(b)
}
