package reliability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, SeverityCritical, Classify(ErrorTypeRollbackFailure))
	assert.Equal(t, SeverityCritical, Classify(ErrorTypeIndexCorruption))
	assert.Equal(t, SeverityHigh, Classify(ErrorTypeDeadlock))
	assert.Equal(t, SeverityHigh, Classify(ErrorTypeRebuildFailure))
	assert.Equal(t, SeverityMedium, Classify(ErrorTypeLockTimeout))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeLockTimeout))
	assert.False(t, IsRetryable(ErrorTypeRollbackFailure))
	assert.False(t, IsRetryable(ErrorTypeDeadlock))
}

func TestFailureRecorder_RecordAndStats(t *testing.T) {
	r := NewFailureRecorder(10)

	r.Record(ErrorTypeLockTimeout, "wait exceeded", errors.New("timeout"), nil)
	r.Record(ErrorTypeRollbackFailure, "rollback failed", errors.New("boom"), map[string]interface{}{"table": "orders"})

	stats := r.GetErrorStats()
	assert.Equal(t, 1, stats[ErrorTypeLockTimeout])
	assert.Equal(t, 1, stats[ErrorTypeRollbackFailure])
	assert.True(t, r.HasCritical())
}

func TestFailureRecorder_EvictsOldest(t *testing.T) {
	r := NewFailureRecorder(2)
	r.Record(ErrorTypeLockTimeout, "a", nil, nil)
	r.Record(ErrorTypeLockTimeout, "b", nil, nil)
	r.Record(ErrorTypeLockTimeout, "c", nil, nil)

	log := r.GetErrorLog(0, 10)
	assert.Len(t, log, 2)
	assert.Equal(t, "b", log[0].Message)
	assert.Equal(t, "c", log[1].Message)
}

func TestFailureRecorder_GetErrorLogPaging(t *testing.T) {
	r := NewFailureRecorder(10)
	for _, msg := range []string{"a", "b", "c"} {
		r.Record(ErrorTypeLockTimeout, msg, nil, nil)
	}

	page := r.GetErrorLog(1, 1)
	assert.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Message)

	assert.Empty(t, r.GetErrorLog(5, 5))
}

func TestFailureRecorder_NoCriticalWhenEmpty(t *testing.T) {
	r := NewFailureRecorder(10)
	assert.False(t, r.HasCritical())
}
