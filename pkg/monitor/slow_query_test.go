package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockWaitAnalyzer_RecordBelowThresholdIgnored(t *testing.T) {
	a := NewLockWaitAnalyzer(100*time.Millisecond, 10)
	id := a.RecordWait("orders", "exclusive", "s1", "s2", 10*time.Millisecond)
	assert.Equal(t, int64(0), id)
	assert.Equal(t, 0, a.Count())
}

func TestLockWaitAnalyzer_RecordAboveThreshold(t *testing.T) {
	a := NewLockWaitAnalyzer(50*time.Millisecond, 10)
	id := a.RecordWait("orders", "exclusive", "s1", "s2", 200*time.Millisecond)
	require.NotZero(t, id)

	rec, ok := a.Get(id)
	require.True(t, ok)
	assert.Equal(t, "orders", rec.TableName)
	assert.Equal(t, "s1", rec.Waiter)
	assert.Equal(t, "s2", rec.Holder)
}

func TestLockWaitAnalyzer_FailureAlwaysRecorded(t *testing.T) {
	a := NewLockWaitAnalyzer(time.Hour, 10)
	id := a.RecordWaitFailure("orders", "exclusive", "s1", "s2", time.Millisecond, errors.New("deadlock detected"))
	require.NotZero(t, id)

	rec, ok := a.Get(id)
	require.True(t, ok)
	assert.Equal(t, "deadlock detected", rec.Err)
}

func TestLockWaitAnalyzer_EvictsOldest(t *testing.T) {
	a := NewLockWaitAnalyzer(0, 2)
	id1 := a.RecordWait("t1", "shared", "s1", "", time.Millisecond)
	a.RecordWait("t1", "shared", "s2", "", time.Millisecond)
	a.RecordWait("t1", "shared", "s3", "", time.Millisecond)

	assert.Equal(t, 2, a.Count())
	_, ok := a.Get(id1)
	assert.False(t, ok)
}

func TestLockWaitAnalyzer_ByTable(t *testing.T) {
	a := NewLockWaitAnalyzer(0, 10)
	a.RecordWait("orders", "shared", "s1", "", time.Millisecond)
	a.RecordWait("users", "shared", "s2", "", time.Millisecond)

	assert.Len(t, a.ByTable("orders"), 1)
	assert.Len(t, a.ByTable("users"), 1)
	assert.Empty(t, a.ByTable("missing"))
}

func TestLockWaitAnalyzer_Analyze(t *testing.T) {
	a := NewLockWaitAnalyzer(0, 10)
	a.RecordWait("orders", "shared", "s1", "", 10*time.Millisecond)
	a.RecordWait("orders", "shared", "s2", "", 30*time.Millisecond)
	a.RecordWaitFailure("orders", "exclusive", "s3", "s1", 5*time.Millisecond, errors.New("lock timeout"))

	analysis := a.Analyze()
	assert.Equal(t, 3, analysis.TotalWaits)
	assert.Equal(t, 1, analysis.FailureCount)
	assert.Equal(t, 30*time.Millisecond, analysis.MaxWait)

	stats := analysis.TableStats["orders"]
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.WaitCount)
	assert.Equal(t, 1, stats.FailureCount)
}

func TestLockWaitAnalyzer_Clear(t *testing.T) {
	a := NewLockWaitAnalyzer(0, 10)
	a.RecordWait("orders", "shared", "s1", "", time.Millisecond)
	a.Clear()

	assert.Equal(t, 0, a.Count())
	assert.Empty(t, a.Analyze().TableStats)
}

func TestLockWaitAnalyzer_Diagnostics(t *testing.T) {
	a := NewLockWaitAnalyzer(0, 20)
	for i := 0; i < 11; i++ {
		a.RecordWait("orders", "shared", "s1", "", time.Millisecond)
	}

	lines := a.Diagnostics()
	assert.NotEmpty(t, lines)
}
