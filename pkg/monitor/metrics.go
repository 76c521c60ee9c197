package monitor

import (
	"sync"
	"time"
)

// MetricsCollector aggregates lock-manager and analyze-scheduler counters
// for a running database instance.
type MetricsCollector struct {
	mu               sync.RWMutex
	lockRequests     int64
	lockGrants       int64
	lockWaits        int64
	totalWaitTime    time.Duration
	deadlockCount    int64
	timeoutCount     int64
	analyzeTriggers  int64
	rebuildBatches   int64
	tableWaitCount   map[string]int64
	startTime        time.Time
}

// NewMetricsCollector creates a metrics collector with empty counters.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		tableWaitCount: make(map[string]int64),
		startTime:      time.Now(),
	}
}

// RecordLockRequest records a call to Table.Lock, whether or not it had to wait.
func (m *MetricsCollector) RecordLockRequest(tableName string, waited bool, waitTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lockRequests++
	m.lockGrants++
	if waited {
		m.lockWaits++
		m.totalWaitTime += waitTime
		if tableName != "" {
			m.tableWaitCount[tableName]++
		}
	}
}

// RecordDeadlock records a detected deadlock cycle.
func (m *MetricsCollector) RecordDeadlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadlockCount++
}

// RecordTimeout records a lock-timeout failure.
func (m *MetricsCollector) RecordTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeoutCount++
}

// RecordAnalyzeTrigger records the analyze scheduler marking a table for
// analyze.
func (m *MetricsCollector) RecordAnalyzeTrigger() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzeTriggers++
}

// RecordRebuildBatch records one flushed batch during an online index
// rebuild.
func (m *MetricsCollector) RecordRebuildBatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildBatches++
}

// GetLockRequests returns the total number of lock requests observed.
func (m *MetricsCollector) GetLockRequests() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lockRequests
}

// GetDeadlockCount returns the number of detected deadlocks.
func (m *MetricsCollector) GetDeadlockCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deadlockCount
}

// GetTimeoutCount returns the number of lock timeouts.
func (m *MetricsCollector) GetTimeoutCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeoutCount
}

// GetContentionRate returns the percentage (0-100) of lock requests that had to wait.
func (m *MetricsCollector) GetContentionRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lockRequests == 0 {
		return 0
	}
	return float64(m.lockWaits) / float64(m.lockRequests) * 100
}

// GetAvgWaitTime returns the average wait time across all waiting lock requests.
func (m *MetricsCollector) GetAvgWaitTime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lockWaits == 0 {
		return 0
	}
	return m.totalWaitTime / time.Duration(m.lockWaits)
}

// GetTableWaitCount returns the number of waits recorded against a table.
func (m *MetricsCollector) GetTableWaitCount(tableName string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tableWaitCount[tableName]
}

// GetUptime returns how long this collector has been running.
func (m *MetricsCollector) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// Reset clears all counters.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lockRequests = 0
	m.lockGrants = 0
	m.lockWaits = 0
	m.totalWaitTime = 0
	m.deadlockCount = 0
	m.timeoutCount = 0
	m.analyzeTriggers = 0
	m.rebuildBatches = 0
	m.tableWaitCount = make(map[string]int64)
	m.startTime = time.Now()
}

// LockMetrics is a point-in-time snapshot of MetricsCollector.
type LockMetrics struct {
	LockRequests    int64
	LockWaits       int64
	ContentionRate  float64
	AvgWaitTime     time.Duration
	DeadlockCount   int64
	TimeoutCount    int64
	AnalyzeTriggers int64
	RebuildBatches  int64
	TableWaitCount  map[string]int64
	Uptime          time.Duration
}

// GetSnapshot returns a consistent snapshot of all counters.
func (m *MetricsCollector) GetSnapshot() *LockMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var contentionRate float64
	var avgWait time.Duration
	if m.lockRequests > 0 {
		contentionRate = float64(m.lockWaits) / float64(m.lockRequests) * 100
	}
	if m.lockWaits > 0 {
		avgWait = m.totalWaitTime / time.Duration(m.lockWaits)
	}

	tableWaitCopy := make(map[string]int64, len(m.tableWaitCount))
	for k, v := range m.tableWaitCount {
		tableWaitCopy[k] = v
	}

	return &LockMetrics{
		LockRequests:    m.lockRequests,
		LockWaits:       m.lockWaits,
		ContentionRate:  contentionRate,
		AvgWaitTime:     avgWait,
		DeadlockCount:   m.deadlockCount,
		TimeoutCount:    m.timeoutCount,
		AnalyzeTriggers: m.analyzeTriggers,
		RebuildBatches:  m.rebuildBatches,
		TableWaitCount:  tableWaitCopy,
		Uptime:          time.Since(m.startTime),
	}
}
