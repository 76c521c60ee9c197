package monitor

import (
	"fmt"
	"sync"
	"time"
)

// LockWaitRecord is one diagnostic entry for a lock request that had to wait
// past the configured threshold before being granted.
type LockWaitRecord struct {
	ID        int64
	TableName string
	Mode      string // "shared" or "exclusive"
	Waiter    string // session ID that waited
	Holder    string // session ID holding the lock at record time, if known
	Duration  time.Duration
	Timestamp time.Time
	Err       string // non-empty if the wait ended in timeout or deadlock
}

// LockWaitAnalyzer is a bounded ring buffer of recent lock-wait diagnostics,
// repurposed from query timing to lock timing.
type LockWaitAnalyzer struct {
	mu         sync.RWMutex
	records    []*LockWaitRecord
	recordMap  map[int64]*LockWaitRecord
	threshold  time.Duration
	maxEntries int
	nextID     int64
}

// NewLockWaitAnalyzer creates a lock-wait analyzer. Waits shorter than
// threshold are not recorded; at most maxEntries are retained (oldest
// evicted first).
func NewLockWaitAnalyzer(threshold time.Duration, maxEntries int) *LockWaitAnalyzer {
	return &LockWaitAnalyzer{
		records:    make([]*LockWaitRecord, 0, maxEntries),
		recordMap:  make(map[int64]*LockWaitRecord),
		threshold:  threshold,
		maxEntries: maxEntries,
		nextID:     1,
	}
}

// IsNotable reports whether a wait duration meets the recording threshold.
func (a *LockWaitAnalyzer) IsNotable(duration time.Duration) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return duration >= a.threshold
}

// RecordWait records a lock wait, returning its record ID, or 0 if the
// duration did not meet the threshold.
func (a *LockWaitAnalyzer) RecordWait(tableName, mode, waiter, holder string, duration time.Duration) int64 {
	return a.recordWait(tableName, mode, waiter, holder, duration, "")
}

// RecordWaitFailure records a lock wait that ended in timeout or deadlock.
func (a *LockWaitAnalyzer) RecordWaitFailure(tableName, mode, waiter, holder string, duration time.Duration, cause error) int64 {
	var msg string
	if cause != nil {
		msg = cause.Error()
	}
	return a.recordWait(tableName, mode, waiter, holder, duration, msg)
}

func (a *LockWaitAnalyzer) recordWait(tableName, mode, waiter, holder string, duration time.Duration, errMsg string) int64 {
	if errMsg == "" && !a.IsNotable(duration) {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec := &LockWaitRecord{
		ID:        a.nextID,
		TableName: tableName,
		Mode:      mode,
		Waiter:    waiter,
		Holder:    holder,
		Duration:  duration,
		Timestamp: time.Now(),
		Err:       errMsg,
	}

	a.recordMap[rec.ID] = rec
	a.records = append(a.records, rec)
	a.nextID++

	if len(a.records) > a.maxEntries {
		oldest := a.records[0]
		delete(a.recordMap, oldest.ID)
		a.records = a.records[1:]
	}

	return rec.ID
}

// Get returns a single record by ID.
func (a *LockWaitAnalyzer) Get(id int64) (*LockWaitRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.recordMap[id]
	return rec, ok
}

// All returns a copy of every retained record, oldest first.
func (a *LockWaitAnalyzer) All() []*LockWaitRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]*LockWaitRecord, len(a.records))
	copy(result, a.records)
	return result
}

// ByTable returns retained records for a single table.
func (a *LockWaitAnalyzer) ByTable(tableName string) []*LockWaitRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := []*LockWaitRecord{}
	for _, rec := range a.records {
		if rec.TableName == tableName {
			result = append(result, rec)
		}
	}
	return result
}

// Count returns the number of retained records.
func (a *LockWaitAnalyzer) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Clear discards all retained records.
func (a *LockWaitAnalyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = make([]*LockWaitRecord, 0, a.maxEntries)
	a.recordMap = make(map[int64]*LockWaitRecord)
	a.nextID = 1
}

// SetThreshold changes the recording threshold.
func (a *LockWaitAnalyzer) SetThreshold(threshold time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = threshold
}

// Threshold returns the current recording threshold.
func (a *LockWaitAnalyzer) Threshold() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.threshold
}

// TableWaitStats summarizes retained lock waits for a single table.
type TableWaitStats struct {
	TableName    string
	WaitCount    int
	FailureCount int
	TotalWait    time.Duration
	MaxWait      time.Duration
	AvgWait      time.Duration
}

// LockWaitAnalysis summarizes all retained lock-wait records.
type LockWaitAnalysis struct {
	TotalWaits   int
	FailureCount int
	TotalWait    time.Duration
	AvgWait      time.Duration
	MaxWait      time.Duration
	TableStats   map[string]*TableWaitStats
}

// Analyze computes an aggregate summary over all retained records.
func (a *LockWaitAnalyzer) Analyze() *LockWaitAnalysis {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.records) == 0 {
		return &LockWaitAnalysis{TableStats: make(map[string]*TableWaitStats)}
	}

	analysis := &LockWaitAnalysis{
		TotalWaits: len(a.records),
		TableStats: make(map[string]*TableWaitStats),
	}

	var total time.Duration
	for _, rec := range a.records {
		total += rec.Duration
		if rec.Duration > analysis.MaxWait {
			analysis.MaxWait = rec.Duration
		}
		if rec.Err != "" {
			analysis.FailureCount++
		}

		stats, ok := analysis.TableStats[rec.TableName]
		if !ok {
			stats = &TableWaitStats{TableName: rec.TableName}
			analysis.TableStats[rec.TableName] = stats
		}
		stats.WaitCount++
		stats.TotalWait += rec.Duration
		if rec.Duration > stats.MaxWait {
			stats.MaxWait = rec.Duration
		}
		if rec.Err != "" {
			stats.FailureCount++
		}
	}

	analysis.TotalWait = total
	analysis.AvgWait = total / time.Duration(len(a.records))
	for _, stats := range analysis.TableStats {
		stats.AvgWait = stats.TotalWait / time.Duration(stats.WaitCount)
	}

	return analysis
}

// Diagnostics returns human-readable lines describing tables under
// sustained lock contention, for operators inspecting the trace sink.
func (a *LockWaitAnalyzer) Diagnostics() []string {
	analysis := a.Analyze()
	lines := []string{}

	if analysis.TotalWaits > 100 {
		lines = append(lines, fmt.Sprintf("%d lock waits recorded; check for long-held table locks", analysis.TotalWaits))
	}
	if analysis.AvgWait > time.Second {
		lines = append(lines, fmt.Sprintf("average lock wait is %v; consider shortening transaction scope", analysis.AvgWait))
	}

	for tableName, stats := range analysis.TableStats {
		if stats.WaitCount > 10 {
			lines = append(lines, fmt.Sprintf("table %s has %d recorded lock waits", tableName, stats.WaitCount))
		}
		if stats.FailureCount > 0 {
			lines = append(lines, fmt.Sprintf("table %s had %d failed lock waits (timeout or deadlock)", tableName, stats.FailureCount))
		}
	}

	return lines
}
