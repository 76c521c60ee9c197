package storage

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/latchdb/tablekernel/pkg/config"
	"github.com/latchdb/tablekernel/pkg/reliability"
)

// Lock acquires a shared or exclusive lock on the table for session,
// returning whether the session already held it. force exists for
// interface parity with an MVCC-aware caller; this core has no MVCC path
// and ignores it.
func (t *Table) Lock(session *Session, exclusive bool, force bool) (bool, error) {
	if t.settings.LockMode == config.LockModeOff {
		t.db.lock()
		held := t.lockExclusiveSession != nil
		t.db.unlock()
		return held, nil
	}

	t.db.lock()

	if session == t.lockExclusiveSession {
		t.db.unlock()
		return true, nil
	}
	if !exclusive {
		if _, ok := t.lockSharedSessions[session]; ok {
			t.db.unlock()
			return true, nil
		}
	}

	start := time.Now()
	var wasAlreadyHeld bool
	var err error
	hadToWait := true
	if len(t.waitingSessions) == 0 && t.doLock2(session, exclusive) {
		hadToWait = false
	} else {
		wasAlreadyHeld, err = t.doLock1(session, exclusive, start)
	}
	var holder string
	if t.lockExclusiveSession != nil {
		holder = t.lockExclusiveSession.ID
	}
	t.db.unlock()

	waited := time.Since(start)
	t.db.Metrics.RecordLockRequest(t.Name, hadToWait, waited)
	if err != nil {
		t.db.LockWait.RecordWaitFailure(t.Name, lockModeLabel(exclusive), session.ID, holder, waited, err)
	} else if waited >= t.db.LockWait.Threshold() {
		t.db.LockWait.RecordWait(t.Name, lockModeLabel(exclusive), session.ID, holder, waited)
	}

	return wasAlreadyHeld, err
}

func lockModeLabel(exclusive bool) string {
	if exclusive {
		return "exclusive"
	}
	return "shared"
}

// doLock1 is the wait loop. Must be called with db.mu held; it releases
// and reacquires db.mu internally while waiting.
func (t *Table) doLock1(session *Session, exclusive bool, firstWaitAt time.Time) (bool, error) {
	t.waitingSessions = append(t.waitingSessions, session)
	session.SetWaitForLock(t.Name)

	defer func() {
		t.removeWaiting(session)
		session.ClearWaitForLock()
	}()

	var deadline time.Time
	attempt := 0

	for {
		if t.isHeadOfQueue(session) {
			if t.doLock2(session, exclusive) {
				return false, nil
			}
		}

		if attempt > 0 {
			if cycle, found := detectDeadlock(t.db, session); found {
				t.db.Metrics.RecordDeadlock()
				err := &ErrDeadlock{TableName: t.Name, Details: describeCycle(cycle)}
				t.db.Failures.Record(reliability.ErrorTypeDeadlock, err.Error(), err, nil)
				return false, err
			}
		}
		attempt++

		if deadline.IsZero() {
			deadline = firstWaitAt.Add(session.LockTimeout)
		}
		now := time.Now()
		if now.After(deadline) {
			t.db.Metrics.RecordTimeout()
			err := &ErrLockTimeout{TableName: t.Name, Timeout: session.LockTimeout.String()}
			t.db.Failures.Record(reliability.ErrorTypeLockTimeout, err.Error(), err, nil)
			return false, err
		}

		if t.settings.LockMode == config.LockModeTableGC {
			runGCHeuristic()
		}

		remaining := deadline.Sub(now)
		waitFor := t.settings.DeadlockCheck()
		if remaining < waitFor {
			waitFor = remaining
		}
		if waitFor < time.Millisecond {
			waitFor = time.Millisecond
		}

		t.db.waitLocked(waitFor)
	}
}

// runGCHeuristic preserves the observable behavior of the legacy TABLE_GC
// lock mode: run garbage collection cycles while free memory keeps
// changing, capped at 20. Of little use on a modern runtime's collector,
// kept for parity with that mode's documented behavior.
func runGCHeuristic() {
	var prev, cur runtime.MemStats
	runtime.ReadMemStats(&prev)
	for i := 0; i < 20; i++ {
		runtime.GC()
		runtime.ReadMemStats(&cur)
		if cur.HeapAlloc == prev.HeapAlloc {
			break
		}
		prev = cur
	}
}

// doLock2 attempts the grant. Must be called with db.mu held.
func (t *Table) doLock2(session *Session, exclusive bool) bool {
	if exclusive {
		if t.lockExclusiveSession != nil {
			return false
		}
		if len(t.lockSharedSessions) > 1 {
			return false
		}
		if len(t.lockSharedSessions) == 1 {
			if _, onlyHolder := t.lockSharedSessions[session]; !onlyHolder {
				return false
			}
		}
		t.lockExclusiveSession = session
		delete(t.lockSharedSessions, session)
		return true
	}

	if t.lockExclusiveSession != nil {
		return false
	}
	if t.settings.LockMode == config.LockModeReadCommitted {
		return true
	}
	t.lockSharedSessions[session] = struct{}{}
	return true
}

func (t *Table) isHeadOfQueue(session *Session) bool {
	return len(t.waitingSessions) > 0 && t.waitingSessions[0] == session
}

func (t *Table) removeWaiting(session *Session) {
	for i, s := range t.waitingSessions {
		if s == session {
			t.waitingSessions = append(t.waitingSessions[:i], t.waitingSessions[i+1:]...)
			return
		}
	}
}

// Unlock releases session's hold on the table, waking any waiters.
// Unlock must never fail.
func (t *Table) Unlock(session *Session) {
	t.db.lock()
	defer t.db.unlock()

	if t.lockExclusiveSession == session {
		t.lockExclusiveSession = nil
	}
	delete(t.lockSharedSessions, session)

	if len(t.waitingSessions) > 0 {
		t.db.broadcastLocked()
	}
}

// currentHolders returns every session presently holding a lock on t
// (exclusive or shared), for deadlock graph traversal. Must be called
// with db.mu held.
func (t *Table) currentHolders() []*Session {
	holders := make([]*Session, 0, len(t.lockSharedSessions)+1)
	if t.lockExclusiveSession != nil {
		holders = append(holders, t.lockExclusiveSession)
	}
	for s := range t.lockSharedSessions {
		holders = append(holders, s)
	}
	return holders
}

// detectDeadlock walks the wait-for graph starting at start: start waits
// for some table, whose current holders may themselves be waiting for
// another table, and so on. If the walk returns to start, a cycle exists.
// Must be called with db.mu held.
func detectDeadlock(db *Database, start *Session) ([]*Session, bool) {
	visited := map[*Session]bool{start: true}
	path := []*Session{start}
	return walkWaitFor(db, start, visited, path)
}

func walkWaitFor(db *Database, session *Session, visited map[*Session]bool, path []*Session) ([]*Session, bool) {
	tableName := session.WaitForTable()
	if tableName == "" {
		return nil, false
	}

	table, ok := db.tables[tableName]
	if !ok {
		return nil, false
	}

	for _, holder := range table.currentHolders() {
		if holder == path[0] {
			return append(path, holder), true
		}
		if visited[holder] {
			continue
		}
		visited[holder] = true
		if cycle, found := walkWaitFor(db, holder, visited, append(path, holder)); found {
			return cycle, true
		}
	}
	return nil, false
}

func describeCycle(cycle []*Session) string {
	names := make([]string, len(cycle))
	for i, s := range cycle {
		names[i] = fmt.Sprintf("session %s", s.ID)
	}
	return strings.Join(names, " waits for ")
}
