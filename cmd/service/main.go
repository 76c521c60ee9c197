package main

import (
	"fmt"
	"log"
	"time"

	"github.com/latchdb/tablekernel/pkg/config"
	"github.com/latchdb/tablekernel/storage"
	"github.com/latchdb/tablekernel/storage/catalog"
	"github.com/latchdb/tablekernel/storage/pageindex"
)

func main() {
	cfg := config.LoadConfigOrDefault()

	cat, err := catalog.Open(":memory:")
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer cat.Close()

	db := storage.NewDatabase(cfg)
	db.ModIDSink = cat
	db.IndexRegistry = cat

	scanIdx, closeScan, err := pageindex.NewScanIndex(nil, "accounts")
	if err != nil {
		log.Fatalf("open scan index: %v", err)
	}
	defer closeScan()

	if err := cat.RegisterTable("accounts", -1); err != nil {
		log.Fatalf("register table: %v", err)
	}

	factory := pageindex.NewFactory(nil, "accounts")
	table := storage.NewTable(db, "accounts", scanIdx, cfg.Table, factory)

	session := storage.NewSession(2 * time.Second)

	if _, err := table.Lock(session, true, false); err != nil {
		log.Fatalf("lock accounts: %v", err)
	}

	seedRows := []struct {
		email   string
		balance float64
	}{
		{"alice@example.com", 100},
		{"bob@example.com", 250},
		{"carol@example.com", 75},
	}
	for _, r := range seedRows {
		row := storage.NewRow(0, []interface{}{r.email, r.balance})
		if err := table.AddRow(session, row); err != nil {
			log.Fatalf("add row %s: %v", r.email, err)
		}
	}

	idx, err := table.AddIndex(session, storage.AddIndexRequest{
		Name:    "by_email",
		Columns: []int{0},
		Kind:    storage.IndexKindHashUnique,
	})
	if err != nil {
		log.Fatalf("add index by_email: %v", err)
	}
	table.Unlock(session)

	if err := cat.RecordAnalyze("accounts", table.GetRowCount(session)); err != nil {
		log.Fatalf("record analyze: %v", err)
	}

	fmt.Printf("accounts: %d rows, %d indexes\n", table.GetRowCount(session), len(table.GetIndexes()))

	if _, err := table.Lock(session, false, false); err != nil {
		log.Fatalf("lock accounts for read: %v", err)
	}
	cursor, err := idx.Find(session, "bob@example.com", "bob@example.com")
	if err != nil {
		log.Fatalf("find by_email: %v", err)
	}
	for cursor.Next() {
		row := cursor.Row()
		fmt.Printf("found: %v balance=%v\n", row.Values[0], row.Values[1])
	}
	cursor.Close()
	table.Unlock(session)

	demoDeadlockDetection(db)
}

// demoDeadlockDetection locks two tables cross-wise from two sessions to
// show the wait-for cycle detector picking a victim rather than both
// sessions timing out.
func demoDeadlockDetection(db *storage.Database) {
	cfg := db.Settings.Table
	cfg.DeadlockCheckMillis = 10

	scanA, _, _ := pageindex.NewScanIndex(nil, "a")
	scanB, _, _ := pageindex.NewScanIndex(nil, "b")
	tableA := storage.NewTable(db, "a", scanA, cfg, pageindex.NewFactory(nil, "a"))
	tableB := storage.NewTable(db, "b", scanB, cfg, pageindex.NewFactory(nil, "b"))

	s1 := storage.NewSession(time.Second)
	s2 := storage.NewSession(time.Second)

	if _, err := tableA.Lock(s1, true, false); err != nil {
		log.Fatalf("lock a for s1: %v", err)
	}
	if _, err := tableB.Lock(s2, true, false); err != nil {
		log.Fatalf("lock b for s2: %v", err)
	}

	results := make(chan string, 2)
	go func() {
		_, err := tableB.Lock(s1, true, false)
		if err != nil {
			results <- fmt.Sprintf("s1 waiting on b: %v", err)
		} else {
			results <- "s1 acquired b"
			tableB.Unlock(s1)
		}
	}()
	go func() {
		_, err := tableA.Lock(s2, true, false)
		if err != nil {
			results <- fmt.Sprintf("s2 waiting on a: %v", err)
		} else {
			results <- "s2 acquired a"
			tableA.Unlock(s2)
		}
	}()

	fmt.Println(<-results)
	fmt.Println(<-results)

	tableA.Unlock(s1)
	tableB.Unlock(s2)
}
