// Package testutil provides shared test helpers for wiring a food log
// service against temporary storage.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/nutrilog/internal/achievements"
	"github.com/starford/nutrilog/internal/catalog"
	"github.com/starford/nutrilog/internal/foodlog"
	"github.com/starford/nutrilog/internal/journal"
	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/pipeline"
	"github.com/starford/nutrilog/internal/recognition"
	"github.com/starford/nutrilog/internal/storage"
)

// TestDB creates a temporary SQLite journal that is automatically cleaned up.
func TestDB(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nutrilog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCaptures creates a temporary capture directory.
func TestCaptures(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// Env is a fully wired service with handles on its parts.
type Env struct {
	Service *foodlog.Service
	Ledger  *ledger.Store
	Tracker *achievements.Tracker
	DB      *journal.DB
	Catalog *catalog.Static
}

// TestService wires the default catalog, a journaled ledger and recognition
// with a short processing delay.
func TestService(t *testing.T, opts ...ledger.StoreOption) *Env {
	t.Helper()
	db := TestDB(t)
	store := ledger.NewStore(append([]ledger.StoreOption{ledger.WithPersister(db)}, opts...)...)
	tracker := achievements.NewTracker()
	committer := pipeline.NewCommitter(store, pipeline.WithHooks(tracker))
	foods := catalog.Default()
	rec := recognition.NewManager(
		recognition.WithDelay(10*time.Millisecond),
		recognition.WithCaptureStore(TestCaptures(t)),
	)
	t.Cleanup(rec.Close)

	svc := foodlog.NewService(store, committer, foods,
		foodlog.WithRecognition(rec),
		foodlog.WithTracker(tracker),
		foodlog.WithHistory(db),
	)
	return &Env{Service: svc, Ledger: store, Tracker: tracker, DB: db, Catalog: foods}
}
