package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/plugins"
	"blockeditor/internal/service"
	"blockeditor/internal/storage"
)

// env is a DocumentService over a temporary sqlite database.
type env struct {
	svc     *service.DocumentService
	docs    *storage.DocumentStore
	history *storage.HistoryStore
	emitter *service.MockEmitter
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := storage.Open(storage.SQLite, filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kinds := service.NewKindRegistry()
	plugins.RegisterBuiltins(kinds)

	e := &env{
		docs:    storage.NewDocumentStore(db),
		history: storage.NewHistoryStore(db, 40),
		emitter: &service.MockEmitter{},
	}
	e.svc = service.NewDocumentService(e.docs, e.history, kinds, e.emitter, logger.NewNop())
	t.Cleanup(e.svc.CloseAll)
	return e
}

// seed stores a document whose blocks are rich text blocks with the given ids.
func (e *env) seed(t *testing.T, docID string, ids ...string) {
	t.Helper()
	seq := make([]domain.Block, len(ids))
	for i, id := range ids {
		seq[i] = domain.Block{ID: id, Type: domain.BlockTypeRichText, Data: domain.RichText{Body: "block " + id}}
	}
	require.NoError(t, e.svc.Put(context.Background(), domain.Document{ID: docID, Title: docID}, seq, "seed"))
}

// ─────────────────────────────────────────────────────────────
// Import guard tests
// ─────────────────────────────────────────────────────────────

func TestImportGuard_Begin(t *testing.T) {
	var g service.ImportGuard

	if !g.Begin("a.json") {
		t.Fatal("expected first Begin to succeed")
	}
	if g.Begin("a.json") {
		t.Fatal("expected second Begin for same path to fail")
	}
	if !g.Begin("b.json") {
		t.Fatal("expected Begin for different path to succeed")
	}
	g.End("a.json")
	g.End("b.json")

	if !g.Begin("a.json") {
		t.Fatal("expected Begin to succeed after End")
	}
	g.End("a.json")
}

func TestImportGuard_Wait(t *testing.T) {
	var g service.ImportGuard

	if !g.Begin("a.json") {
		t.Fatal("expected Begin to succeed")
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.End("a.json")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p := g.Pending(); len(p) != 0 {
		t.Errorf("expected nothing pending, got %v", p)
	}
}

func TestImportGuard_WaitTimeout(t *testing.T) {
	var g service.ImportGuard
	g.Begin("a.json")
	time.Sleep(time.Millisecond)
	g.Begin("b.json")
	defer g.End("a.json")
	defer g.End("b.json")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if diff := cmp.Diff([]string{"a.json", "b.json"}, g.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, service.EventBlocksChanged, map[string]string{"documentId": "home"})
	m.Emit(ctx, service.EventDragChanged, nil)
	m.Emit(ctx, service.EventBlocksChanged, nil)

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	if m.Events[1].Event != service.EventDragChanged {
		t.Errorf("expected %q, got %q", service.EventDragChanged, m.Events[1].Event)
	}
	if n := m.Count(service.EventBlocksChanged); n != 2 {
		t.Errorf("expected 2 blocks-changed events, got %d", n)
	}
}
