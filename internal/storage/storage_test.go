package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockeditor/internal/domain"
	"blockeditor/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(storage.SQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleBlocks() []domain.Block {
	return []domain.Block{
		{ID: "hero", Type: domain.BlockTypeHero, Data: domain.Hero{Heading: "Ship faster"}},
		{ID: "pricing", Type: domain.BlockTypePricing, Data: domain.Pricing{
			Title: "Plans",
			Tiers: []domain.PricingTier{{Name: "Pro", Price: "$20", Features: []string{"SSO"}}},
		}},
		{ID: "quote", Type: domain.BlockTypeTestimonial, Data: domain.Testimonial{Quote: "Great", Author: "Sam"}},
		{ID: "legacy", Type: "carousel", Data: domain.RawPayload{Type: "carousel", JSON: []byte(`{"slides":3}`)}},
	}
}

// ─────────────────────────────────────────────────────────────
// DocumentStore
// ─────────────────────────────────────────────────────────────

func TestDocumentStore_ReplaceAndListBlocks(t *testing.T) {
	store := storage.NewDocumentStore(openTestDB(t))
	require.NoError(t, store.CreateDocument(&domain.Document{ID: "home", Title: "Home"}))

	blocks := sampleBlocks()
	require.NoError(t, store.ReplaceBlocks("home", blocks))

	got, err := store.ListBlocks("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "pricing", "quote", "legacy"}, domain.IDs(got))
	assert.Equal(t, blocks[1].Data, got[1].Data)

	raw, ok := got[3].Data.(domain.RawPayload)
	require.True(t, ok, "unknown type should decode to RawPayload, got %T", got[3].Data)
	assert.JSONEq(t, `{"slides":3}`, string(raw.JSON))

	// reorder and store again
	reordered := []domain.Block{got[2], got[0], got[3], got[1]}
	require.NoError(t, store.ReplaceBlocks("home", reordered))
	got, err = store.ListBlocks("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"quote", "hero", "legacy", "pricing"}, domain.IDs(got))
}

func TestDocumentStore_ReplaceBlocksRejectsDuplicates(t *testing.T) {
	store := storage.NewDocumentStore(openTestDB(t))
	require.NoError(t, store.CreateDocument(&domain.Document{ID: "home"}))

	dup := []domain.Block{
		{ID: "a", Type: domain.BlockTypeRichText, Data: domain.RichText{}},
		{ID: "a", Type: domain.BlockTypeRichText, Data: domain.RichText{}},
	}
	assert.Error(t, store.ReplaceBlocks("home", dup))
}

func TestDocumentStore_MissingDocument(t *testing.T) {
	store := storage.NewDocumentStore(openTestDB(t))

	_, err := store.GetDocument("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.ReplaceBlocks("nope", sampleBlocks())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.UpdateDocument(&domain.Document{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListAndDelete(t *testing.T) {
	store := storage.NewDocumentStore(openTestDB(t))
	require.NoError(t, store.CreateDocument(&domain.Document{ID: "b", Title: "B"}))
	require.NoError(t, store.CreateDocument(&domain.Document{ID: "a", Title: "A"}))
	require.NoError(t, store.ReplaceBlocks("a", sampleBlocks()))

	docs, err := store.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)

	require.NoError(t, store.DeleteDocument("a"))
	_, err = store.GetDocument("a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	blocks, err := store.ListBlocks("a")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

// ─────────────────────────────────────────────────────────────
// HistoryStore
// ─────────────────────────────────────────────────────────────

func TestHistoryStore_UndoRedo(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, storage.NewDocumentStore(db).CreateDocument(&domain.Document{ID: "home"}))
	history := storage.NewHistoryStore(db, 40)

	v1 := sampleBlocks()
	v2 := []domain.Block{v1[1], v1[0], v1[2], v1[3]}

	_, err := history.Push("home", "open", v1)
	require.NoError(t, err)
	_, err = history.Push("home", "move", v2)
	require.NoError(t, err)

	seq, ok, err := history.Undo("home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.IDs(v1), domain.IDs(seq))

	_, ok, err = history.Undo("home")
	require.NoError(t, err)
	assert.False(t, ok, "nothing before the root")

	seq, ok, err = history.Redo("home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.IDs(v2), domain.IDs(seq))

	_, ok, err = history.Redo("home")
	require.NoError(t, err)
	assert.False(t, ok, "nothing after the newest node")

	tree, err := history.LoadTree("home")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 2)
	assert.Equal(t, tree.Nodes[1].ID, tree.CurrentID)
	assert.Equal(t, tree.Nodes[0].ID, tree.RootID)
}

func TestHistoryStore_CurrentAndClear(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, storage.NewDocumentStore(db).CreateDocument(&domain.Document{ID: "home"}))
	history := storage.NewHistoryStore(db, 40)

	id, err := history.Current("home")
	require.NoError(t, err)
	assert.Empty(t, id)

	node, err := history.Push("home", "open", sampleBlocks())
	require.NoError(t, err)
	id, err = history.Current("home")
	require.NoError(t, err)
	assert.Equal(t, node.ID, id)

	require.NoError(t, history.Clear("home"))
	tree, err := history.LoadTree("home")
	require.NoError(t, err)
	assert.Nil(t, tree)
	id, err = history.Current("home")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestHistoryStore_EmptyDocument(t *testing.T) {
	history := storage.NewHistoryStore(openTestDB(t), 40)

	tree, err := history.LoadTree("home")
	require.NoError(t, err)
	assert.Nil(t, tree)

	_, ok, err := history.Undo("home")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryStore_Prune(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, storage.NewDocumentStore(db).CreateDocument(&domain.Document{ID: "home"}))
	history := storage.NewHistoryStore(db, 3)

	blocks := sampleBlocks()
	for i := 0; i < 6; i++ {
		_, err := history.Push("home", "edit", blocks)
		require.NoError(t, err)
	}

	tree, err := history.LoadTree("home")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 3)
	assert.Nil(t, tree.Nodes[0].ParentID, "oldest surviving node becomes the root")
	assert.Equal(t, tree.Nodes[2].ID, tree.CurrentID)

	// undo still walks the surviving chain
	_, ok, err := history.Undo("home")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := history.PruneAll()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_BadDSN(t *testing.T) {
	_, err := storage.Open(storage.MySQL, "user@tcp(")
	assert.ErrorContains(t, err, "parse mysql dsn")

	_, err = storage.Open("oracle", "x")
	assert.Error(t, err)
}
