package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockeditor/internal/domain"
	"blockeditor/internal/logger"
	"blockeditor/internal/plugins"
	"blockeditor/internal/service"
	"blockeditor/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(storage.SQLite, filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kinds := service.NewKindRegistry()
	plugins.RegisterBuiltins(kinds)
	docs := service.NewDocumentService(
		storage.NewDocumentStore(db),
		storage.NewHistoryStore(db, 40),
		kinds,
		&service.MockEmitter{},
		logger.NewNop(),
	)
	t.Cleanup(docs.CloseAll)

	seq := []domain.Block{
		{ID: "hero", Type: domain.BlockTypeHero, Data: domain.Hero{Heading: "Ship faster"}},
		{ID: "pricing", Type: domain.BlockTypePricing, Data: domain.Pricing{Title: "Plans"}},
		{ID: "cta", Type: domain.BlockTypeCallToAction, Data: domain.CallToAction{Label: "Buy"}},
	}
	require.NoError(t, docs.Put(context.Background(), domain.Document{ID: "landing", Title: "Landing"}, seq, "seed"))

	return New(Deps{Documents: docs, Log: logger.NewNop()})
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

type orderReply struct {
	Changed bool     `json:"changed"`
	Order   []string `json:"order"`
}

func decodeOrder(t *testing.T, res *mcp.CallToolResult) orderReply {
	t.Helper()
	var r orderReply
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &r))
	return r
}

func TestTools_RequireActiveDocument(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleMoveDown(context.Background(), call(map[string]any{"blockId": "hero"}))
	assert.ErrorContains(t, err, "open_document")
}

func TestTools_ReorderFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleOpenDocument(ctx, call(map[string]any{"documentId": "landing"}))
	require.NoError(t, err)

	res, err := s.handleMoveDown(ctx, call(map[string]any{"blockId": "hero"}))
	require.NoError(t, err)
	assert.Equal(t, orderReply{true, []string{"pricing", "hero", "cta"}}, decodeOrder(t, res))

	res, err = s.handleDropBlock(ctx, call(map[string]any{"blockId": "cta", "targetId": "pricing", "position": "above"}))
	require.NoError(t, err)
	assert.Equal(t, orderReply{true, []string{"cta", "pricing", "hero"}}, decodeOrder(t, res))

	_, err = s.handleDropBlock(ctx, call(map[string]any{"blockId": "cta", "targetId": "pricing", "position": "left"}))
	assert.Error(t, err)

	res, err = s.handlePressKey(ctx, call(map[string]any{"blockId": "hero", "key": "Home"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "cta", "pricing"}, decodeOrder(t, res).Order)

	res, err = s.handleUndo(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"cta", "pricing", "hero"}, decodeOrder(t, res).Order)
}

func TestTools_DragGesture(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	doc := map[string]any{"documentId": "landing"}

	_, err := s.handleDragStart(ctx, call(map[string]any{"documentId": "landing", "blockId": "hero"}))
	require.NoError(t, err)
	_, err = s.handleDragOver(ctx, call(map[string]any{
		"documentId": "landing", "targetId": "cta",
		"pointerY": 130.0, "top": 100.0, "height": 40.0,
	}))
	require.NoError(t, err)

	res, err := s.handleDragDrop(ctx, call(doc))
	require.NoError(t, err)
	assert.Equal(t, orderReply{true, []string{"pricing", "cta", "hero"}}, decodeOrder(t, res))
}

func TestTools_InsertAndSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.handleOpenDocument(ctx, call(map[string]any{"documentId": "landing"}))
	require.NoError(t, err)

	res, err := s.handleInsertBlock(ctx, call(map[string]any{
		"type": "testimonial", "afterId": "hero",
		"data": `{"quote":"Loved it","author":"Kim"}`,
	}))
	require.NoError(t, err)
	var b domain.Block
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &b))
	assert.Equal(t, domain.Testimonial{Quote: "Loved it", Author: "Kim"}, b.Data)

	_, err = s.handleInsertBlock(ctx, call(map[string]any{"type": "hero", "afterId": "nope"}))
	assert.Error(t, err)

	res, err = s.handleSearchBlocks(ctx, call(map[string]any{"query": "loved"}))
	require.NoError(t, err)
	var hits []blockSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Index)
	assert.Equal(t, b.ID, hits[0].ID)
}

func TestDocumentIDFromURI(t *testing.T) {
	assert.Equal(t, "landing", documentIDFromURI("blockeditor://document/landing/blocks"))
	assert.Equal(t, "", documentIDFromURI("blockeditor://document/landing"))
	assert.Equal(t, "", documentIDFromURI("blockeditor://document/a/b/blocks"))
	assert.Equal(t, "", documentIDFromURI("notes://page/x/blocks"))
}
