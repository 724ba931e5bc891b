package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockeditor/internal/domain"
	"blockeditor/internal/service"
)

func (s *Server) registerBlockTools() {
	docArg := mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)"))

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a document in order, optionally filtered by type"),
		mcp.WithString("type", mcp.Description("Filter by block type (optional)")),
		docArg,
	), s.handleListBlocks)

	// ── list_block_types ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List the block types that can be inserted"),
	), s.handleListBlockTypes)

	// ── insert_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Insert a new block after another block, or at the end of the document"),
		mcp.WithString("type", mcp.Description("Block type, see list_block_types"), mcp.Required()),
		mcp.WithString("afterId", mcp.Description("Insert after this block (optional, appends if omitted)")),
		mcp.WithString("data", mcp.Description("Payload as a JSON object (optional, uses the type's default)")),
		docArg,
	), s.handleInsertBlock)

	// ── duplicate_block ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_block",
		mcp.WithDescription("Copy a block directly below itself"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		docArg,
	), s.handleDuplicateBlock)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. Can be reverted with undo."),
		mcp.WithString("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
		docArg,
	), s.handleDeleteBlock)

	// ── search_blocks ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("search_blocks",
		mcp.WithDescription("Find blocks whose type or text contains a query, ignoring case"),
		mcp.WithString("query", mcp.Description("Text to look for"), mcp.Required()),
		docArg,
	), s.handleSearchBlocks)

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Restore the previous block order"),
		docArg,
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Re-apply the most recently undone change"),
		docArg,
	), s.handleRedo)
}

func boolPtr(v bool) *bool { return &v }

// blockSummary is a compact view of a block for listings.
type blockSummary struct {
	Index int              `json:"index"`
	ID    string           `json:"id"`
	Type  domain.BlockType `json:"type"`
	Text  string           `json:"text,omitempty"`
}

func summarizeBlock(i int, b domain.Block) blockSummary {
	sum := blockSummary{Index: i, ID: b.ID, Type: b.Type}
	if b.Data != nil {
		sum.Text = truncate(b.Data.Text(), 120)
	}
	return sum
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocumentID(req)
	if err != nil {
		return nil, err
	}
	st, err := s.docs.State(id)
	if err != nil {
		return nil, err
	}
	filter := domain.BlockType(req.GetString("type", ""))
	out := make([]blockSummary, 0, len(st.Blocks))
	for i, b := range st.Blocks {
		if filter != "" && b.Type != filter {
			continue
		}
		out = append(out, summarizeBlock(i, b))
	}
	return jsonResult(out)
}

func (s *Server) handleListBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type kindInfo struct {
		Type  domain.BlockType `json:"type"`
		Label string           `json:"label"`
	}
	var kinds []kindInfo
	s.docs.Kinds().ForEach(func(k service.BlockKind) {
		kinds = append(kinds, kindInfo{Type: k.BlockType(), Label: k.Label()})
	})
	return jsonResult(kinds)
}

func (s *Server) handleInsertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := requireString(req, "type")
	if err != nil {
		return nil, err
	}
	var payload domain.Payload
	if data := req.GetString("data", ""); data != "" {
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("data is not valid JSON")
		}
		payload, err = domain.DecodePayload(domain.BlockType(t), json.RawMessage(data))
		if err != nil {
			return nil, err
		}
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	afterID := req.GetString("afterId", "")
	b, ok, err := sess.Insert(ctx, afterID, domain.BlockType(t), payload)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("block %s not found", afterID)
	}
	return jsonResult(b)
}

func (s *Server) handleDuplicateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	b, ok, err := sess.Duplicate(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("block %s not found", blockID)
	}
	return jsonResult(b)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.Delete(ctx, blockID)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handleSearchBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := requireString(req, "query")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	hits := sess.Search(query)
	out := make([]blockSummary, len(hits))
	for i, h := range hits {
		out[i] = summarizeBlock(h.Index, h.Block)
	}
	return jsonResult(out)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.Undo(ctx)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.Redo(ctx)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}
