package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"blockeditor/internal/reorder"
	"blockeditor/internal/service"
)

func (s *Server) registerReorderTools() {
	docArg := mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)"))

	// ── move_block_up / move_block_down ────────────────
	s.mcp.AddTool(mcp.NewTool("move_block_up",
		mcp.WithDescription("Swap a block with the block above it. The first block does not move."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		docArg,
	), s.handleMoveUp)

	s.mcp.AddTool(mcp.NewTool("move_block_down",
		mcp.WithDescription("Swap a block with the block below it. The last block does not move."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		docArg,
	), s.handleMoveDown)

	// ── drop_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drop_block",
		mcp.WithDescription("Move a block directly above or below a target block"),
		mcp.WithString("blockId", mcp.Description("Block to move"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Block to drop next to"), mcp.Required()),
		mcp.WithString("position",
			mcp.Description("Where to land relative to the target"),
			mcp.Enum("above", "below"),
			mcp.Required(),
		),
		docArg,
	), s.handleDropBlock)

	// ── press_key ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Send a keyboard control to a focused block. ArrowUp/ArrowDown move one step, Home/End move to the ends, Escape cancels a drag."),
		mcp.WithString("blockId", mcp.Description("Focused block ID"), mcp.Required()),
		mcp.WithString("key",
			mcp.Description("Key name"),
			mcp.Enum(string(reorder.KeyArrowUp), string(reorder.KeyArrowDown), string(reorder.KeyHome), string(reorder.KeyEnd), string(reorder.KeyEscape)),
			mcp.Required(),
		),
		docArg,
	), s.handlePressKey)

	// ── drag gesture ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("drag_start",
		mcp.WithDescription("Pick up a block to start a drag"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		docArg,
	), s.handleDragStart)

	s.mcp.AddTool(mcp.NewTool("drag_over",
		mcp.WithDescription("Report the pointer over a block. The upper half of the block targets above, the lower half below."),
		mcp.WithString("targetId", mcp.Description("Hovered block ID"), mcp.Required()),
		mcp.WithNumber("pointerY", mcp.Description("Pointer y coordinate"), mcp.Required()),
		mcp.WithNumber("top", mcp.Description("Top edge of the hovered block"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Height of the hovered block"), mcp.Required()),
		docArg,
	), s.handleDragOver)

	s.mcp.AddTool(mcp.NewTool("drag_leave",
		mcp.WithDescription("Report the pointer leaving a block"),
		mcp.WithString("targetId", mcp.Description("Block ID"), mcp.Required()),
		docArg,
	), s.handleDragLeave)

	s.mcp.AddTool(mcp.NewTool("drag_drop",
		mcp.WithDescription("Drop the dragged block on the current drop target"),
		docArg,
	), s.handleDragDrop)

	s.mcp.AddTool(mcp.NewTool("drag_end",
		mcp.WithDescription("Cancel the drag without moving anything"),
		docArg,
	), s.handleDragEnd)

	// ── get_controls ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_controls",
		mcp.WithDescription("Per-block move availability and drag feedback, in order"),
		docArg,
	), s.handleGetControls)
}

func (s *Server) handleMoveUp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.moveOp(ctx, req, func(sess *service.EditorSession, id string) (bool, error) { return sess.MoveUp(ctx, id) })
}

func (s *Server) handleMoveDown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.moveOp(ctx, req, func(sess *service.EditorSession, id string) (bool, error) { return sess.MoveDown(ctx, id) })
}

func (s *Server) moveOp(ctx context.Context, req mcp.CallToolRequest, op func(*service.EditorSession, string) (bool, error)) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := op(sess, blockID)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handleDropBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	targetID, err := requireString(req, "targetId")
	if err != nil {
		return nil, err
	}
	pos, ok := reorder.ParsePosition(req.GetString("position", ""))
	if !ok {
		return nil, fmt.Errorf("position must be above or below")
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.Drop(ctx, blockID, targetID, pos)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handlePressKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	key, err := requireString(req, "key")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.Key(ctx, blockID, reorder.Key(key))
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handleDragStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blockID, err := requireString(req, "blockId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	if !sess.DragStart(ctx, blockID) {
		return textResult(fmt.Sprintf("Drag not started: %s is unknown or a drag is already running", blockID)), nil
	}
	return jsonResult(sess.DragState())
}

func (s *Server) handleDragOver(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetID, err := requireString(req, "targetId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	_, ok := sess.DragOver(ctx, targetID,
		req.GetFloat("pointerY", 0),
		req.GetFloat("top", 0),
		req.GetFloat("height", 0),
	)
	if !ok {
		return textResult("Ignored: no drag running or hovering the dragged block"), nil
	}
	return jsonResult(sess.DragState())
}

func (s *Server) handleDragLeave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetID, err := requireString(req, "targetId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	sess.DragLeave(ctx, targetID)
	return jsonResult(sess.DragState())
}

func (s *Server) handleDragDrop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	changed, err := sess.DropOnTarget(ctx)
	if err != nil {
		return nil, err
	}
	return orderResult(sess, changed)
}

func (s *Server) handleDragEnd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	sess.DragEnd(ctx)
	return jsonResult(sess.DragState())
}

func (s *Server) handleGetControls(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonResult(sess.Controls())
}
