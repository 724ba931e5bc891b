package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents"),
	), s.handleListDocuments)

	// ── open_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Open a document for editing and make it the active document. Tools that accept documentId default to it."),
		mcp.WithString("documentId",
			mcp.Description("ID of the document to open"),
			mcp.Required(),
		),
	), s.handleOpenDocument)

	// ── close_document ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_document",
		mcp.WithDescription("Close a document, cancelling any drag in progress"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleCloseDocument)

	// ── import_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Import a document from a JSON file, replacing any stored version"),
		mcp.WithString("path",
			mcp.Description("Path of the JSON document file"),
			mcp.Required(),
		),
	), s.handleImportDocument)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return jsonResult(docs)
}

func (s *Server) handleOpenDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "documentId")
	if err != nil {
		return nil, err
	}
	sess, err := s.docs.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.activeDocument = id
	s.mu.Unlock()
	return jsonResult(sess.State())
}

func (s *Server) handleCloseDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocumentID(req)
	if err != nil {
		return nil, err
	}
	s.docs.Close(id)
	s.mu.Lock()
	if s.activeDocument == id {
		s.activeDocument = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Closed %s", id)), nil
}

func (s *Server) handleImportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.importer == nil {
		return nil, fmt.Errorf("import is not available")
	}
	path, err := requireString(req, "path")
	if err != nil {
		return nil, err
	}
	doc, err := s.importer.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return jsonResult(doc)
}
