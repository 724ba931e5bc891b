package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"blockeditor/internal/logger"
	"blockeditor/internal/service"
)

// Server is the MCP host for the block editor.
// It exposes tools, resources and prompts so agents can reorder and edit
// document blocks through the same operations as a pointer or keyboard.
type Server struct {
	mcp      *server.MCPServer
	docs     *service.DocumentService
	importer *service.Importer
	log      logger.Logger

	mu             sync.Mutex
	activeDocument string // set by open_document
}

// Deps holds the services the MCP server drives.
type Deps struct {
	Documents *service.DocumentService
	Importer  *service.Importer
	Log       logger.Logger
}

// New creates and configures the MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		docs:     deps.Documents,
		importer: deps.Importer,
		log:      log,
	}

	s.mcp = server.NewMCPServer(
		"blockeditor-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerReorderTools()
	s.registerBlockTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveDocumentID returns documentId from the tool args or falls back to
// the active document.
func (s *Server) resolveDocumentID(req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("documentId", ""); id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeDocument != "" {
		return s.activeDocument, nil
	}
	return "", fmt.Errorf("no documentId provided and no active document (use open_document first)")
}

// session resolves the target document and returns its editing session.
func (s *Server) session(ctx context.Context, req mcp.CallToolRequest) (*service.EditorSession, error) {
	id, err := s.resolveDocumentID(req)
	if err != nil {
		return nil, err
	}
	return s.docs.Open(ctx, id)
}

// requireString reads a required string argument.
func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// orderResult reports whether an operation changed the order, with the
// resulting block ids.
func orderResult(sess *service.EditorSession, changed bool) (*mcp.CallToolResult, error) {
	st := sess.State()
	ids := make([]string, len(st.Blocks))
	for i, b := range st.Blocks {
		ids[i] = b.ID
	}
	return jsonResult(map[string]any{
		"changed": changed,
		"order":   ids,
	})
}
