package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentsURI      = "blockeditor://documents"
	documentURIPrefix = "blockeditor://document/"
	blocksURISuffix   = "/blocks"
)

func (s *Server) registerResources() {
	// ── blockeditor://documents ────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentsURI,
		"All Documents",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentsResource)

	// ── blockeditor://document/{documentId}/blocks ─────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{documentId}"+blocksURISuffix,
			"Blocks of a Document",
		),
		s.handleDocumentBlocksResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	docs, err := s.docs.ListDocuments()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDocumentBlocksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := documentIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract documentId from URI: %s", uri)
	}
	st, err := s.docs.State(id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(st.Blocks, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// documentIDFromURI extracts the id from "blockeditor://document/{id}/blocks".
func documentIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, blocksURISuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
