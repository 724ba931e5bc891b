package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("arrange_landing_page",
		mcp.WithPromptDescription("Reorder a document into a conventional landing page flow"),
		mcp.WithArgument("documentId",
			mcp.ArgumentDescription("Document to arrange"),
			mcp.RequiredArgument(),
		),
	), s.handleArrangePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_order",
		mcp.WithPromptDescription("Critique the block order of a document without changing it"),
		mcp.WithArgument("documentId",
			mcp.ArgumentDescription("Document to review"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewPrompt)
}

func (s *Server) handleArrangePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["documentId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Arrange %s as a landing page", id),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Arrange document "%s" as a landing page. Follow these steps:

1. Call open_document with documentId "%s", then list_blocks to see the current order
2. Put the hero block first, then testimonials, then pricing, and the call to action last
3. Move blocks with drop_block (position "above" or "below" a target) or press_key with Home/End
4. Finish with list_blocks and summarize the final order

Only move blocks. Do not insert or delete anything. If a step goes wrong, use undo.`, id, id),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["documentId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review block order of %s", id),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Read blockeditor://document/%s/blocks and review the order of its blocks.
Point out blocks that would read better elsewhere and say where. Do not call any tool that changes the document.`, id),
				},
			},
		},
	}, nil
}
