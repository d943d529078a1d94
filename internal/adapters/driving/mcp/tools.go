package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolSearch      = "rag_search"
	ToolAddDocument = "rag_add_document"
	ToolGetContext  = "get_rag_context"
)

// SearchInput is the input schema for rag_search.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the question or topic to look up"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of matches to use (default 5)"`
}

// AddDocumentInput is the input schema for rag_add_document.
type AddDocumentInput struct {
	Text     string `json:"text" jsonschema:"the content to store"`
	Category string `json:"category,omitempty" jsonschema:"category label (default general)"`
	Source   string `json:"source,omitempty" jsonschema:"where the content came from (default unknown)"`
}

// GetContextInput is the input schema for get_rag_context.
type GetContextInput struct {
	Query string `json:"query" jsonschema:"the question that needs background context"`
}

// TextOutput carries a tool's text result.
type TextOutput struct {
	Text string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolSearch,
		Description: "Search the knowledge base and return relevant passages with their sources",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAddDocument,
		Description: "Add a piece of information to the knowledge base",
	}, s.handleAddDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGetContext,
		Description: "Get background context from the knowledge base for answering a question",
	}, s.handleGetContext)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, TextOutput, error) {
	s.log.Debug("%s: %q", ToolSearch, input.Query)
	return textResult(s.ports.Tools.Search(ctx, input.Query, input.MaxResults))
}

func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, TextOutput, error) {
	s.log.Debug("%s: %d bytes", ToolAddDocument, len(input.Text))
	return textResult(s.ports.Tools.AddDocument(ctx, input.Text, input.Category, input.Source))
}

func (s *Server) handleGetContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetContextInput,
) (*mcp.CallToolResult, TextOutput, error) {
	s.log.Debug("%s: %q", ToolGetContext, input.Query)
	return textResult(s.ports.Tools.GetContext(ctx, input.Query))
}

// textResult wraps a tool's text. Tools report failures in the text itself,
// so the error is always nil.
func textResult(text string) (*mcp.CallToolResult, TextOutput, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, TextOutput{Text: text}, nil
}
