// Package mcp provides an MCP (Model Context Protocol) server adapter for kbase.
// It lets AI assistants search, extend and draw context from the knowledge base.
package mcp

import "errors"

// Port validation errors.
var (
	ErrMissingTools     = errors.New("mcp: toolkit is required")
	ErrMissingRetrieval = errors.New("mcp: retrieval service is required")
)
