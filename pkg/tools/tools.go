package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wolframtools/wolfram-mcp/pkg/server"
)

type Tool interface {
	Register(srv *server.Server) error
}

// UserID resolves the authenticated caller from the request context.
// Returns the empty string when no identity is present; callers turn
// that into an unauthenticated error result before any paid work.
func UserID(req *mcp.CallToolRequest) string {
	if req == nil || req.Session == nil {
		return ""
	}
	return req.Session.ID()
}

// TextResult builds a plain-text MCP result, flagged as an error when
// isError is set.
func TextResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: isError,
	}
}
