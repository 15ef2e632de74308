package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// failure is the structured result for a request the caller can correct.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toolFailure(format string, args ...any) (*mcp.CallToolResult, any, error) {
	return toolJSON(failure{Success: false, Message: fmt.Sprintf(format, args...)})
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
