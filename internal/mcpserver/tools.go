package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	mcpctx "smartdocs-backend/internal/mcp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer registers the context tools on an MCP server for stdio use.
func NewMCPServer() *server.MCPServer {
	s := server.NewMCPServer(
		"smartdocs-context",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Context service for SmartDocs. Use get_context before summarizing, "+
			"answering questions or generating documentation."),
	)

	s.AddTool(contextToolDefinition(), handleContext)
	s.AddTool(enhanceToolDefinition(), handleEnhance)
	s.AddTool(codeContextToolDefinition(), handleCodeContext)
	return s
}

func contextToolDefinition() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription("Return prompt context for a documentation task."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The text or question the context is for"),
		),
		mcp.WithString("context_type",
			mcp.Description("summarization, qa, code_analysis, doc_generation or general (default)"),
		),
	)
}

func handleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetString("query", "") == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	return jsonResult(ContextFor(req.GetString("context_type", mcpctx.ContextGeneral)))
}

func enhanceToolDefinition() mcp.Tool {
	return mcp.NewTool("enhance_text",
		mcp.WithDescription("Rewrite a response with the style and focus of a context type."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The response to enhance"),
		),
		mcp.WithString("context_type",
			mcp.Description("Context type whose style is applied"),
		),
	)
}

func handleEnhance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	c := ContextFor(req.GetString("context_type", mcpctx.ContextGeneral))
	return mcp.NewToolResultText(Enhance(text, c)), nil
}

func codeContextToolDefinition() mcp.Tool {
	return mcp.NewTool("code_context",
		mcp.WithDescription("Describe a source file: structure, dependencies and language conventions."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path of the file"),
		),
		mcp.WithString("language",
			mcp.Description("Programming language of the file"),
		),
	)
}

func handleCodeContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(CodeContextFor(req.GetString("file_path", ""), req.GetString("language", "")))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
