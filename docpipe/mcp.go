package docpipe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vkotelnikov/mistrelay/kit"
)

// RegisterMCP registers docpipe tools on an MCP server.
func (e *Extractor) RegisterMCP(srv *mcp.Server) {
	e.registerExtractTool(srv)
	e.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- extract ---

type extractReq struct {
	Data   string `json:"data"` // base64-encoded payload
	Format string `json:"format"`
}

func (e *Extractor) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_extract",
		Description: "Extract plain text from a base64-encoded document payload (txt, pdf, docx, html).",
		InputSchema: inputSchema(map[string]any{
			"data":   map[string]any{"type": "string", "description": "Base64-encoded document bytes"},
			"format": map[string]any{"type": "string", "description": "Format tag: txt, pdf, docx or html"},
		}, []string{"data", "format"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*extractReq)
		data, err := base64.StdEncoding.DecodeString(r.Data)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		text, err := e.Extract(data, Format(r.Format))
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r extractReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- formats ---

func (e *Extractor) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_formats",
		Description: "List all supported document formats.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"formats": SupportedFormats()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
