package relay

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vkotelnikov/mistrelay/kit"
)

// RegisterMCP registers the relay's ask tool on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerAskTool(srv)
}

type askReq struct {
	Text string `json:"text"`
}

func (p *Pipeline) registerAskTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "relay_ask",
		Description: "Send text (optionally containing a URL) through the relay and return the model's reply segments.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "User message"},
			},
			"required": []string{"text"},
		},
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*askReq)
		res := p.Handle(ctx, Request{Text: r.Text})
		if !res.OK() {
			return nil, res.Failure
		}
		return map[string]any{"segments": p.Segments(res)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r askReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{
			Request:   &r,
			EnrichCtx: func(ctx context.Context) context.Context { return kit.WithTransport(ctx, "mcp") },
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
