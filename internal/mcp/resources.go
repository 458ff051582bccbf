package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
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

func (h *handlers) dashboardResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	d, err := h.buildDashboard(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, d)
}

func (h *handlers) macrocycleResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	m, err := h.loadMacrocycle(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, m)
}
