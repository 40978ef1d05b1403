package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPHandler exposes the registry as a Model Context Protocol server over
// the streamable-HTTP transport, so external agents can call the same tools
// the in-process loop uses. Mount the returned handler on an HTTP mux.
func MCPHandler(r *Registry, version string) (http.Handler, error) {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: "ringline-tools", Version: version},
		nil,
	)

	for _, def := range r.List() {
		schema, err := toSchema(def.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tools: schema for %q: %w", def.Name, err)
		}
		name := def.Name
		server.AddTool(
			&mcpsdk.Tool{
				Name:        name,
				Description: def.Description,
				InputSchema: schema,
			},
			func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
				args := "{}"
				if req.Params != nil && req.Params.Arguments != nil {
					raw, err := json.Marshal(req.Params.Arguments)
					if err != nil {
						return nil, fmt.Errorf("tools: encode args for %q: %w", name, err)
					}
					args = string(raw)
				}
				out, err := r.Execute(ctx, name, args)
				if err != nil {
					// Tool failures are application-level results, not
					// protocol errors.
					return &mcpsdk.CallToolResult{
						Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
						IsError: true,
					}, nil
				}
				return &mcpsdk.CallToolResult{
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: out}},
				}, nil
			},
		)
	}

	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil), nil
}

// toSchema converts a JSON Schema object map into the SDK's schema type.
func toSchema(params map[string]any) (*jsonschema.Schema, error) {
	if params == nil {
		params = map[string]any{"type": "object"}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
