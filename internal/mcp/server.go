// Package mcp serves the extraction engine over the Model Context
// Protocol, so editor assistants can pull embedded-SQL ranges straight
// from source text. Stdout/stderr stay clean for the stdio transport;
// diagnostics go through the debug log.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/sqlembed/internal/config"
	"github.com/standardbeagle/sqlembed/internal/debug"
	"github.com/standardbeagle/sqlembed/internal/extract"
	"github.com/standardbeagle/sqlembed/internal/lang"
	"github.com/standardbeagle/sqlembed/internal/types"
	"github.com/standardbeagle/sqlembed/internal/version"
)

// Server wraps an MCP stdio server exposing the extraction tools.
type Server struct {
	server *mcp.Server
	sites  []config.QuerySite
}

// ExtractParams are the arguments of the extract_sql tool.
type ExtractParams struct {
	Source   string          `json:"source"`
	Language string          `json:"language,omitempty"`
	Sites    json.RawMessage `json:"sites,omitempty"`
}

// NewServer creates the MCP server. The given sites are the server-side
// default; per-call site payloads override them.
func NewServer(sites []config.QuerySite) *Server {
	if len(sites) == 0 {
		sites = config.DefaultSites()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sqlembed-mcp-server",
		Version: version.Version,
	}, nil)

	s := &Server{server: server, sites: sites}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.LogMCP("serving over stdio\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "extract_sql",
		Description: "Extract embedded SQL fragments from host-language source code. Returns the exact character range of each SQL payload plus the line of the enclosing call.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Host-language source text to scan",
				},
				"language": {
					Type:        "string",
					Description: "Host language name (python, javascript, typescript, go). Defaults to python.",
				},
				"sites": {
					Type:        "array",
					Description: "SQL-bearing call sites overriding the defaults. Each element: {functionName, sqlArgNo, isStringTemplate}.",
					Items:       &jsonschema.Schema{Type: "object"},
				},
			},
			Required: []string{"source"},
		},
	}, s.handleExtract)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_languages",
		Description: "List the host languages the extractor understands.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleListLanguages)
}

func (s *Server) handleExtract(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ExtractParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, fmt.Errorf("invalid extract_sql arguments: %w", err)
	}

	language := params.Language
	if language == "" {
		language = "python"
	}
	grammar, ok := lang.ByName(language)
	if !ok {
		return nil, fmt.Errorf("unknown language %q (known: %v)", language, lang.Names())
	}

	var nodes []types.SqlNode
	if len(params.Sites) > 0 {
		nodes = extract.ExtractPayload(params.Source, grammar, params.Sites)
	} else {
		nodes = extract.Extract(params.Source, grammar, s.sites)
	}
	debug.LogMCP("extract_sql: %d nodes from %d bytes of %s\n", len(nodes), len(params.Source), language)

	return jsonResult(nodes)
}

func (s *Server) handleListLanguages(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(lang.Names())
}

// jsonResult marshals v as the single text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}
