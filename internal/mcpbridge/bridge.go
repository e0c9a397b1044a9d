// Package mcpbridge exposes the daemon kernel's command table as MCP
// tools over stdio, so an editor-integrated AI assistant can drive tldr
// the same way a socket client does, without speaking the newline-
// delimited JSON protocol directly.
package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/tldr/internal/daemon"
)

// Bridge wraps a running Kernel and serves its command table as MCP tools.
type Bridge struct {
	kernel *daemon.Kernel
	server *mcp.Server
}

// New builds a Bridge over kernel, registering an MCP tool for 15 of the
// kernel's socket commands; shutdown, notify, change_impact, semantic,
// tree, structure and diagnostics are not exposed as tools.
func New(kernel *daemon.Kernel) *Bridge {
	b := &Bridge{
		kernel: kernel,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "tldr-mcp-server",
			Version: "0.1.0",
		}, nil),
	}
	b.registerTools()
	return b
}

// Run serves the bridge over stdio until ctx is cancelled or the
// transport closes.
func (b *Bridge) Run(ctx context.Context) error {
	return b.server.Run(ctx, &mcp.StdioTransport{})
}

func stringSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func intSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

type toolSpec struct {
	name     string
	desc     string
	cmd      string
	props    map[string]*jsonschema.Schema
	required []string
}

func (b *Bridge) registerTools() {
	specs := []toolSpec{
		{"ping", "Check whether the daemon is alive.", "ping", nil, nil},
		{"status", "Report the daemon's lifecycle state, uptime, and cache stats.", "status", nil, nil},
		{"search", "Search indexed functions by name substring.", "search", map[string]*jsonschema.Schema{
			"name":  stringSchema("Substring to match against function names"),
			"limit": intSchema("Maximum number of matches"),
		}, []string{"name"}},
		{"extract", "Return the extracted facts (functions, classes, imports) for one file.", "extract", map[string]*jsonschema.Schema{
			"file": stringSchema("Project-relative file path"),
		}, []string{"file"}},
		{"calls", "List resolved call edges, optionally filtered to one function.", "calls", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name to filter by (caller or callee)"),
		}, nil},
		{"imports", "List the imports declared by one file.", "imports", map[string]*jsonschema.Schema{
			"file": stringSchema("Project-relative file path"),
		}, []string{"file"}},
		{"importers", "List files that import a given module.", "importers", map[string]*jsonschema.Schema{
			"module": stringSchema("Module name to search importers of"),
		}, []string{"module"}},
		{"impact", "Find every function that transitively calls a given function.", "impact", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name to compute impact for"),
			"depth":    intSchema("Maximum traversal depth"),
		}, []string{"function"}},
		{"dead", "List functions with no resolved caller anywhere in the project.", "dead", nil, nil},
		{"arch", "Summarize directory-level call-edge groupings.", "arch", nil, nil},
		{"cfg", "Build the control-flow graph for one function.", "cfg", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name"),
		}, []string{"function"}},
		{"dfg", "Build the data-flow graph for one function.", "dfg", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name"),
		}, []string{"function"}},
		{"slice", "Compute a program slice over one variable within a function.", "slice", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name"),
			"variable": stringSchema("Variable name to slice on"),
		}, []string{"function"}},
		{"context", "Return the source text of one function.", "context", map[string]*jsonschema.Schema{
			"function": stringSchema("Function name"),
		}, []string{"function"}},
		{"warm", "Force a full reindex of the project.", "warm", nil, nil},
	}

	for _, s := range specs {
		spec := s
		b.server.AddTool(&mcp.Tool{
			Name:        spec.name,
			Description: spec.desc,
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: spec.props,
				Required:   spec.required,
			},
		}, b.handlerFor(spec.cmd))
	}
}

// handlerFor builds an MCP tool handler that forwards the call's raw JSON
// arguments straight into the kernel's dispatch table, reusing the exact
// same command handlers the socket protocol drives.
func (b *Bridge) handlerFor(cmd string) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]json.RawMessage
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return textResult(fmt.Sprintf(`{"status":"error","message":"invalid arguments: %v"}`, err)), nil
			}
		}
		resp := b.kernel.Dispatch(cmd, args)
		data, err := json.Marshal(resp)
		if err != nil {
			return textResult(fmt.Sprintf(`{"status":"error","message":"%v"}`, err)), nil
		}
		return textResult(string(data)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
