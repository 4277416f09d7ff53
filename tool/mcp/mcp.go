// Package mcp connects kitchenmesh to Model Context Protocol servers and
// exposes their tools through the tool.Provider interface. Station tool
// servers (grill, fryer, desserts, expo) run as separate MCP processes or
// HTTP endpoints and contribute their cooking tools to the shared catalog.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/tool"
)

// callTimeout bounds a single remote tool execution.
const callTimeout = 30 * time.Second

// ServerConfig describes one MCP server connection.
type ServerConfig struct {
	Name      string            `json:"name"`
	Transport string            `json:"transport"` // "stdio" or "http"
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
}

// client abstracts the MCP client so tests can substitute a fake.
type client interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type serverConn struct {
	name   string
	client client
}

// Provider manages MCP server connections and contributes their discovered
// tools to a tool.Catalog.
type Provider struct {
	servers []serverConn
	tools   []tool.Tool
	logger  logging.Logger
}

// ProviderOptions configures optional Provider behavior.
type ProviderOptions struct {
	Logger logging.Logger
}

// NewProvider connects to all configured servers, discovers their tools and
// returns a ready provider. A failed connection tears down the already
// established ones and fails construction; a failed discovery on one server
// only skips that server as long as at least one succeeds.
func NewProvider(ctx context.Context, servers []ServerConfig, optFns ...func(o *ProviderOptions)) (*Provider, error) {
	opts := ProviderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	p := &Provider{logger: opts.Logger}
	for _, srv := range servers {
		conn, err := p.connect(ctx, srv)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("mcp server %q: %w", srv.Name, err)
		}
		p.servers = append(p.servers, *conn)
	}

	if err := p.discover(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("discover tools: %w", err)
	}
	return p, nil
}

// newProviderWithClients builds a Provider from pre-built clients (tests).
func newProviderWithClients(ctx context.Context, servers []serverConn, logger logging.Logger) (*Provider, error) {
	p := &Provider{servers: servers, logger: logger}
	if err := p.discover(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) connect(ctx context.Context, srv ServerConfig) (*serverConn, error) {
	var c client
	var err error

	switch srv.Transport {
	case "stdio":
		c, err = mcpclient.NewStdioMCPClient(srv.Command, envSlice(srv.Env), srv.Args...)
		if err != nil {
			return nil, fmt.Errorf("create stdio client: %w", err)
		}
	case "http":
		t, tErr := transport.NewStreamableHTTP(srv.URL)
		if tErr != nil {
			return nil, fmt.Errorf("create http transport: %w", tErr)
		}
		httpClient := mcpclient.NewClient(t)
		if err = httpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("start http client: %w", err)
		}
		c = httpClient
	default:
		return nil, fmt.Errorf("unsupported transport %q", srv.Transport)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "kitchenmesh", Version: "1.0.0"}

	if ic, ok := c.(interface {
		Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	}); ok {
		if _, err = ic.Initialize(ctx, initReq); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("initialize: %w", err)
		}
	}

	p.logger.Info("mcp server connected", "name", srv.Name, "transport", srv.Transport)
	return &serverConn{name: srv.Name, client: c}, nil
}

func (p *Provider) discover(ctx context.Context) error {
	var errs []string
	succeeded := 0

	for _, srv := range p.servers {
		result, err := srv.client.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			p.logger.Warn("mcp discovery failed, skipping server", "server", srv.name, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", srv.name, err))
			continue
		}
		for _, t := range result.Tools {
			p.tools = append(p.tools, newRemoteTool(srv.name, srv.client, t, p.logger))
			p.logger.Debug("mcp tool discovered", "server", srv.name, "tool", t.Name)
		}
		p.logger.Info("mcp tools discovered", "server", srv.name, "count", len(result.Tools))
		succeeded++
	}

	if succeeded == 0 && len(errs) > 0 {
		return fmt.Errorf("all mcp servers failed discovery: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Tools implements tool.Provider.
func (p *Provider) Tools() []tool.Tool { return p.tools }

// Close shuts down all server connections.
func (p *Provider) Close() {
	for _, srv := range p.servers {
		if err := srv.client.Close(); err != nil {
			p.logger.Warn("mcp server close error", "server", srv.name, "error", err)
		}
	}
}

// remoteTool wraps one discovered MCP tool as a tool.Tool.
type remoteTool struct {
	serverName string
	client     client
	mcpTool    mcp.Tool
	logger     logging.Logger
}

func newRemoteTool(serverName string, c client, t mcp.Tool, logger logging.Logger) *remoteTool {
	return &remoteTool{serverName: serverName, client: c, mcpTool: t, logger: logger}
}

// Name keeps the server-side tool name so agents can declare the same names
// the station servers advertise.
func (r *remoteTool) Name() string { return r.mcpTool.Name }

func (r *remoteTool) Description() string {
	if r.mcpTool.Description != "" {
		return r.mcpTool.Description
	}
	return fmt.Sprintf("MCP tool %q from server %q", r.mcpTool.Name, r.serverName)
}

// Parameters converts the server's input schema into the generic schema map.
func (r *remoteTool) Parameters() map[string]any {
	params := map[string]any{"type": "object"}
	data, err := json.Marshal(r.mcpTool.InputSchema)
	if err != nil {
		return params
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return params
	}
	return decoded
}

// Call forwards the invocation to the remote server and flattens the result
// content into a string.
func (r *remoteTool) Call(ctx context.Context, args map[string]any) (any, error) {
	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = r.mcpTool.Name
	callReq.Params.Arguments = args

	r.logger.Debug("mcp tool call", "server", r.serverName, "tool", r.mcpTool.Name)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	result, err := r.client.CallTool(callCtx, callReq)
	if err != nil {
		return nil, tool.NewToolError(r.mcpTool.Name, err.Error(), "EXECUTION_ERROR")
	}

	content := extractContent(result)
	if result.IsError {
		return nil, tool.NewToolError(r.mcpTool.Name, content, "EXECUTION_ERROR")
	}
	return content, nil
}

// extractContent converts an MCP tool result into plain text.
func extractContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			if data, err := json.Marshal(v); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}
