package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mcpTool "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	llmentity "github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// ServerStatus is the connection state of one MCP server.
type ServerStatus int

const (
	StatusDisconnected ServerStatus = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s ServerStatus) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusError:
		return "Error"
	default:
		return "Disconnected"
	}
}

// server is one connected (or attempting-to-connect) MCP server.
type server struct {
	name   string
	config *ServerConfig

	mu     sync.RWMutex
	client client.MCPClient
	tools  map[string]tool.BaseTool
	meta   []llmentity.Tool
	status ServerStatus
	err    error
}

func newServer(name string, cfg *ServerConfig) *server {
	return &server{name: name, config: cfg, status: StatusDisconnected}
}

func (s *server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Connect performs the MCP handshake, then discovers tools twice: once via
// eino-ext's wrapper (the tool.BaseTool values actually invoked for a model's
// tool call) and once via a raw ListTools call (whose InputSchema survives a
// generic JSON round-trip into entity.Tool.Parameters, unlike eino's
// ParamsOneOf which has no public JSON-schema accessor used anywhere in this
// codebase's lineage).
func (s *server) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = StatusConnecting
	s.err = nil

	cli, err := s.createClient()
	if err != nil {
		s.status = StatusError
		s.err = err
		return fmt.Errorf("mcp server %q: create client: %w", s.name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "jarvisd", Version: "0.1.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		s.status = StatusError
		s.err = err
		return fmt.Errorf("mcp server %q: initialize: %w", s.name, err)
	}

	einoTools, err := mcpTool.GetTools(ctx, &mcpTool.Config{Cli: cli, ToolNameList: s.config.ToolFilter})
	if err != nil {
		s.status = StatusError
		s.err = err
		return fmt.Errorf("mcp server %q: get tools: %w", s.name, err)
	}

	byName := make(map[string]tool.BaseTool, len(einoTools))
	for _, t := range einoTools {
		info, err := t.Info(ctx)
		if err != nil {
			log.Warn("mcp server %q: tool info: %v", s.name, err)
			continue
		}
		byName[info.Name] = t
	}

	meta, err := listToolMeta(ctx, cli, s.config.ToolFilter)
	if err != nil {
		log.Warn("mcp server %q: list tools metadata: %v", s.name, err)
	}

	s.client = cli
	s.tools = byName
	s.meta = meta
	s.status = StatusConnected
	return nil
}

// listToolMeta fetches the raw protocol tool list for entity.Tool
// conversion, filtered to names if given.
func listToolMeta(ctx context.Context, cli client.MCPClient, names []string) ([]llmentity.Tool, error) {
	res, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	allow := make(map[string]struct{}, len(names))
	for _, n := range names {
		allow[n] = struct{}{}
	}
	out := make([]llmentity.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		if len(allow) > 0 {
			if _, ok := allow[t.Name]; !ok {
				continue
			}
		}
		out = append(out, llmentity.Tool{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaToMap(t.InputSchema),
		})
	}
	return out, nil
}

// schemaToMap round-trips a JSON-schema-shaped value through
// encoding/json rather than reading its Go struct fields directly, since
// the exact struct layout of an MCP tool's InputSchema is an implementation
// detail of mark3labs/mcp-go this package should not depend on.
func schemaToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func (s *server) Tools() []llmentity.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]llmentity.Tool, len(s.meta))
	copy(out, s.meta)
	return out
}

// CallTool invokes name via its live eino tool.BaseTool, returning false if
// this server does not have a tool by that name.
func (s *server) CallTool(ctx context.Context, name, argumentsJSON string) (string, bool, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	invokable, ok := t.(tool.InvokableTool)
	if !ok {
		return "", true, fmt.Errorf("mcp tool %q does not support invocation", name)
	}
	result, err := invokable.InvokableRun(ctx, argumentsJSON)
	return result, true, err
}

func (s *server) Reconnect(ctx context.Context) error {
	s.Close()
	return s.Connect(ctx)
}

func (s *server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Warn("mcp server %q: close client: %v", s.name, err)
		}
		s.client = nil
	}
	s.tools = nil
	s.meta = nil
	s.status = StatusDisconnected
	s.err = nil
}

func (s *server) createClient() (client.MCPClient, error) {
	switch s.config.Transport {
	case "", "stdio":
		return client.NewStdioMCPClient(s.config.Command, s.config.Env, s.config.Args...)
	case "sse":
		return client.NewSSEMCPClient(s.config.URL)
	default:
		return nil, fmt.Errorf("unknown transport %q", s.config.Transport)
	}
}
