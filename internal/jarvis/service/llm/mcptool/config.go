// Package mcptool bridges the LLM facade to Model Context Protocol servers:
// it connects to each configured server, discovers its tools, and converts
// both tool definitions and tool results across the entity/eino boundary so
// the Gen and Research agent handlers can offer them to a tool-calling
// model without knowing MCP exists.
package mcptool

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level MCP configuration, compatible with the Claude
// Desktop / VS Code "mcpServers" file format.
type Config struct {
	Servers map[string]*ServerConfig `json:"mcpServers"`
}

// ServerConfig configures one MCP server, either a stdio subprocess or an
// SSE endpoint.
type ServerConfig struct {
	Transport string   `json:"transport,omitempty"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	Env       []string `json:"env,omitempty"`
	URL       string   `json:"url,omitempty"`

	// ToolFilter restricts exposed tools to this list; empty exposes all.
	ToolFilter []string `json:"toolFilter,omitempty"`
}

// LoadConfig reads path as an MCP config file. A missing file is not an
// error: it yields an empty config, so MCP support is opt-in by dropping a
// file in place rather than by a separate enable flag.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return NewConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("read mcp config %q: %w", path, err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config %q: %w", path, err)
	}
	if cfg.Servers == nil {
		cfg.Servers = make(map[string]*ServerConfig)
	}
	return cfg, nil
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{Servers: make(map[string]*ServerConfig)}
}

// Validate reports every malformed server entry without stopping at the
// first one.
func (c *Config) Validate() []error {
	var errs []error
	for name, srv := range c.Servers {
		if srv.Transport == "" {
			srv.Transport = "stdio"
		}
		switch srv.Transport {
		case "stdio":
			if srv.Command == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: command is required for stdio transport", name))
			}
		case "sse":
			if srv.URL == "" {
				errs = append(errs, fmt.Errorf("mcpServers.%s: url is required for sse transport", name))
			}
		default:
			errs = append(errs, fmt.Errorf("mcpServers.%s: unsupported transport %q (must be stdio or sse)", name, srv.Transport))
		}
	}
	return errs
}
