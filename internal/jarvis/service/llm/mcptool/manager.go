package mcptool

import (
	"context"
	"fmt"
	"sync"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	llmentity "github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// Manager owns every configured MCP server connection and provides a
// unified tool surface the Gen and Research handlers bind into a
// CompletionRequest without caring which server, if any, backs a tool.
type Manager interface {
	// Initialize connects to every configured server concurrently. A
	// server that fails to connect is logged and skipped; Initialize only
	// errors if every server failed.
	Initialize(ctx context.Context) error

	// AllTools returns the combined tool list from every connected server.
	AllTools() []llmentity.Tool

	// CallTool invokes name on whichever connected server exposes it.
	CallTool(ctx context.Context, name, argumentsJSON string) (string, error)

	Close() error
}

type manager struct {
	mu      sync.RWMutex
	servers map[string]*server
	order   []string
}

// NewManager builds a Manager for cfg. A nil or empty cfg yields a Manager
// with zero servers: AllTools returns nil and CallTool always errors, which
// is the correct behavior for a deployment with no mcp.json in place.
func NewManager(cfg *Config) Manager {
	if cfg == nil {
		cfg = NewConfig()
	}
	m := &manager{
		servers: make(map[string]*server, len(cfg.Servers)),
		order:   make([]string, 0, len(cfg.Servers)),
	}
	for name, srvCfg := range cfg.Servers {
		m.servers[name] = newServer(name, srvCfg)
		m.order = append(m.order, name)
	}
	return m
}

func (m *manager) Initialize(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.servers) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, srv := range m.servers {
		wg.Add(1)
		go func(s *server) {
			defer wg.Done()
			if err := s.Connect(ctx); err != nil {
				log.Warn("mcp server %q failed to connect: %v", s.name, err)
			}
		}(srv)
	}
	wg.Wait()

	connected := 0
	for _, srv := range m.servers {
		if srv.Status() == StatusConnected {
			connected++
		}
	}
	log.Info("mcp: %d/%d servers connected", connected, len(m.servers))
	if connected == 0 {
		return fmt.Errorf("mcp: none of %d configured servers connected", len(m.servers))
	}
	return nil
}

func (m *manager) AllTools() []llmentity.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []llmentity.Tool
	for _, name := range m.order {
		srv := m.servers[name]
		if srv.Status() == StatusConnected {
			all = append(all, srv.Tools()...)
		}
	}
	return all
}

func (m *manager) CallTool(ctx context.Context, name, argumentsJSON string) (string, error) {
	m.mu.RLock()
	servers := make([]*server, 0, len(m.order))
	for _, n := range m.order {
		servers = append(servers, m.servers[n])
	}
	m.mu.RUnlock()

	for _, srv := range servers {
		if srv.Status() != StatusConnected {
			continue
		}
		result, owned, err := srv.CallTool(ctx, name, argumentsJSON)
		if owned {
			return result, err
		}
	}
	return "", errToolNotFound(name)
}

func (m *manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, srv := range m.servers {
		srv.Close()
	}
	return nil
}
