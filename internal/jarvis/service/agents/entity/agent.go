// Package entity holds the canonical data model of the orchestrator: Agent,
// Run, NodeExecution, and the request/output shapes that flow between them.
//
// Modeled after the teacher's service/agents/domain/entity package.
package entity

import "time"

// AgentKind identifies the family a run is executed by.
type AgentKind string

const (
	KindEcho     AgentKind = "ECHO"
	KindBrowser  AgentKind = "BROWSER"
	KindGen      AgentKind = "GEN"
	KindResearch AgentKind = "RESEARCH"
)

// RateLimit bounds how often an agent may be invoked.
type RateLimit struct {
	Requests int `json:"requests"`
	WindowMs int `json:"window_ms"`
}

// SecurityConfig scopes an agent's network reach.
type SecurityConfig struct {
	AllowedDomains []string `json:"allowed_domains,omitempty"`
	BlockedDomains []string `json:"blocked_domains,omitempty"`
	MaxRequestSize int64    `json:"max_request_size,omitempty"`
}

// AgentConfig is the static tunable surface of an Agent descriptor.
type AgentConfig struct {
	TimeoutMs   int             `json:"timeout_ms"`
	MaxRetries  int             `json:"max_retries"`
	RateLimit   *RateLimit      `json:"rate_limit,omitempty"`
	Security    *SecurityConfig `json:"security,omitempty"`
}

// Agent is the static descriptor of one agent kind registration.
type Agent struct {
	ID           string    `json:"id"`
	Kind         AgentKind `json:"kind"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Capabilities []string  `json:"capabilities"`
	Config       AgentConfig `json:"config"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
