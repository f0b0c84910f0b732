// Package options defines the flag-bindable run options for jarvisd,
// mirroring the layered Options/Config split the teacher uses to separate
// "what the operator can set" from "what the running service reads".
package options

import (
	"time"

	"github.com/spf13/pflag"
)

// Options holds every flag jarvisd accepts, grouped by concern. The fields
// that config.Load's overlay handles may also be set through a JARVIS_-
// prefixed environment variable (flag name upper-cased, dashes as
// underscores) or the config file; the duration fields and
// MaxNavigationTimeoutMs are set by flag only.
type Options struct {
	ListenAddr    string
	AuthEnabled   bool
	AuthToken     string
	RateLimitRPM  int

	BoltPath   string
	SQLitePath string

	RedisAddr string
	UseRedis  bool

	MaxSessions           int64
	SessionIdleTimeout    time.Duration
	SessionReapInterval   time.Duration

	MaxLLMCallsPerRun     int
	MaxBrowserStepsPerRun int
	AgentNodeTimeout      time.Duration
	AgentRunTimeout       time.Duration
	AsyncJobs             bool

	IdempotencyTTL time.Duration

	AllowEvaluate          bool
	AllowDownloads         bool
	BlockPrivateAddr       bool
	AllowLocalhost         bool
	MaxNavigationTimeoutMs int

	MCPConfigFile string

	ConfigFile string
}

// NewOptions returns an Options populated with the service's defaults.
func NewOptions() *Options {
	return &Options{
		ListenAddr:             ":8080",
		AuthEnabled:            false,
		RateLimitRPM:           120,
		BoltPath:               "data/jarvis.db",
		SQLitePath:             "data/audit.db",
		UseRedis:               false,
		MaxSessions:            10,
		SessionIdleTimeout:     5 * time.Minute,
		SessionReapInterval:    30 * time.Second,
		MaxLLMCallsPerRun:      20,
		MaxBrowserStepsPerRun:  50,
		AgentNodeTimeout:       30 * time.Second,
		AgentRunTimeout:        2 * time.Minute,
		AsyncJobs:              false,
		IdempotencyTTL:         10 * time.Minute,
		AllowEvaluate:          true,
		AllowDownloads:         false,
		BlockPrivateAddr:       true,
		AllowLocalhost:         false,
		MaxNavigationTimeoutMs: 30_000,
		MCPConfigFile:          "conf/mcp.json",
	}
}

// AddFlags registers every option on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ListenAddr, "listen-addr", o.ListenAddr, "HTTP listen address")
	fs.BoolVar(&o.AuthEnabled, "auth-enabled", o.AuthEnabled, "require bearer auth on non-loopback requests")
	fs.StringVar(&o.AuthToken, "auth-token", o.AuthToken, "bearer token to require when auth is enabled")
	fs.IntVar(&o.RateLimitRPM, "rate-limit-rpm", o.RateLimitRPM, "per-user requests/minute before 429")

	fs.StringVar(&o.BoltPath, "bolt-path", o.BoltPath, "BoltDB file path for run/node state")
	fs.StringVar(&o.SQLitePath, "sqlite-path", o.SQLitePath, "SQLite file path for the audit log")

	fs.StringVar(&o.RedisAddr, "redis-addr", o.RedisAddr, "Redis address for the queue bridge")
	fs.BoolVar(&o.UseRedis, "use-redis", o.UseRedis, "use Redis instead of the in-process queue")

	fs.Int64Var(&o.MaxSessions, "max-sessions", o.MaxSessions, "max concurrent browser sessions")
	fs.DurationVar(&o.SessionIdleTimeout, "session-idle-timeout", o.SessionIdleTimeout, "idle duration before a session is reaped")
	fs.DurationVar(&o.SessionReapInterval, "session-reap-interval", o.SessionReapInterval, "reaper sweep interval")

	fs.IntVar(&o.MaxLLMCallsPerRun, "max-llm-calls-per-run", o.MaxLLMCallsPerRun, "per-run LLM call budget")
	fs.IntVar(&o.MaxBrowserStepsPerRun, "max-browser-steps-per-run", o.MaxBrowserStepsPerRun, "per-run browser step budget")
	fs.DurationVar(&o.AgentNodeTimeout, "agent-node-timeout", o.AgentNodeTimeout, "per-node execution timeout")
	fs.DurationVar(&o.AgentRunTimeout, "agent-run-timeout", o.AgentRunTimeout, "overall run wall-clock deadline")
	fs.BoolVar(&o.AsyncJobs, "async-jobs", o.AsyncJobs, "enqueue runs instead of executing them synchronously")

	fs.DurationVar(&o.IdempotencyTTL, "idempotency-ttl", o.IdempotencyTTL, "replay window for Idempotency-Key")

	fs.BoolVar(&o.AllowEvaluate, "allow-evaluate", o.AllowEvaluate, "allow the evaluate() browser action")
	fs.BoolVar(&o.AllowDownloads, "allow-downloads", o.AllowDownloads, "allow file downloads during browser actions")
	fs.BoolVar(&o.BlockPrivateAddr, "block-private-addr", o.BlockPrivateAddr, "reject navigation to private/loopback/link-local addresses")
	fs.BoolVar(&o.AllowLocalhost, "allow-localhost", o.AllowLocalhost, "exempt localhost from the private-address block")
	fs.IntVar(&o.MaxNavigationTimeoutMs, "max-navigation-timeout-ms", o.MaxNavigationTimeoutMs, "per-action navigation timeout")

	fs.StringVar(&o.MCPConfigFile, "mcp-config-file", o.MCPConfigFile, "path to an MCP server config file (Claude Desktop mcpServers format); missing file means no MCP tools")

	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "path to a YAML config file overriding these defaults")
}
