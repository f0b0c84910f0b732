package mcptool

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Servers) != 0 {
		t.Errorf("expected no servers, got %d", len(cfg.Servers))
	}
}

func TestLoadConfigEmptyPathYieldsEmptyConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Servers) != 0 {
		t.Errorf("expected no servers, got %d", len(cfg.Servers))
	}
}

func TestLoadConfigParsesClaudeDesktopFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	body := `{
		"mcpServers": {
			"filesystem": {
				"transport": "stdio",
				"command": "npx",
				"args": ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
			}
		}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	srv, ok := cfg.Servers["filesystem"]
	if !ok {
		t.Fatalf("expected a filesystem server entry")
	}
	if srv.Command != "npx" || len(srv.Args) != 3 {
		t.Errorf("filesystem server = %+v", srv)
	}
}

func TestValidateRejectsMissingCommandAndURL(t *testing.T) {
	cfg := &Config{Servers: map[string]*ServerConfig{
		"bad-stdio": {Transport: "stdio"},
		"bad-sse":   {Transport: "sse"},
		"bad-kind":  {Transport: "carrier-pigeon"},
	}}
	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3: %v", len(errs), errs)
	}
}

func TestValidateDefaultsEmptyTransportToStdio(t *testing.T) {
	cfg := &Config{Servers: map[string]*ServerConfig{
		"implicit": {Command: "npx"},
	}}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}
