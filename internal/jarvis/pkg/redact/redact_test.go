package redact

import (
	"strings"
	"testing"
)

func TestJSONMasksSecretKeys(t *testing.T) {
	in := map[string]any{
		"username": "alice",
		"password": "hunter2",
		"apiKey":   "sk-live-abc",
		"nested": map[string]any{
			"api_key": "nested-secret",
			"ok":      "fine",
		},
		"list": []any{
			map[string]any{"token": "t1"},
			"plain",
		},
	}

	out, ok := JSON(in).(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out)
	}
	if out["username"] != "alice" {
		t.Errorf("username should survive unmasked, got %v", out["username"])
	}
	if out["password"] != maskValue {
		t.Errorf("password should be masked, got %v", out["password"])
	}
	if out["apiKey"] != maskValue {
		t.Errorf("apiKey should be masked, got %v", out["apiKey"])
	}
	nested := out["nested"].(map[string]any)
	if nested["api_key"] != maskValue {
		t.Errorf("nested api_key should be masked, got %v", nested["api_key"])
	}
	if nested["ok"] != "fine" {
		t.Errorf("nested non-secret key should survive, got %v", nested["ok"])
	}
	list := out["list"].([]any)
	if list[0].(map[string]any)["token"] != maskValue {
		t.Errorf("token inside list element should be masked")
	}
}

func TestTruncateLeavesSmallPayloadsAlone(t *testing.T) {
	in := map[string]any{"hello": "world"}
	out := Truncate(in)
	m, ok := out.(map[string]any)
	if !ok || m["hello"] != "world" {
		t.Errorf("small payload should pass through unchanged, got %#v", out)
	}
}

func TestTruncateCapsOversizedPayloads(t *testing.T) {
	in := map[string]any{"blob": strings.Repeat("x", MaxPayloadBytes+1)}
	out := Truncate(in)
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected a truncation stub, got %T", out)
	}
	if m["truncated"] != true {
		t.Errorf("expected truncated=true, got %v", m["truncated"])
	}
	if n, ok := m["originalLen"].(int); !ok || n <= MaxPayloadBytes {
		t.Errorf("expected originalLen > %d, got %v", MaxPayloadBytes, m["originalLen"])
	}
}
