// Package redact scrubs secret-shaped fields and caps oversized payloads
// before they cross the logging or audit boundary.
package redact

import (
	"encoding/json"
	"regexp"
)

const maskValue = "***REDACTED***"

// MaxPayloadBytes is the size past which Truncate cuts a payload, per the
// ~1 MiB ceiling on logged and audited request/response bodies.
const MaxPayloadBytes = 1 << 20

// secretKey matches field names treated as secret regardless of case or
// separator style (apiKey, api_key, API-KEY, ...).
var secretKey = regexp.MustCompile(`(?i)^(password|token|secret|key|api[_-]?key)$`)

// JSON walks an arbitrary JSON-decoded value (map[string]any, []any, or a
// scalar) and returns a copy with every map value whose key matches a
// secret pattern replaced by a fixed mask. Keys are matched exactly, so
// "username" survives but "password", "apiKey", and "api_key" do not.
func JSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if secretKey.MatchString(k) {
				out[k] = maskValue
				continue
			}
			out[k] = JSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = JSON(val)
		}
		return out
	default:
		return v
	}
}

// Truncate marshals v to JSON and, if the encoding exceeds MaxPayloadBytes,
// returns a metadata stub in its place instead of the full payload. The
// original byte length is preserved in the stub so callers can tell a
// truncated entry apart from a naturally small one.
func Truncate(v any) any {
	raw, err := json.Marshal(v)
	if err != nil || len(raw) <= MaxPayloadBytes {
		return v
	}
	return map[string]any{
		"truncated":   true,
		"originalLen": len(raw),
	}
}

// ForLog applies JSON-field redaction followed by size truncation, the
// order every call site should use before handing a payload to the logger
// or the audit store. v is round-tripped through JSON first so struct
// fields (not just map[string]any) are visible to the redaction walk.
func ForLog(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return v
	}
	return Truncate(JSON(generic))
}
