package mcptool

import "testing"

func TestSchemaToMapRoundTripsJSONSchema(t *testing.T) {
	input := struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}{
		Type: "object",
		Properties: map[string]any{
			"query": map[string]any{"type": "string"},
		},
		Required: []string{"query"},
	}

	got := schemaToMap(input)
	if got["type"] != "object" {
		t.Fatalf("type = %v, want object", got["type"])
	}
	props, ok := got["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing or wrong type: %#v", got["properties"])
	}
	if _, ok := props["query"]; !ok {
		t.Errorf("expected a query property")
	}
}

func TestSchemaToMapNilOnUnmarshalableValue(t *testing.T) {
	if got := schemaToMap(func() {}); got != nil {
		t.Errorf("schemaToMap(func) = %v, want nil", got)
	}
}
