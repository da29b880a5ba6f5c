package docmigrate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMigrateLegacyCommandAndPromptFields(t *testing.T) {
	raw := []byte(`{
		"nodes": [
			{"id": "a", "kind": "CLI", "data": {"command": "echo hi"}},
			{"id": "b", "kind": "LLM", "data": {"prompt": "say hi"}}
		],
		"edges": []
	}`)

	out, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if doc["version"] != CurrentVersion {
		t.Errorf("got version %v, want %v", doc["version"], CurrentVersion)
	}
	nodes := doc["nodes"].([]any)
	a := nodes[0].(map[string]any)["data"].(map[string]any)
	if a["content"] != "echo hi" {
		t.Errorf("CLI command should migrate to content, got %v", a)
	}
	if _, ok := a["command"]; ok {
		t.Errorf("legacy command field should be removed, got %v", a)
	}
	if a["active"] != true {
		t.Errorf("active should default to true, got %v", a)
	}

	b := nodes[1].(map[string]any)["data"].(map[string]any)
	if b["content"] != "say hi" {
		t.Errorf("LLM prompt should migrate to content, got %v", b)
	}
}

func TestMigrateCurrentVersionOnlyAppliesDefaults(t *testing.T) {
	raw := []byte(`{
		"version": "1.1.0",
		"nodes": [{"id": "a", "kind": "INPUT", "data": {"content": "hello"}}],
		"edges": []
	}`)

	out, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	data := doc["nodes"].([]any)[0].(map[string]any)["data"].(map[string]any)
	if data["content"] != "hello" {
		t.Errorf("existing content should be left alone, got %v", data)
	}
	if data["active"] != true {
		t.Errorf("missing active should still be defaulted, got %v", data)
	}
}

func TestMigrateMissingVersionTreatedAsLegacy(t *testing.T) {
	raw := []byte(`{"nodes": [{"id": "a", "kind": "INPUT", "data": {}}], "edges": []}`)
	out, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if doc["version"] != CurrentVersion {
		t.Errorf("got version %v", doc["version"])
	}
}

func TestMigrateRejectsMissingRequiredFields(t *testing.T) {
	raw := []byte(`{"nodes": [{"kind": "INPUT", "data": {}}], "edges": []}`)
	_, err := Migrate(raw)
	if err == nil || !strings.Contains(err.Error(), "invalid document") {
		t.Fatalf("got %v, want a schema-validation error", err)
	}
}

func TestCompareSemver(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.1.0", -1},
		{"1.1.0", "1.0.0", 1},
		{"1.0", "1.0.0", 0},
		{"", "1.0.0", -1},
	}
	for _, tc := range cases {
		if got := compareSemver(tc.a, tc.b); got != tc.want {
			t.Errorf("compareSemver(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
