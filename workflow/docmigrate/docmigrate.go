// Package docmigrate migrates a persisted workflow document (spec.md §6:
// `{ version, nodes, edges }`) from any legacy version up to the current
// wire version, and structurally validates the result.
package docmigrate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CurrentVersion is the wire version Migrate always produces.
const CurrentVersion = "1.1.0"

// documentSchema is the structural shape a migrated document must satisfy:
// every node carries {content, active} in its data, regardless of kind.
var documentSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["version", "nodes", "edges"],
	"properties": {
		"version": {"type": "string"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "kind", "data"],
				"properties": {
					"id": {"type": "string"},
					"kind": {"type": "string"},
					"data": {
						"type": "object",
						"required": ["content", "active"]
					}
				}
			}
		},
		"edges": {"type": "array"}
	}
}`)

// document is the generic shape Migrate reads and writes. Node/edge payloads
// are kept as raw maps rather than workflow.Node/Edge, since a legacy
// document's per-kind fields (data.command, data.prompt, ...) don't exist on
// the current struct at all.
type document struct {
	Version string           `json:"version"`
	Nodes   []map[string]any `json:"nodes"`
	Edges   []map[string]any `json:"edges"`
}

// Migrate brings raw, a workflow document of any version, up to
// CurrentVersion and validates the result against documentSchema. Versions
// at or below 1.0.0 (including a missing version field) are treated as
// legacy: CLI's `command` and LLM's `prompt` fields are renamed to
// `content`, and every node's data gets `{content: "", active: true}`
// defaults injected where absent. A document already at CurrentVersion is
// left structurally alone (still defaulted and validated). Unknown kinds
// pass through unchanged.
func Migrate(raw []byte) ([]byte, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docmigrate: invalid document: %w", err)
	}

	if isLegacy(doc.Version) {
		for _, node := range doc.Nodes {
			migrateNode(node)
		}
	} else {
		for _, node := range doc.Nodes {
			applyDefaults(node)
		}
	}
	doc.Version = CurrentVersion

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docmigrate: re-marshal failed: %w", err)
	}
	if err := validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func isLegacy(version string) bool {
	if version == "" {
		return true
	}
	return compareSemver(version, "1.0.0") <= 0
}

// compareSemver compares two "major.minor.patch" version strings,
// returning -1, 0, or 1. Malformed or missing components are treated as 0,
// which is sufficient for the closed set of versions a workflow document
// ever actually carries (no third-party semver library is wired elsewhere
// in this module, and a three-field numeric compare doesn't need one).
func compareSemver(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < 3; i++ {
		na, nb := versionPart(pa, i), versionPart(pb, i)
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	return n
}

// migrateNode rewrites one legacy node's data in place: CLI's `command` and
// LLM's `prompt` become `content`; `temperature`, `fast`, and `maxTokens`
// already use their current names and pass through untouched (spec.md §6).
func migrateNode(node map[string]any) {
	data := nodeData(node)
	switch node["kind"] {
	case "CLI":
		if cmd, ok := data["command"]; ok {
			data["content"] = cmd
			delete(data, "command")
		}
	case "LLM":
		if prompt, ok := data["prompt"]; ok {
			data["content"] = prompt
			delete(data, "prompt")
		}
	}
	applyDefaultsOn(data)
}

func applyDefaults(node map[string]any) {
	applyDefaultsOn(nodeData(node))
}

func applyDefaultsOn(data map[string]any) {
	if _, ok := data["content"]; !ok {
		data["content"] = ""
	}
	if _, ok := data["active"]; !ok {
		data["active"] = true
	}
}

func nodeData(node map[string]any) map[string]any {
	data, _ := node["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
		node["data"] = data
	}
	return data
}

func validate(doc []byte) error {
	result, err := gojsonschema.Validate(documentSchema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("docmigrate: schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("docmigrate: invalid document: %s", strings.Join(msgs, "; "))
	}
	return nil
}
