// Package serde renders Turns to YAML for diagnostic dumps. The output goes
// to the log stream only and carries no protocol meaning.
package serde

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/deepdive/pkg/turns"
)

// NormalizeTurn applies serialization defaults without mutating block order.
func NormalizeTurn(t *turns.Turn) {
	if t == nil {
		return
	}
	for i := range t.Blocks {
		b := &t.Blocks[i]
		if b.Payload == nil {
			b.Payload = map[string]any{}
		}
		// Synthesize assistant role for llm_text if missing
		if b.Kind == turns.BlockKindLLMText {
			if strings.TrimSpace(b.Role) == "" {
				b.Role = turns.RoleAssistant
			}
		}
	}
}

// ToYAML marshals a Turn to YAML using snake_case tags and BlockKind string enums.
func ToYAML(t *turns.Turn) ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	snapshot := t.Clone()
	NormalizeTurn(snapshot)
	return yaml.Marshal(snapshot)
}

// FromYAML unmarshals a Turn from YAML.
func FromYAML(b []byte) (*turns.Turn, error) {
	var t turns.Turn
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	NormalizeTurn(&t)
	return &t, nil
}
