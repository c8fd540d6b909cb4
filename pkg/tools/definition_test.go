package tools

import (
	"context"
	"encoding/json"
	"testing"
)

type testInput struct {
	Value int `json:"value"`
}

func TestToolFunc_SupportsContextAndInputSignature(t *testing.T) {
	def, err := NewToolFromFunc(
		"ctx_input_tool",
		"test",
		func(ctx context.Context, in testInput) (int, error) {
			if ctx == nil {
				t.Fatalf("ctx should not be nil")
			}
			return in.Value + 1, nil
		},
	)
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	out, err := def.Function.ExecuteWithContext(context.Background(), []byte(`{"value":41}`))
	if err != nil {
		t.Fatalf("ExecuteWithContext failed: %v", err)
	}

	v, ok := out.(int)
	if !ok {
		t.Fatalf("expected int result, got %T", out)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestToolFunc_SupportsInputOnlySignature(t *testing.T) {
	def, err := NewToolFromFunc("input_tool", "test", func(in testInput) (string, error) {
		if in.Value != 7 {
			t.Fatalf("expected 7, got %d", in.Value)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	out, err := def.Function.ExecuteWithContext(context.Background(), []byte(`{"value":7}`))
	if err != nil {
		t.Fatalf("ExecuteWithContext failed: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected ok, got %v", out)
	}
}

func TestNewToolFromFunc_GeneratesObjectSchema(t *testing.T) {
	def, err := NewToolFromFunc("schema_tool", "test", func(in testInput) (int, error) {
		return in.Value, nil
	})
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	b, err := json.Marshal(def.Parameters)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties in schema, got %v", schema)
	}
	if _, ok := props["value"]; !ok {
		t.Fatalf("expected value property in schema, got %v", props)
	}
}

func TestNewToolFromFunc_RejectsBadSignatures(t *testing.T) {
	if _, err := NewToolFromFunc("bad", "test", "not a function"); err == nil {
		t.Fatalf("expected error for non-function")
	}
	if _, err := NewToolFromFunc("bad", "test", func(in testInput) {}); err == nil {
		t.Fatalf("expected error for missing return values")
	}
	if _, err := NewToolFromFunc("bad", "test", func(in testInput) (int, string) {
		return 0, ""
	}); err == nil {
		t.Fatalf("expected error for non-error second return")
	}
}

func TestToolFunc_BadArgumentsReturnError(t *testing.T) {
	def, err := NewToolFromFunc("args_tool", "test", func(in testInput) (int, error) {
		return in.Value, nil
	})
	if err != nil {
		t.Fatalf("NewToolFromFunc failed: %v", err)
	}

	if _, err := def.Function.ExecuteWithContext(context.Background(), []byte(`{"value":`)); err == nil {
		t.Fatalf("expected error for malformed arguments")
	}
}
