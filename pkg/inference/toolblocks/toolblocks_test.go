package toolblocks

import (
	"testing"

	"github.com/go-go-golems/deepdive/pkg/turns"
)

func TestExtractPendingToolCalls(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "web_search", map[string]any{"query": "done"}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call-1", "results"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-2", "web_search", map[string]any{"query": "pending"}))

	calls := ExtractPendingToolCalls(turn)
	if len(calls) != 1 {
		t.Fatalf("expected 1 pending call, got %d", len(calls))
	}
	if calls[0].ID != "call-2" {
		t.Fatalf("expected call-2, got %s", calls[0].ID)
	}
	if calls[0].Arguments["query"] != "pending" {
		t.Fatalf("expected pending query, got %v", calls[0].Arguments)
	}
}

func TestExtractPendingToolCalls_StringArgs(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "web_search", `{"query":"golang"}`))

	calls := ExtractPendingToolCalls(turn)
	if len(calls) != 1 {
		t.Fatalf("expected 1 pending call, got %d", len(calls))
	}
	if calls[0].Arguments["query"] != "golang" {
		t.Fatalf("expected parsed string args, got %v", calls[0].Arguments)
	}
}

func TestExtractPendingToolCalls_NilTurn(t *testing.T) {
	if calls := ExtractPendingToolCalls(nil); calls != nil {
		t.Fatalf("expected nil for nil turn, got %v", calls)
	}
}

func TestAppendToolResultsBlocks(t *testing.T) {
	turn := &turns.Turn{}
	AppendToolResultsBlocks(turn, []ToolResult{
		{ID: "call-1", Content: "verbatim result"},
		{ID: "call-2", Error: "boom"},
	})

	uses := turns.FindBlocksByKind(turn, turns.BlockKindToolUse)
	if len(uses) != 2 {
		t.Fatalf("expected 2 tool_use blocks, got %d", len(uses))
	}
	if uses[0].Payload[turns.PayloadKeyResult] != "verbatim result" {
		t.Fatalf("expected verbatim result, got %v", uses[0].Payload[turns.PayloadKeyResult])
	}
	if uses[1].Payload[turns.PayloadKeyResult] != "Error: boom" {
		t.Fatalf("expected error result, got %v", uses[1].Payload[turns.PayloadKeyResult])
	}
}
