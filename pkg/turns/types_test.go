package turns

import "testing"

func TestFindBlocksByKind(t *testing.T) {
	turn := &Turn{}
	AppendBlocks(turn,
		NewSystemTextBlock("directive"),
		NewUserTextBlock("question"),
		NewToolCallBlock("call-1", "web_search", map[string]any{"query": "go"}),
		NewToolUseBlock("call-1", "results"),
		NewAssistantTextBlock("answer"),
	)

	calls := FindBlocksByKind(turn, BlockKindToolCall)
	if len(calls) != 1 || calls[0].Payload[PayloadKeyName] != "web_search" {
		t.Fatalf("unexpected tool_call blocks: %v", calls)
	}

	texty := FindBlocksByKind(turn, BlockKindUser, BlockKindLLMText)
	if len(texty) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(texty))
	}
	if texty[0].Kind != BlockKindUser || texty[1].Kind != BlockKindLLMText {
		t.Fatalf("blocks out of turn order: %v", texty)
	}

	if got := FindBlocksByKind(nil, BlockKindUser); got != nil {
		t.Fatalf("expected nil for nil turn, got %v", got)
	}
}

func TestPrependBlock(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("question"))
	PrependBlock(turn, NewSystemTextBlock("directive"))

	if len(turn.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(turn.Blocks))
	}
	if turn.Blocks[0].Kind != BlockKindSystem || turn.Blocks[1].Kind != BlockKindUser {
		t.Fatalf("system block not first: %v", turn.Blocks)
	}

	PrependBlock(nil, NewSystemTextBlock("directive"))
}
