package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/deepdive/pkg/turns"
)

func TestMakeMessageRequestFromTurn(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewSystemTextBlock("you are a researcher"))
	turns.AppendBlock(turn, turns.NewUserTextBlock("what is go?"))
	turns.AppendBlock(turn, turns.NewAssistantTextBlock("let me check"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call-1", "web_search", map[string]any{"query": "go"}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call-1", "Title: Go\nURL: https://go.dev\nDescription: language"))

	req, err := MakeMessageRequestFromTurn(Config{Model: "test-model", MaxTokens: 128}, turn)
	require.NoError(t, err)

	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 128, req.MaxTokens)
	assert.Equal(t, "you are a researcher", req.System)

	require.Len(t, req.Messages, 3)

	assert.Equal(t, turns.RoleUser, req.Messages[0].Role)
	require.Len(t, req.Messages[0].Content, 1)
	assert.Equal(t, "what is go?", req.Messages[0].Content[0].Text)

	// assistant text and tool_use group into one message
	assert.Equal(t, turns.RoleAssistant, req.Messages[1].Role)
	require.Len(t, req.Messages[1].Content, 2)
	assert.Equal(t, ContentTypeText, req.Messages[1].Content[0].Type)
	assert.Equal(t, ContentTypeToolUse, req.Messages[1].Content[1].Type)
	assert.Equal(t, "call-1", req.Messages[1].Content[1].ID)
	assert.JSONEq(t, `{"query":"go"}`, string(req.Messages[1].Content[1].Input))

	// tool results travel back in user role
	assert.Equal(t, turns.RoleUser, req.Messages[2].Role)
	require.Len(t, req.Messages[2].Content, 1)
	assert.Equal(t, ContentTypeToolResult, req.Messages[2].Content[0].Type)
	assert.Equal(t, "call-1", req.Messages[2].Content[0].ToolUseID)
	assert.Contains(t, req.Messages[2].Content[0].ToolContent, "Title: Go")
}

func TestMakeMessageRequestFromTurn_JoinsSystemBlocks(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewSystemTextBlock("first"))
	turns.AppendBlock(turn, turns.NewSystemTextBlock("second"))
	turns.AppendBlock(turn, turns.NewUserTextBlock("hi"))

	req, err := MakeMessageRequestFromTurn(Config{Model: "m", MaxTokens: 1}, turn)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", req.System)
}
