package claude

import (
	"encoding/json"

	"github.com/go-go-golems/deepdive/pkg/turns"
)

// MakeMessageRequestFromTurn builds a Messages API request from the blocks
// of a Turn. System blocks become the system prompt; consecutive blocks
// of the same role are grouped into a single message.
func MakeMessageRequestFromTurn(cfg Config, t *turns.Turn) (*MessageRequest, error) {
	msgs := []Message{}
	systemPrompt := ""

	role := ""
	var contents []Content
	flush := func() {
		if len(contents) > 0 {
			msgs = append(msgs, Message{Role: role, Content: contents})
			contents = nil
		}
	}
	appendContent := func(r string, c Content) {
		if r != role {
			flush()
			role = r
		}
		contents = append(contents, c)
	}

	for _, b := range t.Blocks {
		switch b.Kind {
		case turns.BlockKindSystem:
			if systemPrompt != "" {
				systemPrompt += "\n"
			}
			systemPrompt += turns.BlockText(b)

		case turns.BlockKindUser:
			appendContent(turns.RoleUser, NewTextContent(turns.BlockText(b)))

		case turns.BlockKindLLMText:
			if text := turns.BlockText(b); text != "" {
				appendContent(turns.RoleAssistant, NewTextContent(text))
			}

		case turns.BlockKindToolCall:
			id, _ := b.Payload[turns.PayloadKeyID].(string)
			name, _ := b.Payload[turns.PayloadKeyName].(string)
			appendContent(turns.RoleAssistant, NewToolUseContent(id, name, argsToJSON(b.Payload[turns.PayloadKeyArgs])))

		case turns.BlockKindToolUse:
			// tool results travel back to the model in user role
			id, _ := b.Payload[turns.PayloadKeyID].(string)
			appendContent(turns.RoleUser, NewToolResultContent(id, resultToString(b.Payload[turns.PayloadKeyResult])))
		}
	}
	flush()

	req := &MessageRequest{
		Model:       cfg.Model,
		Messages:    msgs,
		MaxTokens:   cfg.MaxTokens,
		Stream:      cfg.Stream,
		System:      systemPrompt,
		Temperature: cfg.Temperature,
	}

	return req, nil
}

func argsToJSON(args any) json.RawMessage {
	switch v := args.(type) {
	case nil:
		return json.RawMessage("{}")
	case json.RawMessage:
		return v
	case string:
		if json.Valid([]byte(v)) {
			return json.RawMessage(v)
		}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

func resultToString(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(b)
}
