package turns

import "strings"

// BlockText returns the text payload of a block, or "" when the block carries
// no textual content.
func BlockText(b Block) string {
	if b.Payload == nil {
		return ""
	}
	s, _ := b.Payload[PayloadKeyText].(string)
	return s
}

// JoinBlockTexts concatenates the text of every text-bearing block in order,
// joined by newlines. Non-text blocks contribute nothing.
func JoinBlockTexts(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != BlockKindLLMText {
			continue
		}
		if s := BlockText(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// LastAssistantText returns the text of the most recent assistant turn that
// carries non-empty text content, scanning the Turn most-recent-first. A run
// of consecutive llm_text blocks counts as one assistant turn; its texts are
// joined by newlines. Tool-call-only turns are skipped, which means the text
// of an earlier synthesis turn can win over a later turn that requested tools
// without saying anything.
func LastAssistantText(t *Turn) string {
	if t == nil {
		return ""
	}
	i := len(t.Blocks) - 1
	for i >= 0 {
		for i >= 0 && t.Blocks[i].Kind != BlockKindLLMText {
			i--
		}
		if i < 0 {
			return ""
		}
		j := i
		for j >= 0 && t.Blocks[j].Kind == BlockKindLLMText {
			j--
		}
		joined := JoinBlockTexts(t.Blocks[j+1 : i+1])
		if strings.TrimSpace(joined) != "" {
			return joined
		}
		i = j
	}
	return ""
}
