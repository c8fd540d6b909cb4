package turns

// BlockKind tags the role a Block plays within a Turn.
type BlockKind string

const (
	BlockKindSystem   BlockKind = "system"
	BlockKindUser     BlockKind = "user"
	BlockKindLLMText  BlockKind = "llm_text"
	BlockKindToolCall BlockKind = "tool_call"
	BlockKindToolUse  BlockKind = "tool_use"
	BlockKindOther    BlockKind = "other"
)

// Block represents a single atomic unit within a Turn.
type Block struct {
	ID      string         `yaml:"id,omitempty"`
	Kind    BlockKind      `yaml:"kind"`
	Role    string         `yaml:"role,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Turn contains an ordered list of Blocks and associated metadata.
// A Turn is created fresh for each incoming query and discarded after the
// terminal response has been sent.
type Turn struct {
	ID       string         `yaml:"id,omitempty"`
	Blocks   []Block        `yaml:"blocks"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the Turn suitable for mutation without
// affecting the original. Payload maps are copied one level deep.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	out := &Turn{ID: t.ID}
	if len(t.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	if len(t.Blocks) == 0 {
		return out
	}
	out.Blocks = make([]Block, len(t.Blocks))
	for i := range t.Blocks {
		b := t.Blocks[i]
		if b.Payload != nil {
			cp := make(map[string]any, len(b.Payload))
			for k, v := range b.Payload {
				cp[k] = v
			}
			b.Payload = cp
		}
		out.Blocks[i] = b
	}
	return out
}

// AppendBlock appends a Block to a Turn.
func AppendBlock(t *Turn, b Block) {
	t.Blocks = append(t.Blocks, b)
}

// AppendBlocks appends multiple Blocks in order.
func AppendBlocks(t *Turn, blocks ...Block) {
	for _, b := range blocks {
		AppendBlock(t, b)
	}
}

// PrependBlock inserts a block at the beginning of the Turn's block slice.
func PrependBlock(t *Turn, b Block) {
	if t == nil {
		return
	}
	t.Blocks = append([]Block{b}, t.Blocks...)
}

// FindBlocksByKind returns blocks of the requested kinds in Turn order.
func FindBlocksByKind(t *Turn, kinds ...BlockKind) []Block {
	if t == nil {
		return nil
	}
	lookup := map[BlockKind]bool{}
	for _, k := range kinds {
		lookup[k] = true
	}
	ret := make([]Block, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		if lookup[b.Kind] {
			ret = append(ret, b)
		}
	}
	return ret
}
