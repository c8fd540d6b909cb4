package turns

// Standard keys used in Block.Payload maps
const (
	PayloadKeyText   = "text"
	PayloadKeyID     = "id"
	PayloadKeyName   = "name"
	PayloadKeyArgs   = "args"
	PayloadKeyResult = "result"
	PayloadKeyError  = "error"
)

// Standard keys used in Turn.Metadata maps
const (
	// MetadataKeyMessageID carries the correlation token of the query the
	// Turn belongs to.
	MetadataKeyMessageID = "message_id"
)
