package protocol

// Wire message types. One JSON object per line, inbound on stdin and
// outbound on stdout.
const (
	MessageTypeMessage  = "message"
	MessageTypeShutdown = "shutdown"

	MessageTypeReady    = "ready"
	MessageTypeActivity = "activity"
	MessageTypeResponse = "response"
	MessageTypeError    = "error"
)

// Activity tool labels.
const (
	ActivityToolThinking = "thinking"
	ActivityToolSearch   = "brave_search"
)

const (
	ActivityThinking  = "Thinking about your question..."
	ActivityAnalyzing = "Analyzing results..."
)

// InboundMessage is a request read from stdin.
type InboundMessage struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// ReadyMessage signals that the worker accepts messages.
type ReadyMessage struct {
	Type string `json:"type"`
}

// ActivityMessage is a progress notification for the client UI.
type ActivityMessage struct {
	Type        string `json:"type"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	MessageID   string `json:"message_id"`
}

// ResponseMessage is the terminal answer for a query. Exactly one is
// written per accepted message.
type ResponseMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	MessageID string `json:"message_id"`
	Done      bool   `json:"done"`
}

// ErrorMessage reports a failure; it is always followed by a terminal
// ResponseMessage for the same message ID.
type ErrorMessage struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	MessageID string `json:"message_id"`
}

func NewReadyMessage() ReadyMessage {
	return ReadyMessage{Type: MessageTypeReady}
}

func NewActivityMessage(tool, description, messageID string) ActivityMessage {
	return ActivityMessage{
		Type:        MessageTypeActivity,
		Tool:        tool,
		Description: description,
		MessageID:   messageID,
	}
}

func NewResponseMessage(content, messageID string) ResponseMessage {
	return ResponseMessage{
		Type:      MessageTypeResponse,
		Content:   content,
		MessageID: messageID,
		Done:      true,
	}
}

func NewErrorMessage(err, messageID string) ErrorMessage {
	return ErrorMessage{
		Type:      MessageTypeError,
		Error:     err,
		MessageID: messageID,
	}
}
