package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type StreamingEventType string

const (
	PingType              StreamingEventType = "ping"
	MessageStartType      StreamingEventType = "message_start"
	ContentBlockStartType StreamingEventType = "content_block_start"
	ContentBlockDeltaType StreamingEventType = "content_block_delta"
	ContentBlockStopType  StreamingEventType = "content_block_stop"
	MessageDeltaType      StreamingEventType = "message_delta"
	MessageStopType       StreamingEventType = "message_stop"
	ErrorType             StreamingEventType = "error"
)

type StreamingDeltaType string

const (
	TextDeltaType      StreamingDeltaType = "text_delta"
	InputJSONDeltaType StreamingDeltaType = "input_json_delta"
)

type StreamingEvent struct {
	Type         StreamingEventType `json:"type"`
	Message      *MessageResponse   `json:"message,omitempty"`
	Delta        *Delta             `json:"delta,omitempty"`
	Error        *Error             `json:"error,omitempty"`
	Index        int                `json:"index,omitempty"`
	Usage        *Usage             `json:"usage,omitempty"`
	ContentBlock *ContentBlock      `json:"content_block,omitempty"`
}

// ContentBlock is the in-flight state of a streamed content block. For
// tool_use blocks, Text accumulates the partial JSON of the input.
type ContentBlock struct {
	Type  ContentType `json:"type"`
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty"`
	Input interface{} `json:"input,omitempty"`
	Text  string      `json:"text,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Delta struct {
	Type         StreamingDeltaType `json:"type"`
	Text         string             `json:"text,omitempty"`
	PartialJSON  string             `json:"partial_json"`
	StopReason   string             `json:"stop_reason,omitempty"`
	StopSequence string             `json:"stop_sequence,omitempty"`
}

func (s StreamingEvent) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", string(s.Type))
	if s.Delta != nil {
		e.Str("delta_type", string(s.Delta.Type))
	}
	if s.Error != nil {
		e.Str("error", s.Error.Message)
	}
	if s.ContentBlock != nil {
		e.Str("content_block_type", string(s.ContentBlock.Type))
	}
	e.Int("index", s.Index)
}

var _ zerolog.LogObjectMarshaler = StreamingEvent{}

func streamEvents(ctx context.Context, resp *http.Response, events chan StreamingEvent) {
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	defer close(events)

	reader := bufio.NewReader(resp.Body)
	var eventLines [][]byte

	// emit parses and sends the accumulated event lines. It reports false
	// when the context was cancelled mid-send.
	emit := func() bool {
		if len(eventLines) == 0 {
			return true
		}
		var event StreamingEvent
		parseErr := parseSSEEvent(eventLines, &event)
		eventLines = eventLines[:0]
		if parseErr != nil {
			log.Debug().Err(parseErr).Msg("failed to parse SSE event")
			return true
		}
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) == 0 {
			// empty line terminates an SSE event
			if len(line) > 0 && !emit() {
				return
			}
		} else {
			eventLines = append(eventLines, line)
		}
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("streaming reader stopped")
			}
			// the last event may not be blank-line terminated
			emit()
			return
		}
	}
}

// parseSSEEvent parses an SSE event from multiple lines.
func parseSSEEvent(lines [][]byte, event *StreamingEvent) error {
	eventData := ""
	for _, line := range lines {
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		parts := bytes.SplitN(line, []byte(": "), 2)
		if len(parts) != 2 {
			continue
		}

		field, value := parts[0], parts[1]
		if string(field) == "data" {
			eventData += string(value) + "\n"
		}
	}

	eventData = strings.TrimSuffix(eventData, "\n")

	return json.Unmarshal([]byte(eventData), event)
}
