package protocol

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/deepdive/pkg/events"
)

// Emitter translates loop and engine events into wire messages and writes
// them to the output stream, one JSON object per line.
//
// It is registered as the single watermill handler on the event topic;
// combined with a publisher that blocks until the handler acks, this
// serializes all output and guarantees that events for a message are
// written in publish order.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer

	// per-message state, reset when the terminal response goes out
	startSeen map[string]bool
	toolSeen  map[string]bool
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:         w,
		startSeen: make(map[string]bool),
		toolSeen:  make(map[string]bool),
	}
}

// EmitReady writes the ready handshake.
func (e *Emitter) EmitReady() error {
	return e.write(NewReadyMessage())
}

// Handle consumes a single event message from the router.
func (e *Emitter) Handle(msg *message.Message) error {
	ev, err := events.NewEventFromJson(msg.Payload)
	if err != nil {
		log.Debug().Err(err).Str("payload", string(msg.Payload)).Msg("could not parse event, dropping")
		return nil
	}

	messageID := ev.Metadata().MessageID

	switch ev_ := ev.(type) {
	case *events.EventPartialCompletionStart:
		e.mu.Lock()
		seen := e.startSeen[messageID]
		e.startSeen[messageID] = true
		e.mu.Unlock()
		if seen {
			return nil
		}
		return e.write(NewActivityMessage(ActivityToolThinking, ActivityThinking, messageID))

	case *events.EventToolCallExecute:
		key := messageID + "/" + ev_.ToolCall.ID
		if ev_.ToolCall.ID == "" {
			key = messageID + "/" + ev_.ToolCall.Name
		}
		e.mu.Lock()
		seen := e.toolSeen[key]
		e.toolSeen[key] = true
		e.mu.Unlock()
		if seen {
			return nil
		}
		return e.write(NewActivityMessage(ActivityToolSearch, "Searching: "+queryFromInput(ev_.ToolCall.Input), messageID))

	case *events.EventInfo:
		return e.write(NewActivityMessage(ActivityToolThinking, ev_.Message, messageID))

	case *events.EventFinal:
		e.reset(messageID)
		return e.write(NewResponseMessage(ev_.Text, messageID))

	case *events.EventError:
		return e.write(NewErrorMessage(ev_.ErrorString, messageID))

	default:
		// partials, raw tool calls and tool results stay internal
		return nil
	}
}

func (e *Emitter) reset(messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.startSeen, messageID)
	for key := range e.toolSeen {
		if len(key) > len(messageID) && key[:len(messageID)+1] == messageID+"/" {
			delete(e.toolSeen, key)
		}
	}
}

func (e *Emitter) write(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "could not marshal wire message")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.w.Write(append(b, '\n'))
	return errors.Wrap(err, "could not write wire message")
}

// queryFromInput pulls the query string out of a search tool call's
// JSON input.
func queryFromInput(input string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return ""
	}
	return args.Query
}
