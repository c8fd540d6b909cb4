package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/go-go-golems/deepdive/pkg/events"
)

// directSink hands events straight to the emitter, standing in for the
// router in unit tests.
type directSink struct {
	emitter *Emitter
}

func (s *directSink) PublishEvent(e events.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.emitter.Handle(message.NewMessage(uuid.NewString(), b))
}

type fakeResearcher struct {
	answer string
	err    error
	panics bool
	calls  int
}

func (r *fakeResearcher) Research(ctx context.Context, query string, messageID string) (string, error) {
	r.calls++
	if r.panics {
		panic("researcher exploded")
	}
	if r.err != nil {
		return "", r.err
	}
	meta := events.EventMetadata{ID: uuid.New(), MessageID: messageID}
	events.PublishEventToContext(ctx, events.NewStartEvent(meta))
	return r.answer + " for " + query, nil
}

func runSession(t *testing.T, researcher Researcher, input string) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	emitter := NewEmitter(&buf)
	handler := NewHandler(researcher, strings.NewReader(input), emitter, &directSink{emitter: emitter})

	if err := handler.Serve(context.Background()); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if handler.State() != StateStopped {
		t.Fatalf("expected stopped state, got %v", handler.State())
	}
	return wireLines(t, &buf)
}

func TestHandler_HappyPath(t *testing.T) {
	lines := runSession(t, &fakeResearcher{answer: "briefing"},
		`{"type":"message","message_id":"m-1","content":"what is go?"}`+"\n"+
			`{"type":"shutdown"}`+"\n")

	if lines[0]["type"] != MessageTypeReady {
		t.Fatalf("expected ready first, got %v", lines[0])
	}

	var responses []map[string]any
	for _, l := range lines {
		if l["type"] == MessageTypeResponse {
			responses = append(responses, l)
		}
	}
	if len(responses) != 1 {
		t.Fatalf("expected exactly one terminal response, got %d: %v", len(responses), lines)
	}
	resp := responses[0]
	if resp["content"] != "briefing for what is go?" || resp["message_id"] != "m-1" || resp["done"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestHandler_SkipsMalformedAndUnknownLines(t *testing.T) {
	researcher := &fakeResearcher{answer: "briefing"}
	lines := runSession(t, researcher,
		"\n"+
			"this is not json\n"+
			`{"type":"wibble"}`+"\n"+
			`{"type":"message","message_id":"m-1","content":"q"}`+"\n"+
			`{"type":"shutdown"}`+"\n")

	if researcher.calls != 1 {
		t.Fatalf("expected exactly one research call, got %d", researcher.calls)
	}
	// ready, thinking activity, response
	if len(lines) != 3 {
		t.Fatalf("expected 3 wire messages, got %d: %v", len(lines), lines)
	}
}

func TestHandler_StopsAtShutdown(t *testing.T) {
	researcher := &fakeResearcher{answer: "briefing"}
	runSession(t, researcher,
		`{"type":"shutdown"}`+"\n"+
			`{"type":"message","message_id":"m-1","content":"ignored"}`+"\n")

	if researcher.calls != 0 {
		t.Fatalf("expected no research after shutdown, got %d calls", researcher.calls)
	}
}

func TestHandler_EOFWithoutShutdown(t *testing.T) {
	lines := runSession(t, &fakeResearcher{answer: "briefing"},
		`{"type":"message","message_id":"m-1","content":"q"}`+"\n")

	last := lines[len(lines)-1]
	if last["type"] != MessageTypeResponse {
		t.Fatalf("expected response before EOF exit, got %v", last)
	}
}

func TestHandler_MissingFieldsFailOnlyThatMessage(t *testing.T) {
	researcher := &fakeResearcher{answer: "briefing"}
	lines := runSession(t, researcher,
		`{"type":"message","message_id":"m-1"}`+"\n"+
			`{"type":"message","message_id":"m-2","content":"q"}`+"\n"+
			`{"type":"shutdown"}`+"\n")

	if researcher.calls != 1 {
		t.Fatalf("expected only the complete message to run, got %d calls", researcher.calls)
	}

	var sawError bool
	var responses []map[string]any
	for _, l := range lines {
		switch l["type"] {
		case MessageTypeError:
			sawError = true
		case MessageTypeResponse:
			responses = append(responses, l)
		}
	}
	if !sawError {
		t.Fatalf("expected error for incomplete message, got %v", lines)
	}
	// fallback response for m-1, real response for m-2
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d: %v", len(responses), lines)
	}
	if responses[0]["message_id"] != "m-1" || responses[1]["message_id"] != "m-2" {
		t.Fatalf("unexpected response ordering: %v", responses)
	}
}

func TestHandler_ResearchErrorGetsFallbackResponse(t *testing.T) {
	lines := runSession(t, &fakeResearcher{err: errors.New("boom")},
		`{"type":"message","message_id":"m-1","content":"q"}`+"\n"+
			`{"type":"shutdown"}`+"\n")

	var errorLine, responseLine map[string]any
	for _, l := range lines {
		switch l["type"] {
		case MessageTypeError:
			errorLine = l
		case MessageTypeResponse:
			responseLine = l
		}
	}
	if errorLine == nil || errorLine["error"] != "boom" {
		t.Fatalf("expected error message, got %v", lines)
	}
	if responseLine == nil || responseLine["content"] != "Something went wrong: boom" || responseLine["done"] != true {
		t.Fatalf("expected fallback terminal response, got %v", lines)
	}
}

func TestHandler_PanicGetsFallbackResponse(t *testing.T) {
	lines := runSession(t, &fakeResearcher{panics: true},
		`{"type":"message","message_id":"m-1","content":"q"}`+"\n"+
			`{"type":"shutdown"}`+"\n")

	var responseLine map[string]any
	for _, l := range lines {
		if l["type"] == MessageTypeResponse {
			responseLine = l
		}
	}
	if responseLine == nil || responseLine["message_id"] != "m-1" {
		t.Fatalf("expected terminal response despite panic, got %v", lines)
	}
	if !strings.HasPrefix(responseLine["content"].(string), "Something went wrong: ") {
		t.Fatalf("expected fallback content, got %v", responseLine["content"])
	}
}
