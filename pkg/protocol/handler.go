package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/deepdive/pkg/events"
)

// Researcher runs a single research query and returns the final answer.
type Researcher interface {
	Research(ctx context.Context, query string, messageID string) (string, error)
}

type State int32

const (
	StateStarting State = iota
	StateServing
	StateStopped
)

const maxLineSize = 10 * 1024 * 1024

// Handler drives the stdin session: it reads one request per line,
// runs the research loop, and publishes the terminal event for each
// message. All output flows through the event sink so the emitter can
// serialize it.
type Handler struct {
	loop    Researcher
	in      io.Reader
	emitter *Emitter
	sink    events.EventSink

	state atomic.Int32
}

func NewHandler(loop Researcher, in io.Reader, emitter *Emitter, sink events.EventSink) *Handler {
	return &Handler{
		loop:    loop,
		in:      in,
		emitter: emitter,
		sink:    sink,
	}
}

func (h *Handler) State() State {
	return State(h.state.Load())
}

// Serve writes the ready handshake and processes requests until shutdown
// is received or the input stream ends. Malformed lines are skipped.
// Every accepted message gets exactly one terminal response.
func (h *Handler) Serve(ctx context.Context) error {
	defer h.state.Store(int32(StateStopped))

	if err := h.emitter.EmitReady(); err != nil {
		return errors.Wrap(err, "could not write ready message")
	}
	h.state.Store(int32(StateServing))
	log.Info().Msg("Deep Dive ready")

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg InboundMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Debug().Err(err).Str("line", line).Msg("skipping malformed line")
			continue
		}

		switch msg.Type {
		case MessageTypeShutdown:
			log.Info().Msg("Shutting down")
			return nil

		case MessageTypeMessage:
			h.handleMessage(ctx, msg.MessageID, msg.Content)

		default:
			log.Debug().Str("type", msg.Type).Msg("skipping message with unknown type")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "could not read input")
	}
	return nil
}

// handleMessage runs one research query. It never lets a failure escape:
// errors and panics both end in an error event followed by a terminal
// fallback response.
func (h *Handler) handleMessage(ctx context.Context, messageID string, content string) {
	metadata := events.EventMetadata{
		ID:        uuid.New(),
		MessageID: messageID,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("message_id", messageID).Msg("research panicked")
			h.fail(metadata, fmt.Errorf("%v", r))
		}
	}()

	if messageID == "" || content == "" {
		h.fail(metadata, errors.New("message requires message_id and content"))
		return
	}

	runCtx := events.WithEventSinks(ctx, h.sink)

	result, err := h.loop.Research(runCtx, content, messageID)
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("research failed")
		h.fail(metadata, err)
		return
	}

	h.publish(events.NewFinalEvent(metadata, result))
}

func (h *Handler) fail(metadata events.EventMetadata, err error) {
	h.publish(events.NewErrorEvent(metadata, err))
	h.publish(events.NewFinalEvent(metadata, fmt.Sprintf("Something went wrong: %s", err)))
}

func (h *Handler) publish(event events.Event) {
	if err := h.sink.PublishEvent(event); err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish event")
	}
}
