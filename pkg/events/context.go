package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

type eventSinksKey struct{}

// WithEventSinks attaches event sinks to the context. Engines and loops
// publish their progress events to every sink found on the context.
func WithEventSinks(ctx context.Context, sinks ...EventSink) context.Context {
	existing := GetEventSinks(ctx)
	combined := make([]EventSink, 0, len(existing)+len(sinks))
	combined = append(combined, existing...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, eventSinksKey{}, combined)
}

func GetEventSinks(ctx context.Context) []EventSink {
	sinks, ok := ctx.Value(eventSinksKey{}).([]EventSink)
	if !ok {
		return nil
	}
	return sinks
}

// PublishEventToContext publishes the event to all sinks on the context.
// Publish errors are logged, not returned; a broken sink must not abort
// an inference in flight.
func PublishEventToContext(ctx context.Context, event Event) {
	for _, sink := range GetEventSinks(ctx) {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish event to sink")
		}
	}
}
