package events

// EventSink receives events from an inference engine or loop as they occur.
type EventSink interface {
	// PublishEvent sends an event to the sink
	PublishEvent(event Event) error
}
