package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"

	"github.com/go-go-golems/deepdive/pkg/helpers"
)

// WatermillSink publishes events to a watermill publisher topic.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

var _ EventSink = (*WatermillSink)(nil)

func (w *WatermillSink) PublishEvent(event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "could not marshal event")
	}

	msg := message.NewMessage(event.Metadata().ID.String(), b)
	if messageID := event.Metadata().MessageID; messageID != "" {
		msg.SetContext(helpers.ContextWithCorrelationID(context.Background(), messageID))
	}
	return w.publisher.Publish(w.topic, msg)
}
