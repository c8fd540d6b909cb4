package claude

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/go-go-golems/deepdive/pkg/events"
)

// ContentBlockMerger reconstructs a full message from the streaming
// response of the Messages API. It processes streaming events in order,
// accumulating text and tool use blocks keyed by their stream index, and
// translates them into progress events for the caller to publish.
//
// It never produces a final event; signalling completion of the overall
// research run belongs to the session layer, not to a single inference.
type ContentBlockMerger struct {
	metadata      events.EventMetadata
	response      *MessageResponse
	apiError      *Error
	contentBlocks map[int]*ContentBlock
	completion    string
}

func NewContentBlockMerger(metadata events.EventMetadata) *ContentBlockMerger {
	return &ContentBlockMerger{
		metadata:      metadata,
		contentBlocks: make(map[int]*ContentBlock),
	}
}

// Text returns the text accumulated so far.
func (cbm *ContentBlockMerger) Text() string {
	return cbm.completion
}

func (cbm *ContentBlockMerger) Response() *MessageResponse {
	return cbm.response
}

func (cbm *ContentBlockMerger) Error() *Error {
	return cbm.apiError
}

func (cbm *ContentBlockMerger) Add(event StreamingEvent) ([]events.Event, error) {
	switch event.Type {
	case PingType:
		return nil, nil

	case MessageStartType:
		if event.Message == nil {
			return nil, errors.New("message_start event must have a message")
		}
		cbm.response = event.Message
		return []events.Event{events.NewStartEvent(cbm.metadata)}, nil

	case ContentBlockStartType:
		if cbm.response == nil {
			return nil, errors.New("content_block_start before message_start")
		}
		if event.ContentBlock == nil {
			return nil, errors.New("content_block_start event must have a content block")
		}
		if _, exists := cbm.contentBlocks[event.Index]; exists {
			return nil, errors.Errorf("content block with index %d already started", event.Index)
		}
		cbm.contentBlocks[event.Index] = event.ContentBlock
		return nil, nil

	case ContentBlockDeltaType:
		if event.Delta == nil {
			return nil, errors.New("content_block_delta event must have a delta")
		}
		cb, exists := cbm.contentBlocks[event.Index]
		if !exists {
			return nil, errors.Errorf("content block with index %d was never started", event.Index)
		}
		switch event.Delta.Type {
		case TextDeltaType:
			cb.Text += event.Delta.Text
			cbm.completion += event.Delta.Text
			return []events.Event{
				events.NewPartialCompletionEvent(cbm.metadata, event.Delta.Text, cbm.completion),
			}, nil
		case InputJSONDeltaType:
			// tool input arrives as partial JSON fragments
			cb.Text += event.Delta.PartialJSON
			return nil, nil
		}
		return nil, nil

	case ContentBlockStopType:
		if cbm.response == nil {
			return nil, errors.New("content_block_stop before message_start")
		}
		cb, exists := cbm.contentBlocks[event.Index]
		if !exists {
			return nil, errors.Errorf("content block with index %d was never started", event.Index)
		}
		switch cb.Type {
		case ContentTypeText:
			cbm.response.Content = append(cbm.response.Content, NewTextContent(cb.Text))
			return nil, nil

		case ContentTypeToolUse:
			input := cb.Text
			if input == "" {
				input = "{}"
			}
			cbm.response.Content = append(cbm.response.Content, NewToolUseContent(cb.ID, cb.Name, json.RawMessage(input)))
			return []events.Event{
				events.NewToolCallEvent(cbm.metadata, events.ToolCall{
					ID:    cb.ID,
					Name:  cb.Name,
					Input: input,
				}),
			}, nil

		default:
			return nil, errors.Errorf("unknown content block type: %s", cb.Type)
		}

	case MessageDeltaType:
		if event.Delta == nil {
			return nil, errors.New("message_delta event must have a delta")
		}
		if cbm.response != nil {
			if event.Delta.StopReason != "" {
				cbm.response.StopReason = event.Delta.StopReason
			}
			if event.Delta.StopSequence != "" {
				cbm.response.StopSequence = event.Delta.StopSequence
			}
			if event.Usage != nil {
				cbm.response.Usage = *event.Usage
			}
		}
		return nil, nil

	case MessageStopType:
		if cbm.response == nil {
			return nil, errors.New("message_stop before message_start")
		}
		return nil, nil

	case ErrorType:
		if event.Error == nil {
			return nil, errors.New("error event must have an error")
		}
		cbm.apiError = event.Error
		return nil, errors.New(event.Error.Message)

	default:
		return nil, errors.Errorf("unknown streaming event type: %s", event.Type)
	}
}
