package claude

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/deepdive/pkg/engine"
	"github.com/go-go-golems/deepdive/pkg/events"
	"github.com/go-go-golems/deepdive/pkg/tools"
	"github.com/go-go-golems/deepdive/pkg/turns"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 4096
)

// Config holds the provider settings for the Claude engine.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	APIVersion  string
	Temperature *float64
	Stream      bool
}

func (c *Config) setDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = defaultAPIVersion
	}
}

// ClaudeEngine implements the Engine interface for the Anthropic Messages
// API. Responses are always streamed; the ContentBlockMerger reassembles
// the full message while progress events flow to the registered sinks.
type ClaudeEngine struct {
	config       Config
	engineConfig *engine.Config
	client       *Client
}

func NewClaudeEngine(cfg Config, options ...engine.Option) (*ClaudeEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("no API key configured")
	}
	cfg.setDefaults()

	engineConfig := engine.NewConfig()
	if err := engine.ApplyOptions(engineConfig, options...); err != nil {
		return nil, err
	}

	return &ClaudeEngine{
		config:       cfg,
		engineConfig: engineConfig,
		client:       NewClient(cfg.APIKey, cfg.BaseURL, cfg.APIVersion),
	}, nil
}

var _ engine.Engine = (*ClaudeEngine)(nil)

// RunInference sends the Turn to the model and returns it extended with
// the response blocks (llm_text and tool_call).
func (e *ClaudeEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	log.Debug().Int("num_blocks", len(t.Blocks)).Str("model", e.config.Model).Msg("Claude RunInference started")

	req, err := MakeMessageRequestFromTurn(e.config, t)
	if err != nil {
		return nil, err
	}
	req.Stream = true

	if reg, ok := tools.RegistryFrom(ctx); ok {
		claudeTools, err := toolsForRequest(reg)
		if err != nil {
			return nil, err
		}
		req.Tools = claudeTools
		log.Debug().Int("tool_count", len(claudeTools)).Msg("tools added to Claude request")
	}

	metadata := events.EventMetadata{
		ID:     uuid.New(),
		TurnID: t.ID,
	}
	if messageID, ok := t.Metadata[turns.MetadataKeyMessageID].(string); ok {
		metadata.MessageID = messageID
	}

	eventCh, err := e.client.StreamMessage(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Claude streaming request failed")
		e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
		return nil, err
	}

	completionMerger := NewContentBlockMerger(metadata)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Claude streaming cancelled by context")
			e.publishEvent(ctx, events.NewInterruptEvent(metadata, completionMerger.Text()))
			return nil, ctx.Err()

		case event, ok := <-eventCh:
			if !ok {
				goto streamingComplete
			}

			log.Trace().Object("event", event).Msg("Claude processing streaming event")

			events_, err := completionMerger.Add(event)
			if err != nil {
				log.Error().Err(err).Msg("Claude stream merging failed")
				e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
				return nil, err
			}
			for _, event_ := range events_ {
				e.publishEvent(ctx, event_)
			}
		}
	}

streamingComplete:

	response := completionMerger.Response()
	if response == nil {
		err := errors.New("no response")
		e.publishEvent(ctx, events.NewErrorEvent(metadata, err))
		return nil, err
	}

	log.Debug().
		Str("stop_reason", response.StopReason).
		Int("input_tokens", response.Usage.InputTokens).
		Int("output_tokens", response.Usage.OutputTokens).
		Msg("Claude RunInference completed")

	// text -> llm_text, tool_use -> tool_call
	for _, c := range response.Content {
		switch c.Type {
		case ContentTypeText:
			if c.Text != "" {
				turns.AppendBlock(t, turns.NewAssistantTextBlock(c.Text))
			}
		case ContentTypeToolUse:
			var args any
			_ = json.Unmarshal(c.Input, &args)
			turns.AppendBlock(t, turns.NewToolCallBlock(c.ID, c.Name, args))
		}
	}

	return t, nil
}

func toolsForRequest(reg tools.ToolRegistry) ([]Tool, error) {
	var claudeTools []Tool
	for _, tool := range reg.ListTools() {
		schema, err := json.Marshal(tool.Parameters)
		if err != nil {
			return nil, errors.Wrapf(err, "could not marshal schema for tool %s", tool.Name)
		}
		claudeTools = append(claudeTools, Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return claudeTools, nil
}

// publishEvent publishes an event to all configured sinks and any sinks
// carried in context.
func (e *ClaudeEngine) publishEvent(ctx context.Context, event events.Event) {
	for _, sink := range e.engineConfig.EventSinks {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to publish event to sink")
		}
	}
	events.PublishEventToContext(ctx, event)
}
