package toolloop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/deepdive/pkg/engine"
	"github.com/go-go-golems/deepdive/pkg/events"
	"github.com/go-go-golems/deepdive/pkg/inference/toolblocks"
	"github.com/go-go-golems/deepdive/pkg/tools"
	"github.com/go-go-golems/deepdive/pkg/turns"
	"github.com/go-go-golems/deepdive/pkg/turns/serde"
)

// Loop runs the agentic research workflow: the model decides between
// calling tools and answering, and the loop executes pending tool calls
// until the model stops asking or the iteration cap is hit.
type Loop struct {
	eng      engine.Engine
	registry tools.ToolRegistry
	loopCfg  LoopConfig
	now      func() time.Time
}

type Option func(*Loop)

func New(opts ...Option) *Loop {
	l := &Loop{
		loopCfg: DefaultLoopConfig(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func WithEngine(eng engine.Engine) Option {
	return func(l *Loop) { l.eng = eng }
}

func WithRegistry(reg tools.ToolRegistry) Option {
	return func(l *Loop) { l.registry = reg }
}

func WithLoopConfig(cfg LoopConfig) Option {
	return func(l *Loop) { l.loopCfg = cfg }
}

// WithClock overrides the time source used for the system prompt.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// Research runs the full workflow for a single query and returns the
// model's final answer text.
func (l *Loop) Research(ctx context.Context, query string, messageID string) (string, error) {
	t := &turns.Turn{
		ID: uuid.NewString(),
		Metadata: map[string]any{
			turns.MetadataKeyMessageID: messageID,
		},
	}
	turns.AppendBlocks(t,
		turns.NewSystemTextBlock(SystemPrompt(l.now())),
		turns.NewUserTextBlock(query),
	)

	metadata := events.EventMetadata{
		ID:        uuid.New(),
		MessageID: messageID,
		TurnID:    t.ID,
	}
	events.PublishEventToContext(ctx, events.NewStartEvent(metadata))

	updated, err := l.RunLoop(ctx, t)
	if err != nil {
		return "", err
	}

	if e := log.Trace(); e.Enabled() {
		if dump, err := serde.ToYAML(updated); err == nil {
			e.Str("message_id", messageID).Str("turn", string(dump)).Msg("research turn complete")
		}
	}

	return turns.LastAssistantText(updated), nil
}

// RunLoop iterates inference and tool execution until no pending tool
// calls remain or the iteration cap is hit. Hitting the cap is not an
// error; the Turn as of the last round is returned.
func (l *Loop) RunLoop(ctx context.Context, initialTurn *turns.Turn) (*turns.Turn, error) {
	if l == nil {
		return nil, errors.New("tool loop is nil")
	}
	if l.eng == nil {
		return nil, errors.New("tool loop engine is nil")
	}
	if l.registry == nil {
		return nil, errors.New("tool loop registry is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := initialTurn
	if t == nil {
		t = &turns.Turn{ID: uuid.NewString()}
	}

	ctx = tools.WithRegistry(ctx, l.registry)

	maxIterations := l.loopCfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultLoopConfig().MaxIterations
	}

	metadata := events.EventMetadata{
		ID:     uuid.New(),
		TurnID: t.ID,
	}
	if messageID, ok := t.Metadata[turns.MetadataKeyMessageID].(string); ok {
		metadata.MessageID = messageID
	}

	// tool calls we already announced, keyed by call ID
	announced := map[string]bool{}

	for i := 0; i < maxIterations; i++ {
		log.Debug().Int("iteration", i+1).Int("max_iterations", maxIterations).Msg("toolloop: engine inference step")

		updated, err := l.eng.RunInference(ctx, t)
		if err != nil {
			return nil, err
		}

		calls := toolblocks.ExtractPendingToolCalls(updated)
		if len(calls) == 0 {
			return updated, nil
		}

		var results []toolblocks.ToolResult
		for _, call := range calls {
			key := call.ID
			if key == "" {
				key = call.Name
			}
			if !announced[key] {
				announced[key] = true
				argBytes, _ := json.Marshal(call.Arguments)
				events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(metadata, events.ToolCall{
					ID:    call.ID,
					Name:  call.Name,
					Input: string(argBytes),
				}))
			}

			result, err := l.executeTool(ctx, call)
			if err != nil {
				return nil, err
			}
			results = append(results, toolblocks.ToolResult{ID: call.ID, Content: result})
			events.PublishEventToContext(ctx, events.NewToolResultEvent(metadata, events.ToolResult{
				ID:     call.ID,
				Result: result,
			}))
		}
		toolblocks.AppendToolResultsBlocks(updated, results)

		events.PublishEventToContext(ctx, events.NewInfoEvent(metadata, "Analyzing results...", nil))

		t = updated
	}

	log.Warn().Int("max_iterations", maxIterations).Msg("toolloop: maximum iterations reached, using last response")
	return t, nil
}

// executeTool runs a single tool call. An unknown tool name is fatal to
// the run; tool execution failures are folded into the result text so
// the model can react to them.
func (l *Loop) executeTool(ctx context.Context, call toolblocks.ToolCall) (string, error) {
	def, err := l.registry.GetTool(call.Name)
	if err != nil {
		return "", errors.Wrapf(err, "model requested unknown tool %s", call.Name)
	}

	argBytes, err := json.Marshal(call.Arguments)
	if err != nil {
		return "", errors.Wrap(err, "could not marshal tool arguments")
	}

	result, err := def.Function.ExecuteWithContext(ctx, argBytes)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("tool execution failed")
		return fmt.Sprintf("Error: %s", err), nil
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), nil
		}
		return string(b), nil
	}
}
