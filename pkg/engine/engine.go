package engine

import (
	"context"

	"github.com/go-go-golems/deepdive/pkg/turns"
)

// Engine represents an AI inference engine that can process a Turn and
// return it extended with the model's response blocks. Engines handle
// provider-specific logic; events are published through all registered
// EventSinks during inference.
type Engine interface {
	RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error)
}
