package engine

import "github.com/go-go-golems/deepdive/pkg/events"

// Config holds engine configuration shared across providers.
type Config struct {
	EventSinks []events.EventSink
}

func NewConfig() *Config {
	return &Config{}
}

type Option func(*Config) error

// WithSink adds an event sink the engine publishes progress events to.
func WithSink(sink events.EventSink) Option {
	return func(c *Config) error {
		c.EventSinks = append(c.EventSinks, sink)
		return nil
	}
}

func ApplyOptions(c *Config, options ...Option) error {
	for _, o := range options {
		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}
