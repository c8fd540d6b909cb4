package toolloop

// LoopConfig bounds the agentic loop.
type LoopConfig struct {
	// MaxIterations caps the number of inference rounds. When the cap is
	// hit, the loop returns the last assistant text instead of failing;
	// the model had its chance to wrap up.
	MaxIterations int
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations: 8,
	}
}
