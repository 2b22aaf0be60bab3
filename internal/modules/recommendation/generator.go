package recommendation

import (
	"context"
	"fmt"
)

// Generator produces the raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// UpstreamError wraps any failure of the model provider. It is never retried.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e == nil || e.Err == nil {
		return "upstream generation failed"
	}
	return fmt.Sprintf("upstream generation failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
