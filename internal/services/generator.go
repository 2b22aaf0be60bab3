package services

import (
	"context"
	"time"

	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/observability"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

type instrumentedGenerator struct {
	next     recommendation.Generator
	log      *logger.Logger
	metrics  *observability.Metrics
	provider string
	model    string
}

// InstrumentGenerator logs and measures every model call made through next.
func InstrumentGenerator(next recommendation.Generator, log *logger.Logger, metrics *observability.Metrics, provider, model string) recommendation.Generator {
	return &instrumentedGenerator{
		next:     next,
		log:      log.With("service", "Generator", "provider", provider, "model", model),
		metrics:  metrics,
		provider: provider,
		model:    model,
	}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := g.next.Generate(ctx, prompt)
	dur := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		g.log.Warn("Model call failed", "duration_ms", dur.Milliseconds(), "error", err)
	} else {
		g.log.Debug("Model call finished", "duration_ms", dur.Milliseconds(), "prompt_chars", len(prompt), "response_chars", len(out))
	}
	g.metrics.ObserveLLMRequest(g.provider, g.model, status, dur)
	return out, err
}
