package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

const (
	msgStarting       = "Generating your personalized college recommendations..."
	msgUpstreamFailed = "Failed to generate recommendations"
	msgParseFailed    = "Failed to parse AI response"
	msgPersistFailed  = "Failed to save recommendations"
	msgInternalFailed = "Something went wrong while generating recommendations"
)

type Config struct {
	BatchSize   int
	TargetCount int
}

// Result summarizes a finished run.
type Result struct {
	RunID      uuid.UUID
	Candidates int
	Rejected   int
	Inserted   int
}

// Pipeline turns a student profile into persisted recommendations while
// reporting progress on a Session.
type Pipeline struct {
	gen    Generator
	writer *BatchWriter
	cfg    Config
	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewPipeline(gen Generator, store Store, cfg Config, log *logger.Logger) *Pipeline {
	if cfg.TargetCount <= 0 {
		cfg.TargetCount = DefaultTargetCount
	}
	pipeLog := log.With("service", "RecommendationPipeline")
	return &Pipeline{
		gen:    gen,
		writer: NewBatchWriter(store, cfg.BatchSize, log),
		cfg:    cfg,
		log:    pipeLog,
		tracer: otel.Tracer("collegeprep/recommendation"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one generation for studentID. Whatever happens, the sink
// receives exactly one terminal event and is closed before Run returns.
func (p *Pipeline) Run(ctx context.Context, studentID uuid.UUID, profile Profile, sink EventSink, observers ...func(Event)) (res Result, err error) {
	res.RunID = uuid.New()
	log := p.log.With("run_id", res.RunID.String(), "student_id", studentID)

	ctx, span := p.tracer.Start(ctx, "recommendation.run", trace.WithAttributes(
		attribute.String("run.id", res.RunID.String()),
	))
	defer span.End()

	sess := NewSession(sink, log)
	if len(observers) > 0 {
		sess.Observe(func(ev Event) {
			for _, fn := range observers {
				fn(ev)
			}
		})
	}
	defer sess.Close()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recommendation run panicked: %v", r)
			log.Error("Recommendation run panicked", "panic", r)
			sess.Fail(msgInternalFailed)
		}
	}()

	start := time.Now()
	sess.Status(msgStarting)

	res, err = p.run(ctx, sess, studentID, profile, res)
	span.SetAttributes(
		attribute.Int("run.candidates", res.Candidates),
		attribute.Int("run.rejected", res.Rejected),
		attribute.Int("run.inserted", res.Inserted),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("Recommendation run failed",
			"state", sess.State().String(),
			"inserted", res.Inserted,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		sess.Fail(UserMessage(err))
		return res, err
	}

	log.Info("Recommendation run completed",
		"candidates", res.Candidates,
		"rejected", res.Rejected,
		"inserted", res.Inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	sess.Complete(res.Inserted, fmt.Sprintf("Successfully generated %d recommendations!", res.Inserted))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, sess *Session, studentID uuid.UUID, profile Profile, res Result) (Result, error) {
	if err := sess.Advance(StateClearing); err != nil {
		return res, err
	}
	if err := p.step(ctx, "recommendation.clear", func(ctx context.Context) error {
		return p.writer.Clear(ctx, studentID)
	}); err != nil {
		return res, err
	}

	if err := sess.Advance(StateGenerating); err != nil {
		return res, err
	}
	prompt := BuildPrompt(profile.Summary(), p.cfg.TargetCount)
	var text string
	if err := p.step(ctx, "recommendation.generate", func(ctx context.Context) error {
		out, genErr := p.gen.Generate(ctx, prompt)
		if genErr != nil {
			return &UpstreamError{Err: genErr}
		}
		text = out
		return nil
	}); err != nil {
		return res, err
	}

	if err := sess.Advance(StateParsing); err != nil {
		return res, err
	}
	raws, err := ExtractCandidates(text)
	if err != nil {
		p.log.Debug("Unparseable model response", "length", len(text), "head", head(text, 200))
		return res, err
	}
	res.Candidates = len(raws)

	if err := sess.Advance(StateValidating); err != nil {
		return res, err
	}
	recs, failures := ValidateAll(studentID, raws, p.now())
	res.Rejected = len(failures)
	for _, f := range failures {
		p.log.Debug("Dropped recommendation candidate", "index", f.Index, "reason", string(f.Reason))
	}
	sess.Status(fmt.Sprintf("Saving %d recommendations...", len(recs)))

	if err := sess.Advance(StatePersisting); err != nil {
		return res, err
	}
	err = p.step(ctx, "recommendation.persist", func(ctx context.Context) error {
		n, insErr := p.writer.Insert(ctx, recs, func(current, total int) {
			sess.Progress(current, total, fmt.Sprintf("Saved %d of %d recommendations", current, total))
		})
		res.Inserted = n
		return insErr
	})
	return res, err
}

func (p *Pipeline) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// UserMessage maps a run error onto the message shown to the student.
func UserMessage(err error) string {
	var upstream *UpstreamError
	var persist *PersistenceError
	switch {
	case errors.Is(err, ErrUnparseableResponse):
		return msgParseFailed
	case errors.As(err, &upstream):
		return msgUpstreamFailed
	case errors.As(err, &persist):
		return msgPersistFailed
	default:
		return msgInternalFailed
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
