package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	recrepo "github.com/yungbote/collegeprep-backend/internal/data/repos/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/data/repos/testutil"
	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/platform/runlock"
	"github.com/yungbote/collegeprep-backend/internal/realtime"
)

type captureSink struct {
	mu     sync.Mutex
	events []recommendation.Event
	closed bool
}

func (s *captureSink) Send(ev recommendation.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type captureEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *captureEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, msg)
}

func modelResponse(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(`{"college_name":"College %d","fit_category":"target","match_score":0.8}`, i))
	}
	return "```json\n[" + strings.Join(parts, ",") + "]\n```"
}

func newTestService(t *testing.T, gen recommendation.Generator, emit SSEEmitter) (RecommendationService, recrepo.RecommendationRepo) {
	t.Helper()
	log := testutil.Logger(t)
	repo := recrepo.NewRecommendationRepo(testutil.DB(t), log)
	pipe := recommendation.NewPipeline(gen, repo, recommendation.Config{BatchSize: 5}, log)
	return NewRecommendationService(log, repo, pipe, runlock.NewMemory(), emit, RecommendationServiceConfig{}), repo
}

func TestRecommendationServiceGenerateAndList(t *testing.T) {
	emit := &captureEmitter{}
	gen := recommendation.GeneratorFunc(func(context.Context, string) (string, error) {
		return modelResponse(7), nil
	})
	svc, _ := newTestService(t, gen, emit)
	ctx := context.Background()
	studentID := uuid.New()

	run, err := svc.Begin(ctx, studentID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	sink := &captureSink{}
	res, err := run.Execute(ctx, recommendation.Profile{"gradeLevel": "12th Grade"}, sink)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Inserted != 7 {
		t.Fatalf("inserted: want=7 got=%d", res.Inserted)
	}
	if !sink.closed {
		t.Fatalf("sink should be closed after Execute")
	}

	recs, err := svc.List(ctx, studentID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 7 {
		t.Fatalf("listed: want=7 got=%d", len(recs))
	}

	if len(emit.msgs) != len(sink.events) {
		t.Fatalf("mirrored %d messages for %d events", len(emit.msgs), len(sink.events))
	}
	last := emit.msgs[len(emit.msgs)-1]
	if last.Event != realtime.SSEEventRecommendationDone || last.Channel != studentID.String() {
		t.Fatalf("unexpected final mirrored message: %+v", last)
	}
}

func TestRecommendationServiceSingleFlight(t *testing.T) {
	gen := recommendation.GeneratorFunc(func(context.Context, string) (string, error) {
		return modelResponse(1), nil
	})
	svc, _ := newTestService(t, gen, nil)
	ctx := context.Background()
	studentID := uuid.New()

	run, err := svc.Begin(ctx, studentID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Begin(ctx, studentID); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("second Begin: want ErrGenerationInProgress got %v", err)
	}
	if other, err := svc.Begin(ctx, uuid.New()); err != nil {
		t.Fatalf("other student should not be blocked: %v", err)
	} else {
		other.Abandon()
	}

	if _, err := run.Execute(ctx, recommendation.Profile{}, &captureSink{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	again, err := svc.Begin(ctx, studentID)
	if err != nil {
		t.Fatalf("Begin after release: %v", err)
	}
	again.Abandon()
	again.Abandon()
}

func TestRecommendationServiceIgnoresCallerCancel(t *testing.T) {
	gen := recommendation.GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return modelResponse(3), nil
	})
	svc, _ := newTestService(t, gen, nil)
	studentID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	run, err := svc.Begin(ctx, studentID)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cancel()
	res, err := run.Execute(ctx, recommendation.Profile{}, &captureSink{})
	if err != nil {
		t.Fatalf("Execute after cancel: %v", err)
	}
	if res.Inserted != 3 {
		t.Fatalf("inserted: want=3 got=%d", res.Inserted)
	}
}
