package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/collegeprep-backend/internal/domain"
	recrepo "github.com/yungbote/collegeprep-backend/internal/data/repos/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/observability"
	"github.com/yungbote/collegeprep-backend/internal/platform/apierr"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/platform/runlock"
	"github.com/yungbote/collegeprep-backend/internal/realtime"
)

var ErrGenerationInProgress = errors.New("a recommendation generation is already running for this student")

const releaseTimeout = 5 * time.Second

type RecommendationService interface {
	// Begin claims the student's generation slot. The returned run must be
	// executed or abandoned.
	Begin(ctx context.Context, studentID uuid.UUID) (*GenerationRun, error)
	List(ctx context.Context, studentID uuid.UUID) ([]*types.Recommendation, error)
}

type RecommendationServiceConfig struct {
	// LockTTL bounds how long a crashed run can block the student.
	LockTTL time.Duration
	Metrics *observability.Metrics
}

type recommendationService struct {
	log      *logger.Logger
	repo     recrepo.RecommendationRepo
	pipeline *recommendation.Pipeline
	locker   runlock.Locker
	emit     SSEEmitter
	lockTTL  time.Duration
	metrics  *observability.Metrics
}

func NewRecommendationService(
	log *logger.Logger,
	repo recrepo.RecommendationRepo,
	pipeline *recommendation.Pipeline,
	locker runlock.Locker,
	emit SSEEmitter,
	cfg RecommendationServiceConfig,
) RecommendationService {
	if locker == nil {
		locker = runlock.Noop()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &recommendationService{
		log:      log.With("service", "RecommendationService"),
		repo:     repo,
		pipeline: pipeline,
		locker:   locker,
		emit:     emit,
		lockTTL:  ttl,
		metrics:  cfg.Metrics,
	}
}

func lockKey(studentID uuid.UUID) string { return "recommendation:generate:" + studentID.String() }

func (s *recommendationService) Begin(ctx context.Context, studentID uuid.UUID) (*GenerationRun, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("student id required")
	}
	release, err := s.locker.TryAcquire(ctx, lockKey(studentID), s.lockTTL)
	if errors.Is(err, runlock.ErrHeld) {
		s.log.Info("Rejected concurrent recommendation generation", "student_id", studentID)
		s.metrics.IncRunRejected()
		return nil, apierr.New(http.StatusConflict, apierr.CodeGenerationInProgress, ErrGenerationInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("claim generation slot: %w", err)
	}
	return &GenerationRun{svc: s, studentID: studentID, release: release}, nil
}

func (s *recommendationService) List(ctx context.Context, studentID uuid.UUID) ([]*types.Recommendation, error) {
	return s.repo.ListByStudentID(ctx, nil, studentID)
}

// mirror copies run events onto the student's realtime channel.
func (s *recommendationService) mirror(ctx context.Context, studentID uuid.UUID) func(recommendation.Event) {
	if s.emit == nil {
		return func(recommendation.Event) {}
	}
	channel := studentID.String()
	return func(ev recommendation.Event) {
		s.emit.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   sseEventFor(ev.Type),
			Data:    ev,
		})
	}
}

func sseEventFor(t recommendation.EventType) realtime.SSEEvent {
	switch t {
	case recommendation.EventProgress:
		return realtime.SSEEventRecommendationProgress
	case recommendation.EventComplete:
		return realtime.SSEEventRecommendationDone
	case recommendation.EventError:
		return realtime.SSEEventRecommendationFailed
	default:
		return realtime.SSEEventRecommendationStatus
	}
}

// GenerationRun holds a claimed generation slot.
type GenerationRun struct {
	svc       *recommendationService
	studentID uuid.UUID
	release   runlock.Release
	once      sync.Once
}

// Execute runs the pipeline and releases the slot. The run is detached from
// ctx cancellation so a disconnected client does not abort persistence.
func (r *GenerationRun) Execute(ctx context.Context, profile recommendation.Profile, sink recommendation.EventSink) (recommendation.Result, error) {
	defer r.Abandon()
	runCtx := context.WithoutCancel(ctx)
	start := time.Now()
	res, err := r.svc.pipeline.Run(runCtx, r.studentID, profile, sink, r.svc.mirror(runCtx, r.studentID))
	r.svc.metrics.ObserveRecommendationRun(runOutcome(err), time.Since(start), res.Inserted, res.Rejected)
	return res, err
}

func runOutcome(err error) string {
	var upstream *recommendation.UpstreamError
	var persist *recommendation.PersistenceError
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, recommendation.ErrUnparseableResponse):
		return "parse_failed"
	case errors.As(err, &upstream):
		return "upstream_failed"
	case errors.As(err, &persist):
		return "persist_failed"
	default:
		return "internal_failed"
	}
}

// Abandon releases the slot without running. Safe to call after Execute.
func (r *GenerationRun) Abandon() {
	r.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := r.release(ctx); err != nil {
			r.svc.log.Warn("Failed to release generation slot", "student_id", r.studentID, "error", err)
		}
	})
}
