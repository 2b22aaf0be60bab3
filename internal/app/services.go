package app

import (
	"fmt"

	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/observability"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/platform/runlock"
	"github.com/yungbote/collegeprep-backend/internal/realtime"
	"github.com/yungbote/collegeprep-backend/internal/realtime/bus"
	"github.com/yungbote/collegeprep-backend/internal/services"
)

// lockMargin keeps the single-flight claim alive past the model timeout so
// the persist phase is covered too.
const lockMargin = 2

type Services struct {
	Auth           services.AuthService
	Recommendation services.RecommendationService
	Bus            bus.Bus
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, repos Repos, hub *realtime.SSEHub, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	var sseBus bus.Bus
	if clients.Redis != nil {
		b, err := bus.NewRedisBus(log, clients.Redis, cfg.SSEBusChannel)
		if err != nil {
			return Services{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	} else {
		sseBus = bus.NewLocalBus()
	}

	var locker runlock.Locker
	switch {
	case !cfg.Recommendation.SingleFlight:
		locker = runlock.Noop()
	case clients.Redis != nil:
		locker = runlock.NewRedis(clients.Redis, "collegeprep:runlock:")
	default:
		locker = runlock.NewMemory()
	}

	gen := services.InstrumentGenerator(clients.Generator, log, metrics, cfg.LLM.Provider, clients.Model)
	pipeline := recommendation.NewPipeline(gen, repos.Recommendation, recommendation.Config{
		BatchSize:   cfg.Recommendation.BatchSize,
		TargetCount: cfg.Recommendation.TargetCount,
	}, log)

	rec := services.NewRecommendationService(
		log,
		repos.Recommendation,
		pipeline,
		locker,
		&services.BusEmitter{Bus: sseBus, Log: log},
		services.RecommendationServiceConfig{
			LockTTL: lockMargin * cfg.LLM.Timeout,
			Metrics: metrics,
		},
	)

	return Services{
		Auth:           services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Recommendation: rec,
		Bus:            sseBus,
	}, nil
}
