package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/collegeprep-backend/internal/http"
	httpH "github.com/yungbote/collegeprep-backend/internal/http/handlers"
	httpMW "github.com/yungbote/collegeprep-backend/internal/http/middleware"
	"github.com/yungbote/collegeprep-backend/internal/observability"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/realtime"
)

const serviceName = "collegeprep-api"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	Realtime       *httpH.RealtimeHandler
	Recommendation *httpH.RecommendationHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(db),
		Realtime:       httpH.NewRealtimeHandler(log, hub),
		Recommendation: httpH.NewRecommendationHandler(log, services.Recommendation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	name := ""
	if cfg.Otel.Enabled {
		name = serviceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                   log,
		ServiceName:           name,
		CORSOrigins:           cfg.CORSOrigins,
		Metrics:               metrics,
		AuthMiddleware:        middleware.Auth,
		RecommendationHandler: handlers.Recommendation,
		RealtimeHandler:       handlers.Realtime,
		HealthHandler:         handlers.Health,
	})
}
