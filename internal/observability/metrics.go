package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled bool
	// Addr serves /metrics on a separate listener when set.
	Addr           string
	ScrapeInterval time.Duration
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	runs         *CounterVec
	runLatency   *HistogramVec
	candidates   *CounterVec
	runsRejected *Counter
	redisUp      *Gauge
	redisPing    *Gauge
	scrapeEvery  time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init returns nil when metrics are disabled; every method is nil-safe.
func Init(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics(cfg)
	})
	return instance
}

func newMetrics(cfg MetricsConfig) *Metrics {
	every := cfg.ScrapeInterval
	if every <= 0 {
		every = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("cp_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cp_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 120, 300},
		),
		apiInflight: NewGauge("cp_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("cp_llm_requests_total", "Model calls by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency: NewHistogramVec(
			"cp_llm_request_duration_seconds",
			"Model call latency in seconds.",
			[]string{"provider", "model", "status"},
			[]float64{1, 5, 10, 30, 60, 90, 120, 180},
		),
		runs: NewCounterVec("cp_recommendation_runs_total", "Recommendation runs by outcome.", []string{"outcome"}),
		runLatency: NewHistogramVec(
			"cp_recommendation_run_duration_seconds",
			"Recommendation run duration in seconds.",
			[]string{"outcome"},
			[]float64{1, 5, 10, 30, 60, 90, 120, 180, 300},
		),
		candidates:   NewCounterVec("cp_recommendation_candidates_total", "Model candidates by validation result.", []string{"result"}),
		runsRejected: NewCounter("cp_recommendation_runs_rejected_total", "Generation requests refused because a run was in progress."),
		redisUp:      NewGauge("cp_redis_up", "Whether the last redis ping succeeded."),
		redisPing:    NewGauge("cp_redis_ping_seconds", "Last redis ping latency in seconds."),
		scrapeEvery:  every,
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(provider, model, status)
	m.llmLatency.Observe(dur.Seconds(), provider, model, status)
}

// ObserveRecommendationRun records a finished run. outcome is "completed" or
// the failure class.
func (m *Metrics) ObserveRecommendationRun(outcome string, dur time.Duration, accepted, rejected int) {
	if m == nil {
		return
	}
	m.runs.Inc(outcome)
	m.runLatency.Observe(dur.Seconds(), outcome)
	m.candidates.Add(float64(accepted), "accepted")
	m.candidates.Add(float64(rejected), "rejected")
}

func (m *Metrics) IncRunRejected() {
	if m == nil {
		return
	}
	m.runsRejected.Inc()
}

// StartRedisCollector pings rdb until ctx ends. The client is not closed.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, inst := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.runs, m.runLatency, m.candidates, m.runsRejected,
		m.redisUp, m.redisPing,
	} {
		if err := inst.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}
