package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/collegeprep-backend/internal/data/db"
	"github.com/yungbote/collegeprep-backend/internal/platform/envutil"
)

type Config struct {
	Env             string        `yaml:"env"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`

	Postgres      db.PostgresConfig `yaml:"postgres"`
	RedisAddr     string            `yaml:"redis_addr"`
	SSEBusChannel string            `yaml:"sse_bus_channel"`

	LLM            LLMConfig            `yaml:"llm"`
	Recommendation RecommendationConfig `yaml:"recommendation"`

	Otel    OtelConfig    `yaml:"otel"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	GeminiModel     string        `yaml:"gemini_model"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Temperature     float64       `yaml:"temperature"`
	TopP            float64       `yaml:"top_p"`
	Timeout         time.Duration `yaml:"timeout"`
}

type RecommendationConfig struct {
	BatchSize    int  `yaml:"batch_size"`
	TargetCount  int  `yaml:"count"`
	SingleFlight bool `yaml:"single_flight"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func defaultConfig() Config {
	return Config{
		Env:             "development",
		Port:            "8080",
		ShutdownTimeout: 15 * time.Second,
		AccessTokenTTL:  time.Hour,
		Postgres: db.PostgresConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "collegeprep",
		},
		SSEBusChannel: "collegeprep:sse",
		LLM: LLMConfig{
			Provider:        "gemini",
			GeminiModel:     "gemini-2.0-flash",
			OpenAIModel:     "gpt-4o-mini",
			MaxOutputTokens: 8192,
			Temperature:     0.3,
			TopP:            0.8,
			Timeout:         180 * time.Second,
		},
		Recommendation: RecommendationConfig{
			BatchSize:    5,
			TargetCount:  15,
			SingleFlight: true,
		},
		Otel: OtelConfig{SampleRatio: 0.1},
	}
}

// LoadConfig applies defaults, then the YAML file at CONFIG_PATH if set,
// then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)
	if v := envutil.String("CORS_ALLOW_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = envutil.Seconds("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)

	cfg.Postgres.DSN = envutil.String("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name)
	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.SSEBusChannel = envutil.String("SSE_BUS_CHANNEL", cfg.SSEBusChannel)

	cfg.LLM.Provider = strings.ToLower(envutil.String("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.GeminiAPIKey = envutil.String("GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)
	cfg.LLM.GeminiModel = envutil.String("GEMINI_MODEL", cfg.LLM.GeminiModel)
	cfg.LLM.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	cfg.LLM.OpenAIModel = envutil.String("OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.MaxOutputTokens = envutil.Int("LLM_MAX_OUTPUT_TOKENS", cfg.LLM.MaxOutputTokens)
	cfg.LLM.Temperature = envutil.Float("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.TopP = envutil.Float("LLM_TOP_P", cfg.LLM.TopP)
	cfg.LLM.Timeout = envutil.Seconds("LLM_TIMEOUT_SECONDS", cfg.LLM.Timeout)

	cfg.Recommendation.BatchSize = envutil.Int("RECOMMENDATION_BATCH_SIZE", cfg.Recommendation.BatchSize)
	cfg.Recommendation.TargetCount = envutil.Int("RECOMMENDATION_COUNT", cfg.Recommendation.TargetCount)
	cfg.Recommendation.SingleFlight = envutil.Bool("RECOMMENDATION_SINGLE_FLIGHT", cfg.Recommendation.SingleFlight)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("METRICS_ADDR", cfg.Metrics.Addr)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Recommendation.BatchSize <= 0 {
		return fmt.Errorf("RECOMMENDATION_BATCH_SIZE must be positive")
	}
	if c.Recommendation.TargetCount <= 0 {
		return fmt.Errorf("RECOMMENDATION_COUNT must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
