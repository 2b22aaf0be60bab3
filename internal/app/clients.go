package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/collegeprep-backend/internal/modules/recommendation"
	"github.com/yungbote/collegeprep-backend/internal/platform/gemini"
	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
	"github.com/yungbote/collegeprep-backend/internal/platform/openai"
)

type Clients struct {
	Redis     goredis.UniversalClient
	Generator recommendation.Generator
	Model     string

	closers []io.Closer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		c.Redis = rdb
		c.closers = append(c.closers, rdb)
	}

	// Model
	switch cfg.LLM.Provider {
	case "openai":
		client, err := openai.NewClient(log, openai.Config{
			APIKey:          cfg.LLM.OpenAIAPIKey,
			BaseURL:         cfg.LLM.OpenAIBaseURL,
			Model:           cfg.LLM.OpenAIModel,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			Temperature:     cfg.LLM.Temperature,
			TopP:            cfg.LLM.TopP,
			Timeout:         cfg.LLM.Timeout,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.Generator = client
		c.Model = cfg.LLM.OpenAIModel
	default:
		client, err := gemini.NewClient(ctx, log, gemini.Config{
			APIKey:          cfg.LLM.GeminiAPIKey,
			Model:           cfg.LLM.GeminiModel,
			MaxOutputTokens: int32(cfg.LLM.MaxOutputTokens),
			Temperature:     float32(cfg.LLM.Temperature),
			TopP:            float32(cfg.LLM.TopP),
			Timeout:         cfg.LLM.Timeout,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init gemini client: %w", err)
		}
		c.Generator = client
		c.Model = cfg.LLM.GeminiModel
		c.closers = append(c.closers, client)
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
