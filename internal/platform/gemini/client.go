package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/yungbote/collegeprep-backend/internal/platform/logger"
)

type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
	Timeout         time.Duration
}

// Client generates text with a single Gemini model. Calls are never retried.
type Client struct {
	log     *logger.Logger
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	timeout time.Duration
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}

	return &Client{
		log:     log.With("client", "GeminiClient", "model", cfg.Model),
		client:  client,
		model:   model,
		name:    cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Warn("Gemini request failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text, finish := responseText(resp)
	c.log.Debug("Gemini request finished",
		"duration_ms", time.Since(start).Milliseconds(),
		"finish_reason", finish,
		"chars", len(text),
	)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text (finish_reason=%s)", finish)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, string) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", "no_candidates"
	}
	cand := resp.Candidates[0]
	finish := cand.FinishReason.String()
	if cand.Content == nil {
		return "", finish
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), finish
}

