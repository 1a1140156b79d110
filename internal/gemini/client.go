// Package gemini wraps the official genai client behind the single-shot
// text-in/text-out contract the NLP pipeline depends on.
package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"ai-ml-service/internal/common/config"
	"ai-ml-service/internal/common/logger"
	"ai-ml-service/internal/common/metrics"
)

var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Result is the outcome of a single generation call. Available is false on
// any backend fault or empty reply; Text is only meaningful when Available.
type Result struct {
	Text      string
	Available bool
}

// Generator is the text-generation backend abstraction consumed by the
// pipeline. Implementations must not raise: every fault collapses into
// Result{Available: false}.
type Generator interface {
	Generate(ctx context.Context, prompt string) Result
}

// Client is a long-lived handle on the Gemini backend, constructed once at
// process bootstrap.
type Client struct {
	cli    *genai.Client
	model  string
	logger logger.Logger
}

func NewClient(ctx context.Context, cfg config.GeminiConfig, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		cli:   cli,
		model: cfg.Model,
		logger: log.With(map[string]interface{}{
			"component": "gemini",
			"model":     cfg.Model,
		}),
	}, nil
}

// Generate sends one prompt and returns the raw reply text. The blocking SDK
// call runs on its own goroutine so the caller's deadline always wins; when
// the context expires first the call is abandoned and the result is
// unavailable. Single attempt, no internal retry.
func (c *Client) Generate(ctx context.Context, prompt string) Result {
	type genOutcome struct {
		text string
		err  error
	}

	start := time.Now()
	done := make(chan genOutcome, 1)

	go func() {
		resp, err := c.cli.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			nil,
		)
		if err != nil {
			done <- genOutcome{err: err}
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			done <- genOutcome{}
			return
		}
		done <- genOutcome{text: resp.Candidates[0].Content.Parts[0].Text}
	}()

	select {
	case <-ctx.Done():
		metrics.GenerationFailures.WithLabelValues("timeout").Inc()
		c.logger.Error("generation abandoned", map[string]interface{}{
			"error":   ctx.Err().Error(),
			"elapsed": time.Since(start).String(),
		})
		return Result{}
	case out := <-done:
		if out.err != nil {
			metrics.GenerationFailures.WithLabelValues("backend_error").Inc()
			c.logger.Error("content generation failed", map[string]interface{}{
				"error":   out.err.Error(),
				"elapsed": time.Since(start).String(),
			})
			return Result{}
		}
		if strings.TrimSpace(out.text) == "" {
			metrics.GenerationFailures.WithLabelValues("empty_response").Inc()
			c.logger.Warn("generation returned empty text", map[string]interface{}{
				"elapsed": time.Since(start).String(),
			})
			return Result{}
		}
		return Result{Text: out.text, Available: true}
	}
}
