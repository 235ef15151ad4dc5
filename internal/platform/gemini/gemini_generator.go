// Package gemini implements the generation.Generator interface on top of
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/generation"
)

const promptTemplate = "Write one natural example sentence using the word %q " +
	"in the sense of: %s. Reply with the sentence only, no quotes and no explanation."

// GeminiGenerator generates example sentences for vocabulary terms using
// Google's Gemini API.
type GeminiGenerator struct {
	logger            *slog.Logger
	client            *genai.Client
	model             string
	maxRetries        int
	retryDelaySeconds int
}

// Ensure GeminiGenerator implements generation.Generator
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a Gemini-backed example generator.
// Returns generation.ErrInvalidConfig if the API key or model name is missing.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryDelaySeconds
	if retryDelay < 1 {
		retryDelay = 2
	}

	return &GeminiGenerator{
		logger:            logger.With(slog.String("component", "gemini_generator")),
		client:            client,
		model:             cfg.ModelName,
		maxRetries:        maxRetries,
		retryDelaySeconds: retryDelay,
	}, nil
}

// GenerateExample implements generation.Generator.
// Transient API failures are retried with exponential backoff and jitter;
// permanent failures (blocked content, malformed responses) return immediately.
func (g *GeminiGenerator) GenerateExample(
	ctx context.Context,
	term, definition string,
) (string, error) {
	if strings.TrimSpace(term) == "" {
		return "", generation.ErrEmptyTerm
	}

	prompt := fmt.Sprintf(promptTemplate, term, definition)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		sentence, err := g.callOnce(ctx, prompt)
		if err == nil {
			g.logger.DebugContext(ctx, "example generated",
				slog.String("term", term),
				slog.Int("attempt", attempt+1))
			return sentence, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent generation error, not retrying",
				slog.String("error", err.Error()))
			return "", err
		}

		if attempt >= g.maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoff := float64(g.retryDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying Gemini call",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrTransientFailure, g.maxRetries+1, lastErr)
}

// callOnce makes a single API call and validates the response.
func (g *GeminiGenerator) callOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	sentence := strings.TrimSpace(resp.Text())
	if sentence == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}

	return sentence, nil
}
