// Package gemini implements integration with Google's Gemini API.
// It is the only component that talks to the generation backend; every failure
// it reports is a *GenerationError so callers can substitute fallback text.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sismos-scu/sismobot/internal/config"
)

// ErrGeneration matches every *GenerationError via errors.Is.
var ErrGeneration = errors.New("text generation failed")

// GenerationError reports that the backend could not produce text: transport
// failures, quota errors, safety blocks, empty responses and timeouts alike.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gemini: %s: %v", e.Reason, e.Err)
	}
	return "gemini: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Client generates text from a single prompt.
type Client interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error)
}

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models            contentGenerator
	log               *slog.Logger
	modelName         string
	systemInstruction string
	timeout           time.Duration
	maxRetries        int
	retryDelay        time.Duration
}

// NewClient creates a Gemini client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName, "timeout", cfg.Timeout)
	return newClient(gi.Models, cfg, logger), nil
}

func newClient(models contentGenerator, cfg config.GeminiConfig, log *slog.Logger) *sdkClient {
	return &sdkClient{
		models:            models,
		log:               log,
		modelName:         cfg.ModelName,
		systemInstruction: cfg.SystemInstruction,
		timeout:           cfg.Timeout,
		maxRetries:        cfg.MaxRetries,
		retryDelay:        time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
}

// Generate sends prompt to the model. A maxTokens of zero leaves the output length to the model.
func (c *sdkClient) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &GenerationError{Reason: "empty prompt"}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
	if c.systemInstruction != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: c.systemInstruction}}}
	}

	c.log.DebugContext(ctx, "Generating text", "prompt_length", len(prompt), "temperature", temperature, "max_tokens", maxTokens)

	resp, err := c.generateContentWithRetries(ctx, genai.Text(prompt), genCfg)
	if err != nil {
		return "", err
	}
	return c.extractTextFromResponse(ctx, resp)
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.WarnContext(ctx, "Gemini API call timed out", "attempt", attempt+1, "timeout", c.timeout)
			return nil, &GenerationError{Reason: "timeout", Err: err}
		}

		code, isAPIErr := apiErrorCode(err)
		if !isAPIErr || (code != 500 && code != 503) {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err, "code", code)
			return nil, &GenerationError{Reason: "api call failed", Err: err}
		}
		if attempt >= c.maxRetries {
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", err, "code", code, "attempts", attempt+1)
			return nil, &GenerationError{Reason: fmt.Sprintf("api call failed after %d retries", c.maxRetries), Err: err}
		}

		c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", code, "attempt", attempt+1)
		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
			return nil, &GenerationError{Reason: "cancelled while waiting to retry", Err: ctx.Err()}
		}
	}
}

func apiErrorCode(err error) (int, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return val.Code, true
	}
	return 0, false
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &GenerationError{Reason: "nil response"}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified && resp.PromptFeedback.BlockReason != "" {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", &GenerationError{Reason: "blocked by safety filter: " + reasonMsg}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", &GenerationError{Reason: "no content, finish reason: " + finishReason}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty")
		return "", &GenerationError{Reason: "empty text"}
	}

	return text, nil
}
