package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"essaycoach/internal/config"
	"essaycoach/internal/domain"
	"essaycoach/internal/domain/services"
	"essaycoach/internal/metrics"
)

const (
	kindChat   = "chat"
	kindVision = "vision"

	blockTypeText  = "text"
	blockTypeImage = "image"
)

// ClientConfig holds the fallback and retry policy
type ClientConfig struct {
	DefaultProvider string
	Models          []string // primary first, then fallbacks
	VisionModel     string
	Timeout         time.Duration // per attempt
	MaxRetries      int           // extra attempts per model
	Backoff         time.Duration // first retry delay, doubled per retry
}

// ClientConfigFrom builds the policy from process config
func ClientConfigFrom(cfg *config.Config) ClientConfig {
	models := append([]string{cfg.DefaultModel}, cfg.FallbackModels...)
	return ClientConfig{
		DefaultProvider: cfg.DefaultProvider,
		Models:          models,
		VisionModel:     cfg.VisionModel,
		Timeout:         cfg.AITimeout,
		MaxRetries:      cfg.AIMaxRetries,
		Backoff:         500 * time.Millisecond,
	}
}

// Client is the AI collaborator: one SendChat/DescribeImage capability with
// per-client guarding, provider fallback and retry.
type Client struct {
	providers ProviderGetter
	cfg       ClientConfig
	guard     *Guard
	vision    *VisionQueue
	logger    *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

var (
	_ services.ChatSender     = (*Client)(nil)
	_ services.ImageDescriber = (*Client)(nil)
)

// NewClient creates the AI collaborator
func NewClient(providers ProviderGetter, cfg ClientConfig, guard *Guard, vision *VisionQueue, logger *slog.Logger) *Client {
	return &Client{
		providers: providers,
		cfg:       cfg,
		guard:     guard,
		vision:    vision,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// SendChat sends messages and returns the reply text. opts.Model, when set,
// is tried before the configured model list.
func (c *Client) SendChat(ctx context.Context, clientKey string, messages []services.ChatMessage, opts services.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", &domain.ValidationError{Message: "messages cannot be empty"}
	}

	release, err := c.guard.Acquire(clientKey)
	if err != nil {
		return "", err
	}
	defer release()

	text, _, err := c.complete(ctx, kindChat, c.modelsFor(opts.Model), toLibraryMessages(messages, opts.System))
	return text, err
}

// DescribeImage queues a vision request behind earlier ones and returns the
// description. The image must be a base64 data URL.
func (c *Client) DescribeImage(ctx context.Context, clientKey, dataURL, prompt string) (*services.ImageDescription, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}

	messages := []llmprovider.Message{{
		Role: "user",
		Blocks: []*llmprovider.Block{
			{
				BlockType: blockTypeImage,
				Sequence:  0,
				Content: map[string]interface{}{
					"url":       dataURL,
					"mime_type": img.MIMEType,
				},
			},
			textBlock(1, prompt),
		},
	}}

	models := []string{c.cfg.VisionModel}
	return c.vision.Do(ctx, func(ctx context.Context) (*services.ImageDescription, error) {
		text, model, err := c.complete(ctx, kindVision, models, messages)
		if err != nil {
			return nil, err
		}
		c.logger.Info("image described", "client_key", clientKey, "model", model, "bytes", len(img.Data))
		return &services.ImageDescription{Description: text, Model: model}, nil
	})
}

// modelsFor returns the model list with preferred moved to the front
func (c *Client) modelsFor(preferred string) []string {
	if preferred == "" {
		return c.cfg.Models
	}
	models := []string{preferred}
	for _, m := range c.cfg.Models {
		if m != preferred {
			models = append(models, m)
		}
	}
	return models
}

// complete tries each model in order. Retryable failures are retried with
// exponential backoff; rate limiting stops immediately; anything else moves on
// to the next model. The last error is returned when every model fails.
func (c *Client) complete(ctx context.Context, kind string, models []string, messages []llmprovider.Message) (string, string, error) {
	var lastErr error
	for _, modelStr := range models {
		info, err := ParseModel(modelStr, c.cfg.DefaultProvider)
		if err != nil {
			c.logger.Warn("skipping model", "model", modelStr, "error", err)
			lastErr = err
			continue
		}
		provider, err := c.providers.GetProvider(info.Provider)
		if err != nil {
			c.logger.Warn("provider unavailable", "provider", info.Provider, "model", info.Model, "error", err)
			lastErr = err
			continue
		}

		for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				if err := c.sleep(ctx, c.cfg.Backoff<<(attempt-1)); err != nil {
					return "", "", classify(ctx, info.Model, err)
				}
			}

			text, err := c.attempt(ctx, kind, provider, info.Model, messages)
			if err == nil {
				return text, info.Model, nil
			}
			lastErr = err

			c.logger.Warn("ai attempt failed",
				"kind", kind,
				"model", info.Model,
				"attempt", attempt+1,
				"error", err,
			)

			if errors.Is(err, domain.ErrRateLimited) || ctx.Err() != nil {
				return "", "", err
			}
			if !domain.Retryable(err) {
				break
			}
		}
		metrics.RecordFallback(modelStr)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no models configured")
	}
	return "", "", lastErr
}

// attempt runs one provider call under the per-attempt timeout
func (c *Client) attempt(ctx context.Context, kind string, provider Generator, model string, messages []llmprovider.Message) (string, error) {
	attemptCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := provider.GenerateResponse(attemptCtx, &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    model,
	})
	if err != nil {
		err = classify(attemptCtx, model, err)
		metrics.ObserveAI(kind, model, status(err), time.Since(start))
		return "", err
	}

	text, err := responseText(resp)
	metrics.ObserveAI(kind, model, status(err), time.Since(start))
	if err != nil {
		return "", err
	}

	c.logger.Debug("ai response",
		"kind", kind,
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	return text, nil
}

// providerRetryAfter is reported to callers when the provider rate limits
// without saying for how long
const providerRetryAfter = time.Second

// classify maps a provider failure onto the collaborator's error kinds.
// A cancelled caller context is returned unchanged.
func classify(ctx context.Context, model string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{Model: model}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var pe *llmprovider.ProviderError
	hasProviderError := errors.As(err, &pe)

	switch {
	case errors.Is(err, llmprovider.ErrRateLimited):
		return &domain.RateLimitedError{RetryAfter: providerRetryAfter}
	case errors.Is(err, llmprovider.ErrTimeout):
		return &domain.TimeoutError{Model: model}
	case llmprovider.IsAuthError(err):
		return &domain.UpstreamError{Status: http.StatusUnauthorized, Body: err.Error(), Permanent: true}
	case llmprovider.IsInvalidRequest(err):
		return &domain.UpstreamError{Status: http.StatusBadRequest, Body: err.Error(), Permanent: true}
	case hasProviderError:
		return &domain.UpstreamError{Status: pe.StatusCode, Body: pe.Message, Permanent: !pe.Retryable}
	case errors.Is(err, llmprovider.ErrProviderUnavailable):
		return &domain.UpstreamError{Status: http.StatusServiceUnavailable, Body: err.Error()}
	default:
		// Transport failures and unparsed provider bodies
		return &domain.UpstreamError{Body: err.Error()}
	}
}

// responseText joins the text blocks of a response
func responseText(resp *llmprovider.GenerateResponse) (string, error) {
	if resp == nil {
		return "", &domain.MalformedResponseError{Reason: "empty response"}
	}
	var parts []string
	for _, block := range resp.Blocks {
		if block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		parts = append(parts, *block.TextContent)
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", &domain.MalformedResponseError{Reason: "no text content"}
	}
	return text, nil
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, domain.ErrInvalidImageFormat):
		return "invalid_image"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// toLibraryMessages converts chat messages to provider messages. The system
// text leads the first user message as its own block.
func toLibraryMessages(messages []services.ChatMessage, system string) []llmprovider.Message {
	out := make([]llmprovider.Message, 0, len(messages))
	systemPending := strings.TrimSpace(system) != ""
	for _, msg := range messages {
		var blocks []*llmprovider.Block
		if systemPending && msg.Role == "user" {
			blocks = append(blocks, textBlock(0, system))
			systemPending = false
		}
		blocks = append(blocks, textBlock(len(blocks), msg.Content))
		out = append(out, llmprovider.Message{Role: msg.Role, Blocks: blocks})
	}
	return out
}

func textBlock(seq int, text string) *llmprovider.Block {
	return &llmprovider.Block{
		BlockType:   blockTypeText,
		Sequence:    seq,
		TextContent: &text,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
