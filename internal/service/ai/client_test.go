package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"essaycoach/internal/domain"
	"essaycoach/internal/domain/services"
)

// scriptedProvider answers each call with the next scripted result for its model
type scriptedProvider struct {
	mu       sync.Mutex
	script   map[string][]error // model -> errors to return before succeeding
	calls    []string
	requests []*llmprovider.GenerateRequest
}

func (p *scriptedProvider) GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req.Model)
	p.requests = append(p.requests, req)
	if errs := p.script[req.Model]; len(errs) > 0 {
		p.script[req.Model] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
		return &llmprovider.GenerateResponse{Model: req.Model}, nil
	}

	text := "回复来自 " + req.Model
	return &llmprovider.GenerateResponse{
		Model:  req.Model,
		Blocks: []*llmprovider.Block{{BlockType: "text", TextContent: &text}},
	}, nil
}

type staticProviders struct {
	provider Generator
	missing  map[string]bool
}

func (s staticProviders) GetProvider(name string) (Generator, error) {
	if s.missing[name] {
		return nil, fmt.Errorf("%s not configured", name)
	}
	return s.provider, nil
}

// Provider failures shaped the way the openrouter provider reports them

func rateLimitedError() error {
	return &llmprovider.ProviderError{
		Code:       llmprovider.ErrorCodeRateLimited,
		Provider:   "openrouter",
		StatusCode: 429,
		Message:    "rate limit exceeded",
		Retryable:  true,
		Err:        llmprovider.ErrRateLimited,
	}
}

func requestTimeoutError() error {
	return &llmprovider.ProviderError{
		Code:       llmprovider.ErrorCodeTimeout,
		Provider:   "openrouter",
		StatusCode: 408,
		Message:    "request timed out",
		Retryable:  true,
		Err:        llmprovider.ErrTimeout,
	}
}

func unavailableError(status int) error {
	return &llmprovider.ProviderError{
		Code:       llmprovider.ErrorCodeProviderUnavailable,
		Provider:   "openrouter",
		StatusCode: status,
		Message:    "upstream failure",
		Retryable:  status >= 500,
		Err:        llmprovider.ErrProviderUnavailable,
	}
}

func newTestClient(p *scriptedProvider, models []string, retries int) *Client {
	c := NewClient(
		staticProviders{provider: p},
		ClientConfig{
			DefaultProvider: "lorem",
			Models:          models,
			VisionModel:     "lorem-vision",
			Timeout:         time.Second,
			MaxRetries:      retries,
			Backoff:         time.Millisecond,
		},
		NewGuard(0),
		NewVisionQueue(0, discardLogger()),
		discardLogger(),
	)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

var hello = []services.ChatMessage{{Role: "user", Content: "你好"}}

func TestSendChat_PrimarySucceeds(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 1)

	got, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if got != "回复来自 lorem-a" {
		t.Errorf("SendChat = %q", got)
	}
	if len(p.calls) != 1 {
		t.Errorf("expected a single call, got %v", p.calls)
	}
}

func TestSendChat_RetriesThenFallsBack(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {unavailableError(503), unavailableError(502)},
	}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 1)

	got, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if got != "回复来自 lorem-b" {
		t.Errorf("SendChat = %q, want fallback reply", got)
	}
	want := []string{"lorem-a", "lorem-a", "lorem-b"}
	if fmt.Sprint(p.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", p.calls, want)
	}
}

func TestSendChat_PermanentErrorSkipsRetries(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"insufficient credits", unavailableError(402)},
		{"invalid api key", llmprovider.ErrInvalidAPIKey},
		{"invalid model", &llmprovider.ModelError{Provider: "openrouter", Reason: "model not found", Err: llmprovider.ErrInvalidModel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{script: map[string][]error{
				"lorem-a": {tt.err},
			}}
			c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 3)

			if _, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{}); err != nil {
				t.Fatalf("SendChat failed: %v", err)
			}
			want := []string{"lorem-a", "lorem-b"}
			if fmt.Sprint(p.calls) != fmt.Sprint(want) {
				t.Errorf("calls = %v, want %v", p.calls, want)
			}
		})
	}
}

func TestSendChat_RateLimitedStops(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {rateLimitedError()},
	}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 2)

	_, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	var limited *domain.RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %T %v", err, err)
	}
	if limited.RetryAfterSeconds() != 1 {
		t.Errorf("RetryAfterSeconds = %d, want 1", limited.RetryAfterSeconds())
	}
	if len(p.calls) != 1 {
		t.Errorf("rate limited request must not be retried or fall back, calls = %v", p.calls)
	}
}

func TestSendChat_ProviderTimeoutIsRetried(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {requestTimeoutError()},
	}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 1)

	got, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if got != "回复来自 lorem-a" {
		t.Errorf("SendChat = %q, want retry on the same model", got)
	}
	if len(p.calls) != 2 {
		t.Errorf("calls = %v, want two attempts on lorem-a", p.calls)
	}
}

func TestSendChat_ProviderTimeoutExhausted(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {requestTimeoutError(), llmprovider.ErrTimeout},
	}}
	c := newTestClient(p, []string{"lorem-a"}, 1)

	_, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected TimeoutError, got %T %v", err, err)
	}
}

func TestSendChat_CancelledDuringBackoff(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {unavailableError(503)},
	}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.SendChat(ctx, "c1", hello, services.ChatOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %T %v", err, err)
	}
	if errors.Is(err, domain.ErrTimeout) {
		t.Error("a caller cancellation must not be reported as a timeout")
	}
	if len(p.calls) != 1 {
		t.Errorf("calls = %v, want no attempt after cancellation", p.calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		status    int
		retryable bool
	}{
		{"rate limited", rateLimitedError(), domain.ErrRateLimited, 0, false},
		{"bare rate limited", fmt.Errorf("send: %w", llmprovider.ErrRateLimited), domain.ErrRateLimited, 0, false},
		{"request timeout", requestTimeoutError(), domain.ErrTimeout, 0, true},
		{"deadline", context.DeadlineExceeded, domain.ErrTimeout, 0, true},
		{"invalid api key", llmprovider.ErrInvalidAPIKey, domain.ErrUpstream, 401, false},
		{"forbidden", unavailableError(403), domain.ErrUpstream, 401, false},
		{"invalid model", &llmprovider.ModelError{Err: llmprovider.ErrInvalidModel}, domain.ErrUpstream, 400, false},
		{"server error", unavailableError(503), domain.ErrUpstream, 503, true},
		{"insufficient credits", unavailableError(402), domain.ErrUpstream, 402, false},
		{"transport", errors.New("connection reset by peer"), domain.ErrUpstream, 0, true},
		{"cancelled", context.Canceled, context.Canceled, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(context.Background(), "m", tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("classify = %T %v, want %v", got, got, tt.want)
			}
			var upstream *domain.UpstreamError
			if errors.As(got, &upstream) && upstream.Status != tt.status {
				t.Errorf("Status = %d, want %d", upstream.Status, tt.status)
			}
			if r := domain.Retryable(got); r != tt.retryable {
				t.Errorf("Retryable = %v, want %v", r, tt.retryable)
			}
		})
	}
}

func TestSendChat_AllModelsFail(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{
		"lorem-a": {nil, nil}, // empty responses
	}}
	c := newTestClient(p, []string{"lorem-a"}, 1)

	_, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if len(p.calls) != 2 {
		t.Errorf("malformed responses should be retried once, calls = %v", p.calls)
	}
}

func TestSendChat_PreferredModelAndSystem(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{}}
	c := newTestClient(p, []string{"lorem-a", "lorem-b"}, 0)

	_, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{Model: "lorem-b", System: "你是写作老师"})
	if err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if p.calls[0] != "lorem-b" {
		t.Errorf("preferred model should go first, calls = %v", p.calls)
	}

	blocks := p.requests[0].Messages[0].Blocks
	if len(blocks) != 2 || *blocks[0].TextContent != "你是写作老师" || *blocks[1].TextContent != "你好" {
		t.Errorf("system text should lead the first user message")
	}
}

func TestSendChat_GuardRejectsConcurrentRequest(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{}}
	c := newTestClient(p, []string{"lorem-a"}, 0)

	release, err := c.guard.Acquire("c1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected RateLimitedError, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Error("guarded request must not reach the provider")
	}
}

func TestSendChat_Timeout(t *testing.T) {
	c := newTestClient(nil, []string{"lorem-slow"}, 0)
	c.providers = staticProviders{provider: slowProvider{}}
	c.cfg.Timeout = 10 * time.Millisecond

	_, err := c.SendChat(context.Background(), "c1", hello, services.ChatOptions{})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("expected TimeoutError, got %v", err)
	}
}

type slowProvider struct{}

func (slowProvider) GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDescribeImage(t *testing.T) {
	p := &scriptedProvider{script: map[string][]error{}}
	c := newTestClient(p, []string{"lorem-a"}, 0)

	if _, err := c.DescribeImage(context.Background(), "c1", "not-an-image", "读一下"); !errors.Is(err, domain.ErrInvalidImageFormat) {
		t.Fatalf("expected InvalidImageFormatError, got %v", err)
	}

	desc, err := c.DescribeImage(context.Background(), "c1", "data:image/png;base64,iVBORw0KGgo=", "读一下")
	if err != nil {
		t.Fatalf("DescribeImage failed: %v", err)
	}
	if desc.Model != "lorem-vision" || desc.Description != "回复来自 lorem-vision" {
		t.Errorf("DescribeImage = %+v", desc)
	}
	blocks := p.requests[0].Messages[0].Blocks
	if blocks[0].BlockType != "image" || blocks[0].Content["mime_type"] != "image/png" {
		t.Errorf("first block should carry the image, got %+v", blocks[0])
	}
}
