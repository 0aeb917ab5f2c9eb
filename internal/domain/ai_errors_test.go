package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &TimeoutError{Model: "m"}, true},
		{"wrapped timeout", fmt.Errorf("send: %w", &TimeoutError{}), true},
		{"malformed", &MalformedResponseError{Reason: "no text"}, true},
		{"server error", &UpstreamError{Status: 503}, true},
		{"transport error", &UpstreamError{Body: "connection reset"}, true},
		{"client error", &UpstreamError{Status: 400}, false},
		{"permanent server error", &UpstreamError{Status: 503, Permanent: true}, false},
		{"permanent transport error", &UpstreamError{Body: "no credits", Permanent: true}, false},
		{"rate limited", &RateLimitedError{RetryAfter: time.Second}, false},
		{"bad image", &InvalidImageFormatError{}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRateLimitedError_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		after time.Duration
		want  int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
	}
	for _, tt := range tests {
		e := &RateLimitedError{RetryAfter: tt.after}
		if got := e.RetryAfterSeconds(); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %d, want %d", tt.after, got, tt.want)
		}
		if !errors.Is(e, ErrRateLimited) {
			t.Error("RateLimitedError should match ErrRateLimited")
		}
	}
}
