package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AI collaborator failures. Each implements HTTPError so handlers can map
// them without knowing which provider produced them.
type (
	// TimeoutError indicates the provider did not answer in time
	TimeoutError struct {
		Model string
	}

	// RateLimitedError indicates the caller must wait before retrying
	RateLimitedError struct {
		RetryAfter time.Duration
	}

	// UpstreamError indicates the provider rejected or failed the request.
	// Permanent marks failures the provider says will not succeed on retry
	// (bad credentials, exhausted credits, invalid model).
	UpstreamError struct {
		Status    int
		Body      string
		Permanent bool
	}

	// MalformedResponseError indicates the provider answered without usable text
	MalformedResponseError struct {
		Reason string
	}

	// InvalidImageFormatError indicates an image payload that is not a supported data URL
	InvalidImageFormatError struct {
		Reason string
	}
)

func (e *TimeoutError) Error() string {
	if e.Model == "" {
		return "ai request timed out"
	}
	return fmt.Sprintf("ai request timed out (model %s)", e.Model)
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSeconds())
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Status, e.Body)
}

func (e *MalformedResponseError) Error() string {
	return "malformed ai response: " + e.Reason
}

func (e *InvalidImageFormatError) Error() string {
	return "invalid image format: " + e.Reason
}

func (e *TimeoutError) StatusCode() int            { return http.StatusGatewayTimeout }
func (e *RateLimitedError) StatusCode() int        { return http.StatusTooManyRequests }
func (e *UpstreamError) StatusCode() int           { return http.StatusBadGateway }
func (e *MalformedResponseError) StatusCode() int  { return http.StatusBadGateway }
func (e *InvalidImageFormatError) StatusCode() int { return http.StatusBadRequest }

func (e *TimeoutError) Is(target error) bool            { return target == ErrTimeout }
func (e *RateLimitedError) Is(target error) bool        { return target == ErrRateLimited }
func (e *UpstreamError) Is(target error) bool           { return target == ErrUpstream }
func (e *MalformedResponseError) Is(target error) bool  { return target == ErrMalformedResponse }
func (e *InvalidImageFormatError) Is(target error) bool { return target == ErrInvalidImageFormat }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

var (
	ErrTimeout            = errors.New("ai timeout")
	ErrRateLimited        = errors.New("rate limited")
	ErrUpstream           = errors.New("upstream error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrInvalidImageFormat = errors.New("invalid image format")
)

// Retryable reports whether a fallback/retry loop should try again after err.
// Rate limiting and bad input are never retried.
func Retryable(err error) bool {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrMalformedResponse):
		return true
	case errors.As(err, &upstream):
		return !upstream.Permanent && (upstream.Status == 0 || upstream.Status >= 500)
	default:
		return false
	}
}
