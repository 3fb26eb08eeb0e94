package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"

	"github.com/daryltucker/judge-runner/internal/config"
)

// newBackOff maps the retry settings onto an exponential policy.
func newBackOff(cfg config.RetryConfig) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval: cfg.InitialInterval,
		Multiplier:      max(cfg.Multiplier, 1.0),
		MaxInterval:     max(cfg.MaxInterval, cfg.InitialInterval),
	}
	if cfg.UseJitter {
		b.RandomizationFactor = backoff.DefaultRandomizationFactor
	}
	b.Reset()
	return b
}

// isRetryable reports whether a failed completion is worth another attempt.
// Rate limits, server errors, timeouts of a single call and dropped
// connections are. Request errors (bad key, unknown model), certificate
// failures and malformed endpoints are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode >= http.StatusInternalServerError
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// *url.Error satisfies net.Error for every transport failure, so only
	// its timeout bit is meaningful here.
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
