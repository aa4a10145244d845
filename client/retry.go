// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

// RetryConfig configures [RetryInterceptor].
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Multiplier grows the wait after each attempt.
	Multiplier float64
}

// DefaultRetryConfig returns a RetryConfig with three attempts and exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}
}

// retryableStatus reports whether the agent asked the client to try again later.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// RetryInterceptor retries requests that fail at the transport level or are answered with
// 429, 502, 503 or 504, waiting with jittered exponential backoff between attempts.
//
// Requests are replayed through [http.Request.GetBody]; a request without it is sent once.
func RetryInterceptor(cfg RetryConfig) Interceptor {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		if cfg.MaxAttempts <= 1 || (req.Body != nil && req.GetBody == nil) {
			return invoker(ctx, req)
		}

		delay := cfg.InitialDelay
		var lastErr error
		for attempt := range cfg.MaxAttempts {
			if attempt > 0 {
				if req.GetBody != nil {
					body, err := req.GetBody()
					if err != nil {
						return nil, fmt.Errorf("rewind request body: %w", err)
					}
					req.Body = body
				}

				jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
				timer := time.NewTimer(delay + jitter)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return nil, errors.Join(ctx.Err(), lastErr)
				}
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}

			resp, err := invoker(ctx, req)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil, err
				}
				lastErr = err
			case retryableStatus(resp.StatusCode) && attempt < cfg.MaxAttempts-1:
				io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
				resp.Body.Close()
				lastErr = fmt.Errorf("agent answered %s", resp.Status)
			default:
				return resp, nil
			}
		}
		return nil, fmt.Errorf("request failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
	}
}
