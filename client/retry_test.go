// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type scriptedInvoker struct {
	statuses []int
	errs     []error
	bodies   []string
}

func (s *scriptedInvoker) invoke(_ context.Context, req *http.Request) (*http.Response, error) {
	attempt := len(s.bodies)
	body, _ := io.ReadAll(req.Body)
	s.bodies = append(s.bodies, string(body))

	if attempt < len(s.errs) && s.errs[attempt] != nil {
		return nil, s.errs[attempt]
	}
	code := http.StatusOK
	if attempt < len(s.statuses) {
		code = s.statuses[attempt]
	}
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func newRetryRequest(t *testing.T) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, "http://agent.invalid/", strings.NewReader(`{"jsonrpc":"2.0"}`))
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestRetryInterceptor(t *testing.T) {
	errRefused := errors.New("connection refused")

	tests := map[string]struct {
		cfg          RetryConfig
		statuses     []int
		errs         []error
		wantStatus   int
		wantErr      error
		wantAttempts int
	}{
		"success first": {
			cfg:          fastRetry(3),
			wantStatus:   http.StatusOK,
			wantAttempts: 1,
		},
		"unavailable then ok": {
			cfg:          fastRetry(3),
			statuses:     []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK},
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		"client error is not retried": {
			cfg:          fastRetry(3),
			statuses:     []int{http.StatusBadRequest},
			wantStatus:   http.StatusBadRequest,
			wantAttempts: 1,
		},
		"last unavailable answer is returned": {
			cfg:          fastRetry(2),
			statuses:     []int{http.StatusBadGateway, http.StatusBadGateway},
			wantStatus:   http.StatusBadGateway,
			wantAttempts: 2,
		},
		"transport error exhausts attempts": {
			cfg:          fastRetry(3),
			errs:         []error{errRefused, errRefused, errRefused},
			wantErr:      errRefused,
			wantAttempts: 3,
		},
		"transport error then ok": {
			cfg:          fastRetry(3),
			errs:         []error{errRefused},
			wantStatus:   http.StatusOK,
			wantAttempts: 2,
		},
		"disabled": {
			cfg:          RetryConfig{},
			statuses:     []int{http.StatusServiceUnavailable},
			wantStatus:   http.StatusServiceUnavailable,
			wantAttempts: 1,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			inv := &scriptedInvoker{statuses: tt.statuses, errs: tt.errs}
			req := newRetryRequest(t)

			resp, err := RetryInterceptor(tt.cfg)(t.Context(), req, inv.invoke)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				defer resp.Body.Close()
				if resp.StatusCode != tt.wantStatus {
					t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
				}
			}

			if len(inv.bodies) != tt.wantAttempts {
				t.Fatalf("attempts = %d, want %d", len(inv.bodies), tt.wantAttempts)
			}
			want := make([]string, tt.wantAttempts)
			for i := range want {
				want[i] = `{"jsonrpc":"2.0"}`
			}
			if diff := cmp.Diff(want, inv.bodies); diff != "" {
				t.Errorf("replayed bodies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRetryInterceptor_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	inv := &scriptedInvoker{statuses: []int{http.StatusServiceUnavailable, http.StatusOK}}
	invoke := func(ctx context.Context, req *http.Request) (*http.Response, error) {
		resp, err := inv.invoke(ctx, req)
		cancel()
		return resp, err
	}

	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Minute}
	_, err := RetryInterceptor(cfg)(ctx, newRetryRequest(t), invoke)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(inv.bodies) != 1 {
		t.Errorf("attempts = %d, want 1", len(inv.bodies))
	}
}

func TestRetryInterceptor_WithClient(t *testing.T) {
	agent := newTestAgent(t, true)

	var failures int
	flaky := func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		if req.Method == http.MethodPost && failures < 2 {
			failures++
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Status:     "503 Service Unavailable",
				Body:       io.NopCloser(strings.NewReader("busy")),
			}, nil
		}
		return invoker(ctx, req)
	}

	c := newTestClient(t, agent, WithInterceptors(RetryInterceptor(fastRetry(3)), flaky))
	reply, err := c.SendMessage(t.Context(), salut())
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got, want := reply.Text(" "), "SALUT"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if got := agent.posts.Load(); got != 1 {
		t.Errorf("agent received %d posts, want 1", got)
	}
}
