// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/agent/uppercase"
	"github.com/go-a2a/a2a-agent/client"
	"github.com/go-a2a/a2a-agent/config"
	"github.com/go-a2a/a2a-agent/server/task"
)

func testConfig(mutate func(*config.Config)) *config.Config {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()

	var s *Server
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	var err error
	s, err = New(t.Context(), cfg, uppercase.NewExecutor(uppercase.WithDelay(0)), uppercase.Card(ts.URL+"/"), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, ts
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg      *config.Config
		executor bool
		card     *a2a.AgentCard
		wantErr  bool
	}{
		"success": {
			cfg:      testConfig(nil),
			executor: true,
			card:     uppercase.Card("http://localhost:9999/"),
		},
		"error: nil config": {
			executor: true,
			card:     uppercase.Card("http://localhost:9999/"),
			wantErr:  true,
		},
		"error: invalid config": {
			cfg:      testConfig(func(c *config.Config) { c.Store.Driver = "redis" }),
			executor: true,
			card:     uppercase.Card("http://localhost:9999/"),
			wantErr:  true,
		},
		"error: nil executor": {
			cfg:     testConfig(nil),
			card:    uppercase.Card("http://localhost:9999/"),
			wantErr: true,
		},
		"error: nil card": {
			cfg:      testConfig(nil),
			executor: true,
			wantErr:  true,
		},
		"error: invalid card": {
			cfg:      testConfig(nil),
			executor: true,
			card:     &a2a.AgentCard{Name: "no url"},
			wantErr:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var executor *uppercase.Executor
			if tt.executor {
				executor = uppercase.NewExecutor()
			}
			var err error
			if executor == nil {
				_, err = New(t.Context(), tt.cfg, nil, tt.card)
			} else {
				_, err = New(t.Context(), tt.cfg, executor, tt.card)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServer_Stores(t *testing.T) {
	tests := map[string]struct {
		cfg *config.Config
	}{
		"memory": {
			cfg: testConfig(nil),
		},
		"sqlite": {
			cfg: testConfig(func(c *config.Config) {
				c.Store.Driver = config.StoreSQLite
				c.Store.DSN = "file::memory:"
			}),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, ts := newTestServer(t, tt.cfg)
			ctx := t.Context()

			c, err := client.NewFromBaseURL(ctx, ts.URL)
			if err != nil {
				t.Fatalf("NewFromBaseURL() error = %v", err)
			}
			reply, err := c.SendMessage(ctx, &a2a.MessageSendParams{Message: a2a.NewUserTextMessage("salut")})
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}
			if diff := cmp.Diff("SALUT", reply.Text(" ")); diff != "" {
				t.Errorf("reply mismatch (-want +got):\n%s", diff)
			}

			stored, err := s.TaskStore().Get(ctx, reply.TaskID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if stored.Status.State != a2a.TaskStateCompleted {
				t.Errorf("task state = %q, want %q", stored.Status.State, a2a.TaskStateCompleted)
			}
		})
	}
}

func TestServer_Streaming(t *testing.T) {
	_, ts := newTestServer(t, testConfig(nil))

	c, err := client.NewFromBaseURL(t.Context(), ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	var text strings.Builder
	for ev, err := range c.SendMessageStreaming(t.Context(), &a2a.MessageSendParams{Message: a2a.NewUserTextMessage("salut")}) {
		if err != nil {
			t.Fatalf("stream error = %v", err)
		}
		text.WriteString(ev.Text())
	}
	if diff := cmp.Diff("SALUT", text.String()); diff != "" {
		t.Errorf("streamed text mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_Metrics(t *testing.T) {
	tests := map[string]struct {
		enabled    bool
		wantStatus int
	}{
		"enabled": {
			enabled:    true,
			wantStatus: http.StatusOK,
		},
		"disabled": {
			enabled:    false,
			wantStatus: http.StatusNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, ts := newTestServer(t, testConfig(func(c *config.Config) { c.Metrics.Enabled = &tt.enabled }))
			if (s.Registry() != nil) != tt.enabled {
				t.Fatalf("Registry() = %v, want metrics enabled %t", s.Registry(), tt.enabled)
			}

			resp, err := http.Get(ts.URL + a2a.MetricsPath)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.enabled && !strings.Contains(string(body), "go_goroutines") {
				t.Errorf("metrics output lacks runtime metrics:\n%s", body)
			}
		})
	}
}

func TestServer_WithTaskStore(t *testing.T) {
	store := task.NewInMemoryTaskStore()
	s, _ := newTestServer(t, testConfig(nil), WithTaskStore(store))

	if s.TaskStore() != store {
		t.Fatal("TaskStore() does not return the given store")
	}
	if err := s.Shutdown(t.Context()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := store.Save(t.Context(), mustTask(t)); err != nil {
		t.Errorf("given store was closed by Shutdown: %v", err)
	}
}

func mustTask(t *testing.T) *a2a.Task {
	t.Helper()
	tk, err := a2a.NewTask(a2a.NewUserTextMessage("salut"))
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestServer_ServeShutdown(t *testing.T) {
	s, err := New(t.Context(), testConfig(nil), uppercase.NewExecutor(uppercase.WithDelay(0)), uppercase.Card("http://localhost:9999/"))
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + a2a.AgentCardWellKnownPath)
	if err != nil {
		t.Fatalf("GET agent card: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("agent card status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after Shutdown")
	}
	if _, err := net.Dial("tcp", ln.Addr().String()); err == nil {
		t.Error("listener still accepts connections after Shutdown")
	}
}
