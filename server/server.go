// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server composes an A2A agent server: task store, request handler and HTTP binding.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/config"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/handler"
	"github.com/go-a2a/a2a-agent/server/task"
)

const tracerName = "github.com/go-a2a/a2a-agent/server"

// Server serves one agent over HTTP. It owns the task store it opened.
type Server struct {
	cfg      *config.Config
	card     *a2a.AgentCard
	executor agent_execution.AgentExecutor

	store      task.TaskStore
	ownsStore  bool
	handler    *handler.DefaultRequestHandler
	rpc        *handler.JSONRPCHandler
	registry   *prometheus.Registry
	httpServer *http.Server

	callContextBuilder handler.CallContextBuilder
	logger             *slog.Logger
	tracer             trace.Tracer
}

// New creates a Server for executor described by card. The task store is opened as configured
// unless one is given with WithTaskStore.
func New(ctx context.Context, cfg *config.Config, executor agent_execution.AgentExecutor, card *a2a.AgentCard, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if executor == nil {
		return nil, fmt.Errorf("agent executor cannot be nil")
	}
	if card == nil {
		return nil, fmt.Errorf("agent card cannot be nil")
	}

	s := &Server{
		cfg:      cfg,
		card:     card,
		executor: executor,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		store, err := openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.ownsStore = true
	}
	if err := s.store.Initialize(ctx); err != nil {
		s.closeStore(ctx)
		return nil, fmt.Errorf("initialize task store: %w", err)
	}

	if err := s.compose(); err != nil {
		s.closeStore(ctx)
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     s.rpc,
		ReadTimeout: cfg.Server.ReadTimeout.Duration(),
		// streaming responses stay open as long as the agent runs
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s, nil
}

func (s *Server) compose() error {
	handlerOpts := []handler.DefaultRequestHandlerOption{
		handler.WithQueueSize(s.cfg.Server.QueueSize),
		handler.WithLogger(s.logger),
		handler.WithTracer(s.tracer),
	}
	rpcOpts := []handler.JSONRPCHandlerOption{
		handler.WithHTTPLogger(s.logger),
		handler.WithHTTPTracer(s.tracer),
	}
	if s.callContextBuilder != nil {
		rpcOpts = append(rpcOpts, handler.WithCallContextBuilder(s.callContextBuilder))
	}

	if s.cfg.Metrics.IsEnabled() {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := handler.NewMetrics(s.registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		handlerOpts = append(handlerOpts, handler.WithMetrics(m))
		rpcOpts = append(rpcOpts, handler.WithHTTPMetrics(m), handler.WithGatherer(s.registry))
	}

	h, err := handler.NewDefaultRequestHandler(s.executor, s.store, handlerOpts...)
	if err != nil {
		return fmt.Errorf("create request handler: %w", err)
	}
	rpc, err := handler.NewJSONRPCHandler(h, s.card, rpcOpts...)
	if err != nil {
		return fmt.Errorf("create json-rpc handler: %w", err)
	}
	s.handler = h
	s.rpc = rpc
	return nil
}

// openStore opens the task store selected by cfg.
func openStore(cfg config.StoreConfig) (task.TaskStore, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return task.NewInMemoryTaskStore(), nil
	case config.StoreSQLite:
		db, err := task.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return task.NewDatabaseTaskStore(task.DatabaseTaskStoreConfig{
			DB:          db,
			TableName:   cfg.TableName,
			CreateTable: true,
		})
	default:
		return nil, fmt.Errorf("unknown task store driver %q", cfg.Driver)
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.rpc
}

// RequestHandler returns the request handler the HTTP binding dispatches to.
func (s *Server) RequestHandler() handler.RequestHandler {
	return s.handler
}

// Card returns the agent card the server publishes.
func (s *Server) Card() *a2a.AgentCard {
	return s.card
}

// TaskStore returns the task store of the server.
func (s *Server) TaskStore() task.TaskStore {
	return s.store
}

// Registry returns the Prometheus registry of the server, or nil when metrics are disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("serving agent",
		slog.String("name", s.card.Name),
		slog.String("addr", ln.Addr().String()),
		slog.String("url", s.card.URL),
		slog.String("store", s.cfg.Store.Driver),
		slog.Bool("metrics", s.registry != nil),
	)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is done and closes the
// task store the server opened.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.closeStore(ctx); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func (s *Server) closeStore(ctx context.Context) error {
	if !s.ownsStore || s.store == nil {
		return nil
	}
	if err := s.store.Close(ctx); err != nil {
		return fmt.Errorf("close task store: %w", err)
	}
	return nil
}
