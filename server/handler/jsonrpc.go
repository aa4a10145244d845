// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/sse"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
)

// DefaultMaxBodyBytes bounds the size of a JSON-RPC request body.
const DefaultMaxBodyBytes = 10 << 20

// CallContextBuilder builds the ServerCallContext of an incoming HTTP request.
type CallContextBuilder interface {
	Build(r *http.Request) *agent_execution.ServerCallContext
}

// DefaultCallContextBuilder records the remote address and user agent of the request for an
// unauthenticated user.
type DefaultCallContextBuilder struct{}

var _ CallContextBuilder = DefaultCallContextBuilder{}

// Build implements [CallContextBuilder].
func (DefaultCallContextBuilder) Build(r *http.Request) *agent_execution.ServerCallContext {
	return agent_execution.NewServerCallContext(agent_execution.UnauthenticatedUser{}, map[string]any{
		agent_execution.StateRemoteAddr: r.RemoteAddr,
		agent_execution.StateUserAgent:  r.UserAgent(),
	})
}

// JSONRPCHandler binds a RequestHandler to HTTP. It serves the agent card and answers JSON-RPC 2.0
// requests, streaming message/stream responses as Server-Sent Events.
type JSONRPCHandler struct {
	handler        RequestHandler
	card           *a2a.AgentCard
	contextBuilder CallContextBuilder
	gatherer       prometheus.Gatherer
	metrics        *Metrics
	maxBodyBytes   int64
	logger         *slog.Logger
	tracer         trace.Tracer

	router chi.Router
}

var _ http.Handler = (*JSONRPCHandler)(nil)

// JSONRPCHandlerOption defines a function type for configuring JSONRPCHandler.
type JSONRPCHandlerOption func(*JSONRPCHandler)

// WithCallContextBuilder sets the builder of the per-request ServerCallContext.
func WithCallContextBuilder(b CallContextBuilder) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.contextBuilder = b
	}
}

// WithGatherer exposes the metrics of g at [a2a.MetricsPath].
func WithGatherer(g prometheus.Gatherer) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.gatherer = g
	}
}

// WithHTTPMetrics sets the metrics the HTTP layer records to.
func WithHTTPMetrics(m *Metrics) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.metrics = m
	}
}

// WithMaxBodyBytes bounds the size of request bodies.
func WithMaxBodyBytes(n int64) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.maxBodyBytes = n
	}
}

// WithHTTPLogger sets the [*slog.Logger] of the HTTP layer.
func WithHTTPLogger(logger *slog.Logger) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.logger = logger
	}
}

// WithHTTPTracer sets the [trace.Tracer] of the HTTP layer.
func WithHTTPTracer(tracer trace.Tracer) JSONRPCHandlerOption {
	return func(h *JSONRPCHandler) {
		h.tracer = tracer
	}
}

// NewJSONRPCHandler creates a new JSONRPCHandler serving card and dispatching to handler.
func NewJSONRPCHandler(handler RequestHandler, card *a2a.AgentCard, opts ...JSONRPCHandlerOption) (*JSONRPCHandler, error) {
	if handler == nil {
		return nil, fmt.Errorf("request handler cannot be nil")
	}
	if card == nil {
		return nil, fmt.Errorf("agent card cannot be nil")
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}

	h := &JSONRPCHandler{
		handler:        handler,
		card:           card,
		contextBuilder: DefaultCallContextBuilder{},
		maxBodyBytes:   DefaultMaxBodyBytes,
		logger:         slog.Default(),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h, nil
}

func (h *JSONRPCHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get(a2a.AgentCardWellKnownPath, h.serveCard)
	r.Get(a2a.AgentCardAlternatePath, h.serveCard)
	r.Post(a2a.DefaultRPCURL, h.serveRPC)
	if h.gatherer != nil {
		r.Method(http.MethodGet, a2a.MetricsPath, promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements [http.Handler].
func (h *JSONRPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *JSONRPCHandler) serveCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, h.card); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write agent card", slog.Any("error", err))
	}
}

func (h *JSONRPCHandler) serveRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req a2a.JSONRPCRequest
	if err := json.UnmarshalRead(http.MaxBytesReader(w, r.Body, h.maxBodyBytes), &req); err != nil {
		h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(nil, fmt.Errorf("%w: %w", a2a.ErrParse, err)))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
		return
	}

	callCtx := h.contextBuilder.Build(r)
	callCtx.SetState(agent_execution.StateMethod, req.Method)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("rpc.method", req.Method))

	switch req.Method {
	case a2a.MethodMessageSend:
		params, err := decodeParams[a2a.MessageSendParams](&req)
		if err != nil {
			h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
			return
		}
		msg, err := h.handler.OnMessageSend(ctx, callCtx, params)
		h.writeResult(ctx, w, req.ID, msg, err)

	case a2a.MethodMessageStream:
		if !h.card.Capabilities.Streaming {
			h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID,
				fmt.Errorf("%w: agent does not support streaming", a2a.ErrUnsupportedOperation)))
			return
		}
		params, err := decodeParams[a2a.MessageSendParams](&req)
		if err != nil {
			h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
			return
		}
		h.stream(ctx, w, &req, callCtx, params)

	case a2a.MethodTasksCancel:
		params, err := decodeParams[a2a.TaskIDParams](&req)
		if err != nil {
			h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
			return
		}
		t, err := h.handler.OnCancelTask(ctx, callCtx, params)
		h.writeResult(ctx, w, req.ID, t, err)

	case a2a.MethodTasksGet:
		params, err := decodeParams[a2a.TaskQueryParams](&req)
		if err != nil {
			h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
			return
		}
		t, err := h.handler.OnGetTask(ctx, callCtx, params)
		h.writeResult(ctx, w, req.ID, t, err)

	default:
		h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID,
			fmt.Errorf("%w: %s", a2a.ErrMethodNotFound, req.Method)))
	}
}

func (h *JSONRPCHandler) stream(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) {
	events, err := h.handler.OnMessageSendStream(ctx, callCtx, params)
	if err != nil {
		h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(req.ID, err))
		return
	}

	enc := sse.NewEncoder(w)
	for ev, err := range events {
		var resp *a2a.JSONRPCResponse
		if err != nil {
			resp = a2a.NewJSONRPCErrorResponse(req.ID, err)
		} else if resp, err = a2a.NewJSONRPCResponse(req.ID, ev.StreamEvent()); err != nil {
			resp = a2a.NewJSONRPCErrorResponse(req.ID, fmt.Errorf("%w: %w", a2a.ErrInternal, err))
		}

		data, err := json.Marshal(resp)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to encode stream event", slog.Any("error", err))
			return
		}
		if err := enc.Encode(&sse.Event{Data: string(data)}); err != nil {
			h.logger.DebugContext(ctx, "stream consumer went away", slog.Any("error", err))
			return
		}
		if resp.Error != nil {
			return
		}
	}
}

func (h *JSONRPCHandler) writeResult(ctx context.Context, w http.ResponseWriter, id, result any, err error) {
	if err != nil {
		h.writeResponse(ctx, w, a2a.NewJSONRPCErrorResponse(id, err))
		return
	}
	resp, err := a2a.NewJSONRPCResponse(id, result)
	if err != nil {
		resp = a2a.NewJSONRPCErrorResponse(id, fmt.Errorf("%w: %w", a2a.ErrInternal, err))
	}
	h.writeResponse(ctx, w, resp)
}

func (h *JSONRPCHandler) writeResponse(ctx context.Context, w http.ResponseWriter, resp *a2a.JSONRPCResponse) {
	if resp.Error != nil {
		h.logger.DebugContext(ctx, "json-rpc request failed",
			slog.Int("code", resp.Error.Code),
			slog.String("message", resp.Error.Message),
			slog.Any("data", resp.Error.Data),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.MarshalWrite(w, resp); err != nil {
		h.logger.ErrorContext(ctx, "failed to write json-rpc response", slog.Any("error", err))
	}
}

// paramsSources returns the candidate params members of req in resolution order.
func paramsSources(req *a2a.JSONRPCRequest) []jsontext.Value {
	return []jsontext.Value{req.Params, req.LegacyParams}
}

// validatable is satisfied by every params type.
type validatable[T any] interface {
	*T
	Validate() error
}

// decodeParams resolves the params of req: the first source that decodes and validates wins.
func decodeParams[T any, PT validatable[T]](req *a2a.JSONRPCRequest) (*T, error) {
	var errs []error
	for _, raw := range paramsSources(req) {
		if len(raw) == 0 {
			continue
		}
		v := PT(new(T))
		if err := json.Unmarshal(raw, v); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		return v, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s request has no params", a2a.ErrMalformedRequest, req.Method)
	}
	return nil, fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, errors.Join(errs...))
}

// responseWriter records the status code of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements [http.Flusher] for SSE streaming.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// observe traces each HTTP request and counts it by chi route pattern.
func (h *JSONRPCHandler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := h.tracer.Start(r.Context(), "http.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
			),
		)
		defer span.End()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(wrapped, r)

		span.SetAttributes(
			attribute.Int("http.status_code", wrapped.statusCode),
			attribute.Int64("http.duration_ms", time.Since(start).Milliseconds()),
		)
		if wrapped.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
		}
		h.metrics.observeHTTP(r.Method, routePattern(r), wrapped.statusCode)
	})
}

// routePattern returns the matched chi route pattern, or the raw path outside chi.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
