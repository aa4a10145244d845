// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements an A2A client: agent card resolution and the JSON-RPC task methods,
// including streaming over Server-Sent Events.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"mime"
	"net/http"
	"sync/atomic"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/internal/sse"
)

const tracerName = "github.com/go-a2a/a2a-agent/client"

// maxErrorBody bounds how much of a failed response body is kept in a RequestFailedError.
const maxErrorBody = 64 << 10

// Client talks to one agent over JSON-RPC. It is safe for concurrent use.
type Client struct {
	card         *a2a.AgentCard
	url          string
	httpClient   *http.Client
	interceptors []Interceptor
	invoker      Invoker
	newRequestID func() string
	logger       *slog.Logger
	tracer       trace.Tracer
}

func newClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   http.DefaultClient,
		newRequestID: uuid.NewString,
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.invoker = chainInterceptors(c.interceptors, func(_ context.Context, req *http.Request) (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	return c
}

// NewClient creates a Client for the agent described by card. Requests go to card.URL.
func NewClient(card *a2a.AgentCard, opts ...Option) (*Client, error) {
	if card == nil {
		return nil, fmt.Errorf("%w: agent card cannot be nil", a2a.ErrCardUnavailable)
	}
	if card.URL == "" {
		return nil, fmt.Errorf("%w: agent card has no url", a2a.ErrCardUnavailable)
	}
	c := newClient(opts...)
	c.card = card
	c.url = card.URL
	return c, nil
}

// NewFromBaseURL resolves the agent card published at baseURL and creates a Client for it.
// The card request goes through the client's interceptors. No task request is made when the
// card cannot be resolved.
func NewFromBaseURL(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	c := newClient(opts...)
	resolver := NewCardResolver(baseURL, c.httpClient)
	resolver.invoke = c.invoker
	card, err := resolver.GetAgentCard(ctx, "")
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "resolved agent card", slog.String("name", card.Name), slog.String("url", card.URL))
	return NewClient(card, opts...)
}

// Card returns the agent card of the client.
func (c *Client) Card() *a2a.AgentCard {
	return c.card
}

// SendMessage sends a message and waits for the agent's reply.
func (c *Client) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (*a2a.Message, error) {
	var msg a2a.Message
	if err := c.call(ctx, a2a.MethodMessageSend, params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CancelTask requests cancellation of a task.
func (c *Client) CancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	var t a2a.Task
	if err := c.call(ctx, a2a.MethodTasksCancel, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask retrieves a task.
func (c *Client) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	var t a2a.Task
	if err := c.call(ctx, a2a.MethodTasksGet, params, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SendMessageStreaming sends a message and returns the agent's events as they arrive.
//
// The request is sent when iteration starts. The sequence can be ranged over once; breaking out
// of the loop closes the response and cancels the request. A JSON-RPC error ends the sequence
// with an *a2a.Error.
func (c *Client) SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams) iter.Seq2[*a2a.StreamEvent, error] {
	var started atomic.Bool
	return func(yield func(*a2a.StreamEvent, error) bool) {
		if !started.CompareAndSwap(false, true) {
			yield(nil, fmt.Errorf("message stream has already been consumed"))
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		ctx, span := c.startSpan(ctx, a2a.MethodMessageStream)
		var streamErr error
		defer func() { endSpan(span, streamErr) }()

		fail := func(err error) {
			streamErr = err
			yield(nil, err)
		}

		resp, err := c.post(ctx, a2a.MethodMessageStream, params, sse.ContentType)
		if err != nil {
			fail(err)
			return
		}
		defer resp.Body.Close()

		// errors raised before streaming starts come back as a plain JSON-RPC response
		if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != sse.ContentType {
			var out a2a.JSONRPCResponse
			if err := json.UnmarshalRead(resp.Body, &out); err != nil {
				fail(fmt.Errorf("decode %s response: %w", a2a.MethodMessageStream, err))
				return
			}
			if out.Error != nil {
				fail(out.Error)
				return
			}
			fail(fmt.Errorf("%w: %s answered without an event stream", a2a.ErrInternal, a2a.MethodMessageStream))
			return
		}

		for ev, err := range sse.NewDecoder(resp.Body).Events() {
			if err != nil {
				fail(fmt.Errorf("read event stream: %w", err))
				return
			}
			var envelope a2a.JSONRPCResponse
			if err := json.Unmarshal([]byte(ev.Data), &envelope); err != nil {
				fail(fmt.Errorf("decode stream envelope: %w", err))
				return
			}
			se := new(a2a.StreamEvent)
			if err := envelope.DecodeResult(se); err != nil {
				fail(err)
				return
			}
			if !yield(se, nil) {
				return
			}
		}
	}
}

// call performs one unary JSON-RPC call and decodes its result into result.
func (c *Client) call(ctx context.Context, method string, params, result any) (err error) {
	ctx, span := c.startSpan(ctx, method)
	defer func() { endSpan(span, err) }()

	resp, err := c.post(ctx, method, params, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out a2a.JSONRPCResponse
	if err := json.UnmarshalRead(resp.Body, &out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if err := out.DecodeResult(result); err != nil {
		c.logger.DebugContext(ctx, "json-rpc call failed", slog.String("method", method), slog.Any("error", err))
		return err
	}
	return nil
}

// post sends a JSON-RPC request and returns the successful HTTP response.
func (c *Client) post(ctx context.Context, method string, params any, accept string) (*http.Response, error) {
	rpcReq, err := a2a.NewJSONRPCRequest(c.newRequestID(), method, params)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	resp, err := c.invoker(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s request to %s: %w", method, c.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, failedResponse(resp)
	}
	return resp, nil
}

func failedResponse(resp *http.Response) *RequestFailedError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RequestFailedError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

func (c *Client) startSpan(ctx context.Context, method string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "a2a.client."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.method", method),
			attribute.String("a2a.agent", c.card.Name),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
