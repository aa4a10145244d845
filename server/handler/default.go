// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/event"
	"github.com/go-a2a/a2a-agent/server/task"
)

const tracerName = "github.com/go-a2a/a2a-agent/server/handler"

// failureEnqueueTimeout bounds how long publishing a failure event may wait on a full queue.
const failureEnqueueTimeout = 5 * time.Second

// DefaultRequestHandler is the default RequestHandler. It runs one agent execution per request
// in its own goroutine, hands the produced events back through an event queue and keeps the
// task store in step with them.
type DefaultRequestHandler struct {
	executor       agent_execution.AgentExecutor
	store          task.TaskStore
	queueManager   event.QueueManager
	contextBuilder agent_execution.RequestContextBuilder
	queueSize      int
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *Metrics

	mu           sync.Mutex
	runningTasks map[string]context.CancelFunc
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// DefaultRequestHandlerOption defines a function type for configuring DefaultRequestHandler.
type DefaultRequestHandlerOption func(*DefaultRequestHandler)

// WithQueueManager sets the manager tracking the event queues of running tasks.
func WithQueueManager(qm event.QueueManager) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.queueManager = qm
	}
}

// WithRequestContextBuilder sets the builder of the contexts handed to the executor.
func WithRequestContextBuilder(b agent_execution.RequestContextBuilder) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.contextBuilder = b
	}
}

// WithQueueSize bounds the event queue of each execution. Zero means unbounded.
func WithQueueSize(size int) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.queueSize = size
	}
}

// WithLogger sets the [*slog.Logger] for the handler.
func WithLogger(logger *slog.Logger) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the handler.
func WithTracer(tracer trace.Tracer) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.tracer = tracer
	}
}

// WithMetrics sets the metrics the handler records to.
func WithMetrics(m *Metrics) DefaultRequestHandlerOption {
	return func(h *DefaultRequestHandler) {
		h.metrics = m
	}
}

// NewDefaultRequestHandler creates a new DefaultRequestHandler.
func NewDefaultRequestHandler(executor agent_execution.AgentExecutor, store task.TaskStore, opts ...DefaultRequestHandlerOption) (*DefaultRequestHandler, error) {
	if executor == nil {
		return nil, fmt.Errorf("agent executor cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	h := &DefaultRequestHandler{
		executor:     executor,
		store:        store,
		queueManager: event.NewInMemoryQueueManager(),
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
		runningTasks: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.contextBuilder == nil {
		h.contextBuilder = agent_execution.NewSimpleRequestContextBuilder(store)
	}
	if h.queueSize < 0 {
		return nil, event.ErrInvalidQueueSize
	}
	return h, nil
}

// execution is one running agent execution.
type execution struct {
	taskID    string
	contextID string
	reqCtx    *agent_execution.RequestContext
	queue     *event.EventQueue
	cancel    context.CancelFunc
}

// outcome accumulates what a consumer observed while draining an execution.
type outcome struct {
	saw      bool
	terminal event.Event
	reply    *a2a.Message
}

// OnMessageSend implements [RequestHandler].
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (*a2a.Message, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "a2a.OnMessageSend", trace.WithAttributes(attribute.String("a2a.method", a2a.MethodMessageSend)))

	msg, err := h.onMessageSend(ctx, callCtx, params)
	h.metrics.observeRequest(a2a.MethodMessageSend, start, err)
	endSpan(span, err)
	return msg, err
}

func (h *DefaultRequestHandler) onMessageSend(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (*a2a.Message, error) {
	exec, err := h.start(ctx, callCtx, params)
	if err != nil {
		return nil, err
	}
	defer exec.cancel()

	var o outcome
	for ev, err := range exec.queue.Events(ctx) {
		if err != nil {
			h.abandon(ctx, exec, &o)
			return nil, fmt.Errorf("waiting for task %s: %w", exec.taskID, err)
		}
		h.record(ctx, exec, ev, &o)
	}

	if err := h.conclude(ctx, exec, &o); err != nil {
		return nil, err
	}

	final := terminalStatus(o.terminal)
	switch {
	case event.IsFailure(o.terminal):
		return nil, fmt.Errorf("%w: %s", a2a.ErrExecutionFault, final.Message.Text(" "))
	case final.State == a2a.TaskStateCanceled:
		return nil, fmt.Errorf("%w: task %s", a2a.ErrTaskCanceled, exec.taskID)
	case o.reply == nil:
		return nil, fmt.Errorf("%w: task %s finished without a response message", a2a.ErrExecutionFault, exec.taskID)
	}
	return o.reply, nil
}

// OnMessageSendStream implements [RequestHandler].
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (iter.Seq2[event.Event, error], error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "a2a.OnMessageSendStream", trace.WithAttributes(attribute.String("a2a.method", a2a.MethodMessageStream)))

	exec, err := h.start(ctx, callCtx, params)
	if err != nil {
		h.metrics.observeRequest(a2a.MethodMessageStream, start, err)
		endSpan(span, err)
		return nil, err
	}

	return func(yield func(event.Event, error) bool) {
		var streamErr error
		defer func() {
			exec.cancel()
			h.metrics.observeRequest(a2a.MethodMessageStream, start, streamErr)
			endSpan(span, streamErr)
		}()

		var o outcome
		for ev, err := range exec.queue.Events(ctx) {
			if err != nil {
				streamErr = err
				h.abandon(ctx, exec, &o)
				yield(nil, err)
				return
			}
			ev = h.record(ctx, exec, ev, &o)
			if !yield(ev, nil) {
				h.abandon(ctx, exec, &o)
				return
			}
		}

		if streamErr = h.conclude(ctx, exec, &o); streamErr != nil {
			yield(nil, streamErr)
		}
	}, nil
}

// OnCancelTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.TaskIDParams) (*a2a.Task, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "a2a.OnCancelTask", trace.WithAttributes(attribute.String("a2a.method", a2a.MethodTasksCancel)))

	t, err := h.onCancelTask(ctx, callCtx, params)
	h.metrics.observeRequest(a2a.MethodTasksCancel, start, err)
	endSpan(span, err)
	return t, err
}

func (h *DefaultRequestHandler) onCancelTask(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.TaskIDParams) (*a2a.Task, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: cancel params cannot be nil", a2a.ErrMalformedRequest)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("a2a.task_id", params.ID))

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if t.Status.State.IsTerminal() {
		return nil, fmt.Errorf("%w: task %s is already %s", a2a.ErrTaskNotCancelable, t.ID, t.Status.State)
	}

	queue, running := h.queueManager.Get(t.ID)
	if !running {
		queue = event.NewUnboundedEventQueue()
		defer queue.Close()
	}

	reqCtx := agent_execution.NewRequestContext(
		&a2a.MessageSendParams{Message: t.OriginatingMessage(), Metadata: params.Metadata},
		t.ID, t.ContextID,
		agent_execution.WithCurrentTask(t),
		agent_execution.WithCallContext(callCtx),
		agent_execution.WithRequestID(uuid.NewString()),
	)
	if err := h.executor.Cancel(ctx, reqCtx, queue); err != nil {
		h.logger.InfoContext(ctx, "agent declined cancellation", slog.String("task_id", t.ID), slog.Any("error", err))
		return nil, fmt.Errorf("cancel task %s: %w", t.ID, err)
	}

	updater, err := task.NewUpdater(queue, t.ID, t.ContextID)
	if err != nil {
		return nil, fmt.Errorf("cancel task %s: %w", t.ID, err)
	}
	if err := updater.Cancel(ctx, "task canceled"); err != nil && !errors.Is(err, event.ErrQueueClosed) {
		h.logger.WarnContext(ctx, "failed to publish cancellation", slog.String("task_id", t.ID), slog.Any("error", err))
	}

	h.mu.Lock()
	cancel := h.runningTasks[t.ID]
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	canceled, err := h.store.UpdateStatus(ctx, t.ID, a2a.NewTaskStatus(a2a.TaskStateCanceled,
		a2a.NewAgentTextMessage("task canceled", t.ID, t.ContextID)))
	if err != nil {
		if errors.Is(err, a2a.ErrTaskNotUpdatable) {
			return nil, fmt.Errorf("%w: %w", a2a.ErrTaskNotCancelable, err)
		}
		return nil, err
	}
	h.logger.InfoContext(ctx, "task canceled", slog.String("task_id", t.ID))
	return canceled, nil
}

// OnGetTask implements [RequestHandler].
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "a2a.OnGetTask", trace.WithAttributes(attribute.String("a2a.method", a2a.MethodTasksGet)))

	t, err := h.onGetTask(ctx, params)
	h.metrics.observeRequest(a2a.MethodTasksGet, start, err)
	endSpan(span, err)
	return t, err
}

func (h *DefaultRequestHandler) onGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: query params cannot be nil", a2a.ErrMalformedRequest)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, err)
	}

	t, err := h.store.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength != nil {
		t = t.TrimHistory(*params.HistoryLength)
	}
	return t, nil
}

// start resolves the task of the request, registers its event queue and launches the executor.
func (h *DefaultRequestHandler) start(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (*execution, error) {
	var current *a2a.Task
	if params != nil && params.Message != nil && params.Message.TaskID != "" {
		t, err := h.store.Get(ctx, params.Message.TaskID)
		if err != nil {
			return nil, err
		}
		if t.Status.State.IsTerminal() {
			return nil, fmt.Errorf("%w: task %s is already %s", a2a.ErrTaskNotUpdatable, t.ID, t.Status.State)
		}
		current = t
	}

	reqCtx, err := h.contextBuilder.Build(ctx, params, current, callCtx)
	if err != nil {
		return nil, err
	}
	taskID := reqCtx.TaskID()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("a2a.task_id", taskID))

	queue, err := event.NewEventQueue(h.queueSize)
	if err != nil {
		return nil, err
	}
	if err := h.queueManager.Add(taskID, queue); err != nil {
		return nil, fmt.Errorf("%w: task %s is already running: %w", a2a.ErrTaskNotUpdatable, taskID, err)
	}

	t, err := h.prepareTask(ctx, reqCtx, current)
	if err != nil {
		h.queueManager.Close(taskID)
		return nil, err
	}

	execCtx, cancel := context.WithCancel(ctx)
	exec := &execution{
		taskID:    t.ID,
		contextID: t.ContextID,
		reqCtx:    reqCtx,
		queue:     queue,
		cancel:    cancel,
	}

	h.mu.Lock()
	h.runningTasks[taskID] = cancel
	h.mu.Unlock()

	h.metrics.executionStarted()
	h.logger.DebugContext(ctx, "starting agent execution",
		slog.String("task_id", taskID),
		slog.String("context_id", t.ContextID),
		slog.String("request_id", reqCtx.RequestID()),
	)
	go h.run(execCtx, exec)
	return exec, nil
}

// prepareTask creates the task of a new request, or records the message on the continued task,
// and moves it to working.
func (h *DefaultRequestHandler) prepareTask(ctx context.Context, reqCtx *agent_execution.RequestContext, current *a2a.Task) (*a2a.Task, error) {
	msg := reqCtx.Message()
	if current == nil {
		t, err := a2a.NewTask(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, err)
		}
		if err := h.store.Save(ctx, t); err != nil {
			return nil, err
		}
	} else if _, err := h.store.AppendHistory(ctx, current.ID, msg); err != nil {
		return nil, err
	}
	return h.store.UpdateStatus(ctx, reqCtx.TaskID(), a2a.NewTaskStatus(a2a.TaskStateWorking, nil))
}

// run executes the agent. Errors and panics become a failure event; the queue is closed when
// the executor returns.
func (h *DefaultRequestHandler) run(ctx context.Context, exec *execution) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "agent executor panicked", slog.String("task_id", exec.taskID), slog.Any("panic", r))
			h.publishFailure(exec, fmt.Errorf("agent executor panicked: %v", r))
		}
		exec.queue.Close()
		h.queueManager.Close(exec.taskID)

		h.mu.Lock()
		delete(h.runningTasks, exec.taskID)
		h.mu.Unlock()
		exec.cancel()
		h.metrics.executionFinished()
	}()

	err := h.executor.Execute(ctx, exec.reqCtx, exec.queue)
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		h.logger.DebugContext(ctx, "agent execution stopped", slog.String("task_id", exec.taskID), slog.Any("error", err))
	default:
		h.logger.WarnContext(ctx, "agent execution failed", slog.String("task_id", exec.taskID), slog.Any("error", err))
		h.publishFailure(exec, err)
	}
}

func (h *DefaultRequestHandler) publishFailure(exec *execution, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), failureEnqueueTimeout)
	defer cancel()

	if err := exec.queue.Enqueue(ctx, event.NewFailureEvent(exec.taskID, exec.contextID, cause)); err != nil {
		h.logger.WarnContext(ctx, "failed to publish failure event", slog.String("task_id", exec.taskID), slog.Any("error", err))
	}
}

// record applies one event to the task and to the consumer's outcome, and returns the event to
// deliver. Only the first terminal event changes the task status; an invalid one is replaced by a
// failure event so the task still ends.
func (h *DefaultRequestHandler) record(ctx context.Context, exec *execution, ev event.Event, o *outcome) event.Event {
	o.saw = true
	if o.terminal == nil && event.IsTerminal(ev) {
		if err := validateTerminal(ev); err != nil {
			h.logger.WarnContext(ctx, "agent published an invalid terminal event",
				slog.String("task_id", exec.taskID),
				slog.Any("error", err),
			)
			ev = event.NewFailureEvent(exec.taskID, exec.contextID, fmt.Errorf("invalid %s event: %w", ev.EventType(), err))
		}
	}
	h.metrics.observeEvent(ev.EventType())

	switch e := ev.(type) {
	case *event.MessageEvent:
		h.appendHistory(ctx, exec.taskID, e.Message)
		if e.Validate() == nil {
			o.reply = e.Message
		}
		if o.terminal == nil {
			if failure := h.finish(ctx, exec, a2a.NewTaskStatus(a2a.TaskStateCompleted, e.Message)); failure != nil {
				ev = failure
			}
		}
	case *event.TaskStatusUpdateEvent:
		if e.Status.Message != nil && event.IsTerminal(e) {
			h.appendHistory(ctx, exec.taskID, e.Status.Message)
			if e.Status.State == a2a.TaskStateCompleted && e.Status.Message.Validate() == nil {
				o.reply = e.Status.Message
			}
		}
		switch {
		case o.terminal != nil:
		case event.IsTerminal(e):
			if failure := h.finish(ctx, exec, e.Status); failure != nil {
				ev = failure
			}
		default:
			h.setStatus(ctx, exec.taskID, e.Status)
		}
	}

	if o.terminal == nil && event.IsTerminal(ev) {
		o.terminal = ev
	}
	return ev
}

// validateTerminal reports why a terminal event cannot end a task.
func validateTerminal(ev event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if e, ok := ev.(*event.TaskStatusUpdateEvent); ok && !e.Status.State.IsTerminal() {
		return fmt.Errorf("final status update in non-terminal state %q", e.Status.State)
	}
	return nil
}

// finish applies a terminal status. When the store rejects it the task is failed instead, and the
// failure event to deliver in place of the original one is returned. A task that was already
// ended, by a cancellation for instance, is left as is.
func (h *DefaultRequestHandler) finish(ctx context.Context, exec *execution, status a2a.TaskStatus) event.Event {
	err := h.setStatus(ctx, exec.taskID, status)
	if err == nil || errors.Is(err, a2a.ErrTaskNotUpdatable) || status.State == a2a.TaskStateFailed {
		return nil
	}
	failure := event.NewFailureEvent(exec.taskID, exec.contextID, fmt.Errorf("task could not be %s: %w", status.State, err))
	h.setStatus(ctx, exec.taskID, failure.Status)
	return failure
}

// conclude checks that a drained execution ended properly, failing the task when it did not.
func (h *DefaultRequestHandler) conclude(ctx context.Context, exec *execution, o *outcome) error {
	switch {
	case o.terminal == nil && ctx.Err() != nil:
		h.abandon(ctx, exec, o)
		return fmt.Errorf("waiting for task %s: %w", exec.taskID, context.Cause(ctx))
	case !o.saw:
		h.fail(ctx, exec, "agent produced no events")
		return fmt.Errorf("%w: agent produced no events for task %s", a2a.ErrExecutionFault, exec.taskID)
	case o.terminal == nil:
		h.fail(ctx, exec, "agent finished without a terminal event")
		return fmt.Errorf("%w: agent finished task %s without a terminal event", a2a.ErrExecutionFault, exec.taskID)
	}
	return nil
}

// abandon cancels a task whose caller went away before it reached a terminal state.
func (h *DefaultRequestHandler) abandon(ctx context.Context, exec *execution, o *outcome) {
	if o.terminal != nil {
		return
	}
	exec.cancel()
	h.setStatus(ctx, exec.taskID, a2a.NewTaskStatus(a2a.TaskStateCanceled,
		a2a.NewAgentTextMessage("client went away before the task finished", exec.taskID, exec.contextID)))
}

func (h *DefaultRequestHandler) fail(ctx context.Context, exec *execution, reason string) {
	h.setStatus(ctx, exec.taskID, a2a.NewTaskStatus(a2a.TaskStateFailed,
		a2a.NewAgentTextMessage(reason, exec.taskID, exec.contextID)))
}

func (h *DefaultRequestHandler) setStatus(ctx context.Context, taskID string, status a2a.TaskStatus) error {
	_, err := h.store.UpdateStatus(context.WithoutCancel(ctx), taskID, status)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update task status",
			slog.String("task_id", taskID),
			slog.String("state", string(status.State)),
			slog.Any("error", err),
		)
	}
	return err
}

func (h *DefaultRequestHandler) appendHistory(ctx context.Context, taskID string, msg *a2a.Message) {
	if _, err := h.store.AppendHistory(context.WithoutCancel(ctx), taskID, msg); err != nil {
		h.logger.WarnContext(ctx, "failed to append task history", slog.String("task_id", taskID), slog.Any("error", err))
	}
}

func terminalStatus(ev event.Event) a2a.TaskStatus {
	switch e := ev.(type) {
	case *event.TaskStatusUpdateEvent:
		return e.Status
	case *event.MessageEvent:
		return a2a.TaskStatus{State: a2a.TaskStateCompleted, Message: e.Message}
	default:
		return a2a.TaskStatus{}
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
