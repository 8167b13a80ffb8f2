// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"context"
	"errors"
	"log/slog"

	"code.hybscloud.com/csp/registry"
	"code.hybscloud.com/csp/unit"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Host owns simulation time, the ready queue and the root processes.
// A host and everything reachable from it must be used from one goroutine.
type Host struct {
	id        uuid.UUID
	time      Time
	ready     queue
	roots     []*Process
	registry  *registry.Registry
	namespace Namespace
	config    Config
	failures  uint64
	closed    bool
}

// Initialize creates a host with the standard operations registered.
func Initialize(opts ...Option) *Host {
	cfg := DefaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = DefaultConfig.Tracer
	}
	h := &Host{
		id:        uuid.New(),
		registry:  registry.New(),
		namespace: make(Namespace),
		config:    cfg,
	}
	h.config.Logger = cfg.Logger.With("host", h.id.String())
	RegisterStandardOperations(h.namespace)
	return h
}

// Shutdown terminates every root process and drops pending evaluations.
// The host cannot start processes afterwards.
func Shutdown(h *Host) {
	if h.closed {
		return
	}
	for _, p := range h.roots {
		p.Terminate(h)
	}
	h.roots = nil
	h.ready.Reset()
	h.closed = true
	if live := h.registry.Live(); live != 0 {
		h.Logger().Warn("handles still live at shutdown", "live", live)
	}
}

// ID returns the host identifier.
func (h *Host) ID() uuid.UUID {
	return h.id
}

// Time returns the current simulation time.
func (h *Host) Time() Time {
	return h.time
}

// Registry returns the handle registry operations keep values alive in.
func (h *Host) Registry() *registry.Registry {
	return h.registry
}

// Namespace returns the operations scripts can call.
func (h *Host) Namespace() Namespace {
	return h.namespace
}

// Logger returns the host logger.
func (h *Host) Logger() *slog.Logger {
	return h.config.Logger
}

// Go starts fn as a root process with args. The process is first evaluated
// on the next scheduling pass.
func (h *Host) Go(fn any, args ...any) (*Process, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	if !IsClosure(fn) {
		return nil, ErrNotClosure
	}
	p := newProcess(h, nil)
	p.unit.Push(fn)
	p.unit.Push(args...)
	p.setArgs(len(args))
	h.roots = append(h.roots, p)
	h.PushEvalStep(p)
	return p, nil
}

// Running reports whether any root process is still running.
func (h *Host) Running() bool {
	for _, p := range h.roots {
		if p.IsRunning() {
			return true
		}
	}
	return false
}

// PushEvalStep queues p for evaluation in the current or next scheduling
// pass. Queuing a process twice is harmless.
func (h *Host) PushEvalStep(p *Process) {
	h.ready.Push(p)
}

// Evaluate runs one scheduling pass: it drains the ready queue, including
// processes queued during the pass. It returns the number of evaluations.
func (h *Host) Evaluate() int {
	n := 0
	for h.ready.Len() > 0 {
		if limit := h.config.MaxEvaluations; limit > 0 && n >= limit {
			h.Logger().Warn("scheduling pass limit reached", "evaluations", n, "queued", h.ready.Len())
			break
		}
		p := h.ready.Pop()
		p.Evaluate(h)
		n++
	}
	h.reap()
	return n
}

// Tick advances simulation time by dt, works every running root process
// and runs a scheduling pass.
func (h *Host) Tick(dt Time) {
	h.TickContext(context.Background(), dt)
}

// TickContext is Tick with a parent context for the tick span.
func (h *Host) TickContext(ctx context.Context, dt Time) {
	_, span := h.config.Tracer.Start(ctx, "csp.tick", trace.WithAttributes(
		attribute.String("csp.host", h.id.String()),
		attribute.Float64("csp.time", h.time+dt),
		attribute.Float64("csp.dt", dt),
	))
	defer span.End()

	h.time += dt
	for _, p := range h.roots {
		if p.IsRunning() {
			p.Work(h, dt)
		}
	}
	failures := h.failures
	n := h.Evaluate()
	span.SetAttributes(
		attribute.Int("csp.evaluations", n),
		attribute.Int("csp.roots", len(h.roots)),
	)
	if h.failures != failures {
		span.SetStatus(codes.Error, "process failed")
	}
}

// Run evaluates pending processes, then ticks by dt until no root process
// is running or maxTicks ticks have run. maxTicks <= 0 means no limit.
// It returns the number of ticks run.
func (h *Host) Run(dt Time, maxTicks int) int {
	h.Evaluate()
	ticks := 0
	for h.Running() && (maxTicks <= 0 || ticks < maxTicks) {
		h.Tick(dt)
		ticks++
	}
	return ticks
}

// Failures returns the number of processes that ended with an error other
// than termination.
func (h *Host) Failures() uint64 {
	return h.failures
}

func (h *Host) processFailed(p *Process, op string, err error) {
	if errors.Is(err, unit.ErrTerminated) {
		return
	}
	h.failures++
	if op != "" {
		h.Logger().Warn("process failed", "process", p.id, "op", op, "err", err)
		return
	}
	h.Logger().Warn("process failed", "process", p.id, "err", err)
}

// reap drops finished root processes.
func (h *Host) reap() {
	kept := h.roots[:0]
	for _, p := range h.roots {
		if p.IsRunning() {
			kept = append(kept, p)
		}
	}
	clear(h.roots[len(kept):])
	h.roots = kept
}
