// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"fmt"

	"code.hybscloud.com/csp/unit"
)

// Process pairs a computation unit with the operation it is blocked on.
//
// A process is running while it holds an operation, or its unit has not
// started, or its unit's last resume yielded.
type Process struct {
	id     Serial
	unit   *unit.Unit
	parent *Process
	host   *Host
	op     Operation
	args   int
}

// newProcess wraps a fresh unit. The caller pushes the closure and its
// arguments onto the unit and records the argument count with setArgs.
func newProcess(h *Host, parent *Process) *Process {
	var pu *unit.Unit
	if parent != nil {
		pu = parent.unit
	}
	return &Process{
		id:     nextSerial(),
		unit:   unit.New(pu),
		parent: parent,
		host:   h,
	}
}

// ID returns the process serial.
func (p *Process) ID() Serial {
	return p.id
}

// Parent returns the process this one reports completion to, or nil for a
// root process.
func (p *Process) Parent() *Process {
	return p.parent
}

// Host returns the host the process is scheduled on.
func (p *Process) Host() *Host {
	return p.host
}

// Unit returns the computation unit the process runs.
func (p *Process) Unit() *unit.Unit {
	return p.unit
}

// Operation returns the operation the process is blocked on, or nil.
func (p *Process) Operation() Operation {
	return p.op
}

// Err returns the error that ended the process, if any.
func (p *Process) Err() error {
	return p.unit.Err()
}

// IsRunning reports whether the process has work left.
func (p *Process) IsRunning() bool {
	if p.op != nil {
		return true
	}
	s := p.unit.Status()
	return s == unit.Fresh || s == unit.Yield
}

// setArgs records how many values above the closure the first resume
// passes to it.
func (p *Process) setArgs(n int) {
	p.args = n
}

// Evaluate drives progress that consumes no simulation time.
// It reports Yield while the process waits, Finish once its unit ended.
func (p *Process) Evaluate(h *Host) WorkResult {
	if !p.IsRunning() {
		return Finish
	}

	n := p.args
	p.args = 0
	if p.op != nil {
		result := Finish
		if !p.op.IsFinished() {
			result = p.op.Evaluate(h)
		}
		if result != Finish {
			return Yield
		}
		results := p.op.PushResults()
		p.switchOperation(nil)
		p.unit.Push(results...)
		n = len(results)
	}

	switch p.unit.Resume(n) {
	case unit.Yield:
		if p.suspend(h) {
			h.PushEvalStep(p)
			return Yield
		}
	case unit.ErrRun:
		h.processFailed(p, "", p.unit.Err())
	}

	if p.parent != nil {
		h.PushEvalStep(p.parent)
	}
	return Finish
}

// suspend turns the unit's pending effect into the operation the process
// blocks on. On a rejected call the unit fails with the error and suspend
// reports false.
func (p *Process) suspend(h *Host) bool {
	call, ok := p.unit.Pending().(Call)
	if !ok {
		p.unit.Fail(fmt.Errorf("%w: %T", ErrUnhandledEffect, p.unit.Pending()))
		h.processFailed(p, "", p.unit.Err())
		return false
	}
	newOp, ok := h.namespace[call.Name]
	if !ok || newOp == nil {
		p.unit.Fail(fmt.Errorf("%w: %q", ErrUnknownOperation, call.Name))
		h.processFailed(p, call.Name, p.unit.Err())
		return false
	}

	op := newOp()
	op.SetProcess(p)
	if err := op.Init(Args(call.Args)); err != nil {
		var argErr *ArgError
		if errors.As(err, &argErr) && argErr.Op == "" {
			argErr.Op = call.Name
		}
		p.unit.Fail(err)
		h.processFailed(p, call.Name, err)
		return false
	}
	p.switchOperation(op)
	return true
}

// Work drives time-consuming progress once per tick.
func (p *Process) Work(h *Host, dt Time) {
	if p.op == nil || p.op.IsFinished() {
		return
	}
	if p.op.Work(h, dt) == Finish {
		p.op.SetFinished(true)
		invariant(p.unit.Status() == unit.Yield, "process %d finished work while %v", p.id, p.unit.Status())
		h.PushEvalStep(p)
	}
}

// Terminate stops the process and releases its operation. It is safe to
// call more than once.
func (p *Process) Terminate(h *Host) {
	if p.op != nil {
		p.op.Terminate(h)
		p.switchOperation(nil)
	}
	p.unit.Terminate()
}

func (p *Process) switchOperation(op Operation) {
	p.op = op
}
