// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"code.hybscloud.com/csp/registry"
	"code.hybscloud.com/csp/unit"
)

// parClosure is one child of a parallel join. ref keeps the closure
// referenced until the child has run to its end.
type parClosure struct {
	process *Process
	ref     registry.Handle
}

// parOp runs its closures as child processes and finishes when all of them
// have finished. Children start one per evaluation, in argument order.
type parOp struct {
	Base
	closures []parClosure
	started  int
}

func (op *parOp) Init(args Args) error {
	for i := range args.Len() {
		if !args.IsClosure(i) {
			return args.Error(i, "function closure expected")
		}
	}

	p := op.Process()
	h := p.Host()
	op.closures = make([]parClosure, args.Len())
	for i, fn := range args {
		child := newProcess(h, p)
		p.unit.Push(fn)
		unit.MoveValues(p.unit, child.unit, 1)
		op.closures[i] = parClosure{
			process: child,
			ref:     h.registry.Acquire(fn),
		}
	}
	return nil
}

func (op *parOp) Evaluate(h *Host) WorkResult {
	finished := true

	if op.started < len(op.closures) {
		child := op.closures[op.started].process
		op.started++
		if op.started < len(op.closures) {
			h.PushEvalStep(op.Process())
			finished = false
		}
		child.Evaluate(h)
	}

	if !op.checkFinished(h) {
		finished = false
	}
	if finished && !op.IsFinished() {
		op.SetFinished(true)
	}
	if op.IsFinished() {
		return Finish
	}
	return Yield
}

func (op *parOp) Work(h *Host, dt Time) WorkResult {
	for i := range op.started {
		if child := op.closures[i].process; child.IsRunning() {
			child.Work(h, dt)
		}
	}
	if op.IsFinished() {
		return Finish
	}
	return Yield
}

func (op *parOp) Terminate(h *Host) {
	for i := range op.closures {
		c := &op.closures[i]
		c.process.Terminate(h)
		release(h.registry, &c.ref)
	}
	op.SetFinished(true)
}

// checkFinished releases the closure of every started child that ended and
// reports whether all started children ended.
func (op *parOp) checkFinished(h *Host) bool {
	finished := true
	for i := range op.started {
		c := &op.closures[i]
		if c.process.IsRunning() {
			finished = false
			continue
		}
		release(h.registry, &c.ref)
	}
	return finished
}
