// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "code.hybscloud.com/csp/registry"

// OutputSource is a sender implemented by host code rather than a script.
//
// Update runs once per tick; returning Finish ends the source. While
// IsOutputReady reports true the source waits on its channel like a script
// sender. At a rendezvous PushOutputArguments pushes the values to deliver
// and returns how many it pushed.
type OutputSource interface {
	IsOutputReady() bool
	Update(dt Time) WorkResult
	PushOutputArguments(sink ArgSink) int
}

// ArgSink receives the values of a rendezvous.
type ArgSink interface {
	Push(values ...any)
}

// handleSink keeps pushed values in registry handles.
type handleSink struct {
	registry *registry.Registry
	handles  []registry.Handle
}

func (s *handleSink) Push(values ...any) {
	for _, v := range values {
		s.handles = append(s.handles, s.registry.Acquire(v))
	}
}

// sourceOp runs an OutputSource on a channel inside a script process. It
// sends as long as the source produces and ends when the source finishes
// or the channel closes.
type sourceOp struct {
	Base
	channel  *Channel
	source   OutputSource
	attached bool
}

func (op *sourceOp) Init(args Args) error {
	ch, ok := args.Channel(0)
	if !ok {
		return args.Error(0, "channel expected")
	}
	src, ok := args.At(1).(OutputSource)
	if !ok || src == nil {
		return args.Error(1, "output source expected")
	}
	if args.Len() > 2 {
		return &ArgError{Msg: "exactly two arguments expected"}
	}
	op.source = src
	if ch.Closed() {
		op.SetFinished(true)
		return nil
	}
	op.channel = ch
	return nil
}

func (op *sourceOp) Evaluate(h *Host) WorkResult {
	op.offer(h)
	if op.IsFinished() {
		return Finish
	}
	return Yield
}

func (op *sourceOp) Work(h *Host, dt Time) WorkResult {
	if op.source.Update(dt) == Finish {
		op.detach()
		return Finish
	}
	op.offer(h)
	if op.IsFinished() {
		return Finish
	}
	return Yield
}

// offer makes a ready source eligible for a rendezvous, communicating at
// once when a receiver waits and no sender is ahead.
func (op *sourceOp) offer(h *Host) {
	ch := op.channel
	if ch == nil || !op.source.IsOutputReady() {
		return
	}
	if ch.canCommunicate(op) {
		op.Communicate(h)
		return
	}
	if !op.attached {
		ch.attachOut(op)
		op.attached = true
	}
}

func (op *sourceOp) Communicate(h *Host) {
	ch := op.channel
	in := ch.in
	invariant(in != nil, "communicate without a receiver")
	op.detach()

	sink := handleSink{registry: h.registry}
	n := op.source.PushOutputArguments(&sink)
	invariant(n == len(sink.handles), "source declared %d values, pushed %d", n, len(sink.handles))
	in.MoveChannelArguments(h, ch, sink.handles)
	h.PushEvalStep(in.ProcessToEvaluate())

	if op.source.IsOutputReady() && !ch.Closed() {
		ch.attachOut(op)
		op.attached = true
	}
}

func (op *sourceOp) CloseChannel(h *Host, _ *Channel) {
	op.attached = false
	op.channel = nil
	op.SetFinished(true)
	h.PushEvalStep(op.Process())
}

func (op *sourceOp) Terminate(*Host) {
	op.detach()
	op.channel = nil
	op.SetFinished(true)
}

func (op *sourceOp) detach() {
	if op.attached {
		op.channel.detachOut(op)
		op.attached = false
	}
}
