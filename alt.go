// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "code.hybscloud.com/csp/registry"

type caseKind int

const (
	channelCase caseKind = iota
	deadlineCase
	defaultCase
)

// altCase is one guard and closure pair of an alternation.
type altCase struct {
	kind       caseKind
	closureRef registry.Handle
	channel    *Channel
	channelRef registry.Handle
	deadline   Time
}

// altOp waits on a set of guards and runs the closure of the first one to
// become ready in a child process.
//
// Cases are scanned in argument order. A default case fires as soon as the
// scan reaches it, so it only means "nothing else is ready" when it is
// listed last. Deadlines are absolute simulation times; among expired
// deadlines the earliest wins, ties going to the first in argument order.
type altOp struct {
	Base
	cases          []altCase
	nilCase        int
	triggered      int
	child          *Process
	childRef       registry.Handle
	arguments      []registry.Handle
	argumentsMoved bool
}

func (op *altOp) Init(args Args) error {
	if err := op.checkArgs(args); err != nil {
		return err
	}
	op.initCases(args)
	return nil
}

func (op *altOp) checkArgs(args Args) error {
	if args.Len()%2 != 0 {
		return &ArgError{Msg: "even number of arguments required. (guard+closure) pairs required"}
	}

	nilCase := false
	for i := 0; i < args.Len(); i += 2 {
		if args.IsNil(i) {
			if nilCase {
				return args.Error(i, "there must be just one nil case")
			}
			nilCase = true
		} else if ch, ok := args.Channel(i); ok {
			if ch.InAttached() {
				return args.Error(i, "channel is in input operation already")
			}
			for j := 0; j < i; j += 2 {
				if args.At(j) == any(ch) {
					return args.Error(i, "channel is in input operation already")
				}
			}
		} else if _, ok := args.Number(i); !ok {
			return args.Error(i, "channel, number or nil required as a guard")
		}

		if !args.IsClosure(i + 1) {
			return args.Error(i+1, "closure required")
		}
	}
	return nil
}

func (op *altOp) initCases(args Args) {
	r := op.Process().Host().registry
	op.cases = make([]altCase, args.Len()/2)
	op.nilCase = -1
	op.triggered = -1

	for i := range op.cases {
		guard := args.At(2 * i)
		c := &op.cases[i]
		c.closureRef = r.Acquire(args.At(2*i + 1))

		switch g := guard.(type) {
		case nil:
			c.kind = defaultCase
			op.nilCase = i
		case *Channel:
			c.kind = channelCase
			if g.Closed() {
				op.closeCase(r, c)
				continue
			}
			g.setIn(op)
			c.channel = g
			c.channelRef = r.Acquire(g)
		default:
			c.kind = deadlineCase
			c.deadline, _ = toNumber(guard)
		}
	}
}

func (op *altOp) Evaluate(h *Host) WorkResult {
	if op.triggered < 0 {
		if op.selectChannelCase(h) {
			op.finish()
			return Finish
		}
		return Yield
	}

	switch {
	case op.argumentsMoved:
		op.argumentsMoved = false
		op.startTriggered(h)
		op.releaseArguments(h.registry)
		op.releaseChannels(h.registry)
	case op.child != nil && op.child.IsRunning():
	case op.childRef.Valid():
		release(h.registry, &op.childRef)
		op.finish()
		return Finish
	}
	return Yield
}

func (op *altOp) Work(h *Host, dt Time) WorkResult {
	if op.triggered >= 0 {
		if op.child != nil && op.child.IsRunning() {
			op.child.Work(h, dt)
		}
	} else {
		op.selectDeadlineCase(h)
	}
	if op.IsFinished() {
		return Finish
	}
	return Yield
}

func (op *altOp) Terminate(h *Host) {
	r := h.registry
	if op.child != nil {
		op.child.Terminate(h)
	}
	op.detachChannels()
	op.releaseChannels(r)
	op.releaseArguments(r)
	op.releaseClosures(r)
	release(r, &op.childRef)
	op.SetFinished(true)
}

// selectChannelCase scans the cases in argument order for one that can fire
// now. It reports whether every case is closed for good.
func (op *altOp) selectChannelCase(h *Host) bool {
	invariant(op.triggered < 0, "alt scanned after it triggered")

	allClosed := true
	for i := range op.cases {
		c := &op.cases[i]
		if i == op.nilCase {
			op.trigger(h, i)
			allClosed = false
			break
		}
		if c.channel != nil || c.kind == deadlineCase {
			allClosed = false
		}
		if c.channel != nil && c.channel.OutAttached() {
			c.channel.out[0].Communicate(h)
			break
		}
	}
	return allClosed
}

// selectDeadlineCase triggers the expired deadline case with the earliest
// deadline.
func (op *altOp) selectDeadlineCase(h *Host) {
	invariant(op.triggered < 0, "alt timed out after it triggered")

	now := h.Time()
	selected := -1
	for i := range op.cases {
		c := &op.cases[i]
		if c.kind != deadlineCase || c.deadline > now {
			continue
		}
		if selected < 0 || c.deadline < op.cases[selected].deadline {
			selected = i
		}
	}
	if selected >= 0 {
		op.trigger(h, selected)
	}
}

func (op *altOp) trigger(h *Host, i int) {
	op.triggered = i
	op.argumentsMoved = true
	op.detachChannels()
	h.PushEvalStep(op.Process())
}

// startTriggered runs the triggered case's closure in a child process with
// the values moved by the rendezvous as arguments.
func (op *altOp) startTriggered(h *Host) {
	r := h.registry
	c := &op.cases[op.triggered]
	fn, ok := r.Resolve(c.closureRef)
	invariant(ok, "triggered case lost its closure")

	child := newProcess(h, op.Process())
	op.child = child
	op.childRef = r.Acquire(child)
	child.unit.Push(fn)
	for _, a := range op.arguments {
		v, ok := r.Resolve(a)
		invariant(ok, "moved argument handle is stale")
		child.unit.Push(v)
	}
	child.setArgs(len(op.arguments))
	child.Evaluate(h)
	op.releaseClosures(r)
}

func (op *altOp) MoveChannelArguments(_ *Host, ch *Channel, values []registry.Handle) {
	invariant(op.triggered < 0, "rendezvous on a triggered alt")
	invariant(op.arguments == nil, "alt received arguments twice")
	i := op.findCase(ch)
	invariant(i >= 0, "rendezvous on a channel the alt does not wait on")
	if i < 0 {
		return
	}

	op.triggered = i
	op.arguments = values
	op.argumentsMoved = true
	op.detachChannels()
}

func (op *altOp) ProcessToEvaluate() *Process {
	return op.Process()
}

// CloseChannel drops the case waiting on ch. The alt keeps waiting on its
// other cases; it is queued so that a last closed case ends it.
func (op *altOp) CloseChannel(h *Host, ch *Channel) {
	i := op.findCase(ch)
	invariant(i >= 0, "close of a channel the alt does not wait on")
	if i < 0 {
		return
	}
	op.closeCase(h.registry, &op.cases[i])
	ch.resetIn(op)
	h.PushEvalStep(op.Process())
}

func (op *altOp) findCase(ch *Channel) int {
	for i := range op.cases {
		if op.cases[i].channel == ch {
			return i
		}
	}
	return -1
}

func (op *altOp) closeCase(r *registry.Registry, c *altCase) {
	if c.channel != nil {
		c.channel.resetIn(op)
		c.channel = nil
	}
	release(r, &c.channelRef)
	release(r, &c.closureRef)
}

func (op *altOp) detachChannels() {
	for i := range op.cases {
		if ch := op.cases[i].channel; ch != nil {
			ch.resetIn(op)
		}
	}
}

func (op *altOp) releaseChannels(r *registry.Registry) {
	for i := range op.cases {
		c := &op.cases[i]
		c.channel = nil
		release(r, &c.channelRef)
	}
}

func (op *altOp) releaseClosures(r *registry.Registry) {
	for i := range op.cases {
		release(r, &op.cases[i].closureRef)
	}
}

func (op *altOp) releaseArguments(r *registry.Registry) {
	for i := range op.arguments {
		release(r, &op.arguments[i])
	}
	op.arguments = nil
}

func (op *altOp) finish() {
	for i := range op.cases {
		if ch := op.cases[i].channel; ch != nil {
			invariant(ch.in != op, "alt finished while attached to a channel")
		}
	}
	op.SetFinished(true)
}
