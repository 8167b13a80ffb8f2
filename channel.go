// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"slices"

	"code.hybscloud.com/csp/registry"
)

// Channel is an unbuffered rendezvous point.
//
// At most one receiver waits on the input side. Senders wait on the output
// side in arrival order; the first of them communicates with the next
// receiver. A channel holds no values: a rendezvous moves the sender's
// values straight to the receiver.
type Channel struct {
	in     inputAttachment
	out    []outputAttachment
	closed bool
}

// inputAttachment is the receiving side of a rendezvous.
type inputAttachment interface {
	// MoveChannelArguments hands the sender's values to the receiver.
	// The receiver owns the handles from then on and must detach from
	// every channel it waits on.
	MoveChannelArguments(h *Host, ch *Channel, values []registry.Handle)
	// ProcessToEvaluate is the process resumed by a rendezvous.
	ProcessToEvaluate() *Process
	// CloseChannel tells the receiver that ch closed under it.
	CloseChannel(h *Host, ch *Channel)
}

// outputAttachment is the sending side of a rendezvous.
type outputAttachment interface {
	// Communicate moves the sender's values to the channel's input
	// attachment and leaves the output queue.
	Communicate(h *Host)
	// CloseChannel tells the sender that ch closed under it.
	CloseChannel(h *Host, ch *Channel)
}

// NewChannel creates an open channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Closed reports whether the channel was closed.
func (ch *Channel) Closed() bool {
	return ch.closed
}

// InAttached reports whether a receiver waits on the channel.
func (ch *Channel) InAttached() bool {
	return ch.in != nil
}

// OutAttached reports whether a sender waits on the channel.
func (ch *Channel) OutAttached() bool {
	return len(ch.out) > 0
}

// Waiting returns the number of senders waiting on the channel.
func (ch *Channel) Waiting() int {
	return len(ch.out)
}

// Close closes the channel. A waiting receiver drops the case waiting on
// it, and waiting senders finish undelivered. Closing twice is a no-op.
func (ch *Channel) Close(h *Host) {
	if ch.closed {
		return
	}
	ch.closed = true
	if in := ch.in; in != nil {
		in.CloseChannel(h, ch)
		ch.in = nil
	}
	out := ch.out
	ch.out = nil
	for _, o := range out {
		o.CloseChannel(h, ch)
	}
}

func (ch *Channel) setIn(in inputAttachment) {
	invariant(ch.in == nil, "channel already has an input attachment")
	invariant(!ch.closed, "input attached to a closed channel")
	ch.in = in
}

func (ch *Channel) resetIn(in inputAttachment) {
	if ch.in == in {
		ch.in = nil
	}
}

func (ch *Channel) attachOut(out outputAttachment) {
	invariant(!ch.closed, "output attached to a closed channel")
	ch.out = append(ch.out, out)
}

func (ch *Channel) detachOut(out outputAttachment) {
	if i := slices.Index(ch.out, out); i >= 0 {
		ch.out = slices.Delete(ch.out, i, i+1)
	}
}

// canCommunicate reports whether out may rendezvous right now: a receiver
// waits and no sender is queued ahead of out.
func (ch *Channel) canCommunicate(out outputAttachment) bool {
	return ch.in != nil && (len(ch.out) == 0 || ch.out[0] == out)
}

// outOp sends values over a channel. It results in true when the values
// were delivered and false when the channel closed first.
type outOp struct {
	Base
	channel   *Channel
	values    []registry.Handle
	attached  bool
	delivered bool
}

func (op *outOp) Init(args Args) error {
	ch, ok := args.Channel(0)
	if !ok {
		return args.Error(0, "channel expected")
	}
	op.channel = ch
	if ch.Closed() {
		op.SetFinished(true)
		return nil
	}
	r := op.Process().Host().registry
	op.values = make([]registry.Handle, 0, args.Len()-1)
	for _, v := range args[1:] {
		op.values = append(op.values, r.Acquire(v))
	}
	return nil
}

func (op *outOp) Evaluate(h *Host) WorkResult {
	ch := op.channel
	if ch.canCommunicate(op) {
		op.Communicate(h)
		return Finish
	}
	if !op.attached {
		ch.attachOut(op)
		op.attached = true
	}
	return Yield
}

func (op *outOp) Communicate(h *Host) {
	ch := op.channel
	in := ch.in
	invariant(in != nil, "communicate without a receiver")
	if op.attached {
		ch.detachOut(op)
		op.attached = false
	}
	values := op.values
	op.values = nil
	in.MoveChannelArguments(h, ch, values)
	op.delivered = true
	op.SetFinished(true)
	h.PushEvalStep(in.ProcessToEvaluate())
	h.PushEvalStep(op.Process())
}

func (op *outOp) CloseChannel(h *Host, ch *Channel) {
	op.attached = false
	op.releaseValues(h)
	op.SetFinished(true)
	h.PushEvalStep(op.Process())
}

func (op *outOp) PushResults() Values {
	return Values{op.delivered}
}

func (op *outOp) Terminate(h *Host) {
	if op.attached {
		op.channel.detachOut(op)
		op.attached = false
	}
	op.releaseValues(h)
	op.SetFinished(true)
}

func (op *outOp) releaseValues(h *Host) {
	for i := range op.values {
		release(h.registry, &op.values[i])
	}
	op.values = nil
}

// inOp receives one rendezvous from a channel. It results in the values
// sent, or nothing when the channel closed while waiting.
type inOp struct {
	Base
	channel  *Channel
	values   []registry.Handle
	received bool
	results  Values
}

func (op *inOp) Init(args Args) error {
	ch, ok := args.Channel(0)
	if !ok {
		return args.Error(0, "channel expected")
	}
	if args.Len() > 1 {
		return &ArgError{Msg: "exactly one argument expected"}
	}
	if ch.InAttached() {
		return args.Error(0, "channel is in input operation already")
	}
	if ch.Closed() {
		op.SetFinished(true)
		return nil
	}
	ch.setIn(op)
	op.channel = ch
	return nil
}

func (op *inOp) Evaluate(h *Host) WorkResult {
	if !op.received && op.channel != nil && op.channel.OutAttached() {
		op.channel.out[0].Communicate(h)
	}
	if !op.received {
		return Yield
	}
	r := h.registry
	op.results = make(Values, 0, len(op.values))
	for i := range op.values {
		v, ok := r.Resolve(op.values[i])
		invariant(ok, "received value handle is stale")
		op.results = append(op.results, v)
		release(r, &op.values[i])
	}
	op.values = nil
	op.SetFinished(true)
	return Finish
}

func (op *inOp) MoveChannelArguments(_ *Host, ch *Channel, values []registry.Handle) {
	invariant(!op.received, "second rendezvous on one receive")
	op.values = values
	op.received = true
	ch.resetIn(op)
	op.channel = nil
}

func (op *inOp) ProcessToEvaluate() *Process {
	return op.Process()
}

func (op *inOp) CloseChannel(h *Host, ch *Channel) {
	ch.resetIn(op)
	op.channel = nil
	op.SetFinished(true)
	h.PushEvalStep(op.Process())
}

func (op *inOp) PushResults() Values {
	return op.results
}

func (op *inOp) Terminate(h *Host) {
	if op.channel != nil {
		op.channel.resetIn(op)
		op.channel = nil
	}
	for i := range op.values {
		release(h.registry, &op.values[i])
	}
	op.values = nil
	op.SetFinished(true)
}

// closeOp closes a channel from a script without consuming time.
type closeOp struct {
	Base
}

func (op *closeOp) Init(args Args) error {
	ch, ok := args.Channel(0)
	if !ok {
		return args.Error(0, "channel expected")
	}
	ch.Close(op.Process().Host())
	op.SetFinished(true)
	return nil
}
