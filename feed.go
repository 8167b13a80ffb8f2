// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// ErrFeedClosed is returned when pushing to a closed feed.
var ErrFeedClosed = errors.New("csp: feed is closed")

// Feed is an OutputSource fed from outside the host goroutine.
//
// One producer goroutine calls Push, Send and Close; the host consumes the
// values through the source operation, one value per rendezvous. Transport
// is a bounded lock-free SPSC queue from lfq.
type Feed struct {
	q      lfq.SPSC[any]
	closed atomix.Uint32
	head   any
	ready  bool
}

// NewFeed creates a feed holding up to capacity undelivered values.
func NewFeed(capacity int) *Feed {
	f := &Feed{}
	f.q.Init(capacity)
	return f
}

// Push enqueues v without blocking.
// Returns iox.ErrWouldBlock if the queue is full.
func (f *Feed) Push(v any) error {
	if f.closed.Load() != 0 {
		return ErrFeedClosed
	}
	return f.q.Enqueue(&v)
}

// Send enqueues v, waiting with adaptive backoff (iox.Backoff) while the
// queue is full.
func (f *Feed) Send(v any) error {
	var bo iox.Backoff
	for {
		err := f.Push(v)
		if !iox.IsWouldBlock(err) {
			return err
		}
		bo.Wait()
	}
}

// Close ends the feed. Values pushed before Close are still delivered.
func (f *Feed) Close() {
	f.closed.Add(1)
}

// IsOutputReady reports whether a value waits for delivery.
func (f *Feed) IsOutputReady() bool {
	return f.ready
}

// Update fetches the next value. It reports Finish once the feed is closed
// and drained.
func (f *Feed) Update(Time) WorkResult {
	if f.ready || f.take() {
		return Yield
	}
	if f.closed.Load() == 0 || f.take() {
		return Yield
	}
	return Finish
}

// PushOutputArguments delivers the pending value and fetches the next one.
func (f *Feed) PushOutputArguments(sink ArgSink) int {
	if !f.ready {
		return 0
	}
	sink.Push(f.head)
	f.head = nil
	f.ready = false
	f.take()
	return 1
}

func (f *Feed) take() bool {
	v, err := f.q.Dequeue()
	if err != nil {
		return false
	}
	f.head = v
	f.ready = true
	return true
}
