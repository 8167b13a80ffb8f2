// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/kont"
)

// received returns a closure recording the first value it is started with.
func (tr *trace) received(prefix string) csp.Closure {
	return func(args ...any) kont.Eff[struct{}] {
		s := prefix
		for _, a := range args {
			s += ":" + a.(string)
		}
		return tr.mark(s)
	}
}

// waitingSender starts a process that sends v over ch and evaluates it until
// it waits on the channel.
func waitingSender(t *testing.T, h *csp.Host, ch *csp.Channel, v any) *csp.Process {
	t.Helper()
	p := mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.OutThen(ch, v, csp.Done())
	}))
	h.Evaluate()
	return p
}

func TestAltDefaultBeforeReadyChannelWins(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	var tr trace
	waitingSender(t, h, ch, "x")
	if !ch.OutAttached() {
		t.Fatal("sender is not waiting on the channel")
	}

	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), nil, tr.received("f1"), ch, tr.received("f2"))
	}))
	h.Evaluate()
	if !tr.equal("f1", "after") {
		t.Fatalf("trace got %v, want [f1 after]", tr)
	}
	if ch.Waiting() != 1 {
		t.Fatalf("waiting senders got %d, want 1", ch.Waiting())
	}
	if ch.InAttached() {
		t.Fatal("finished alt is still attached to the channel")
	}
	csp.Shutdown(h)
	checkBalance(t, h)
}

func TestAltReadyChannelBeforeDefaultWins(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	var tr trace
	sender := waitingSender(t, h, ch, "x")

	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch, tr.received("f2"), nil, tr.received("f1"))
	}))
	h.Evaluate()
	if !tr.equal("f2:x", "after") {
		t.Fatalf("trace got %v, want [f2:x after]", tr)
	}
	if sender.IsRunning() {
		t.Fatal("sender still running after rendezvous")
	}
	checkBalance(t, h)
}

func TestAltReceivesFromLaterSender(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch, tr.received("got"), 10.0, tr.received("timeout"))
	}))
	h.Evaluate()
	h.Tick(1)
	if !ch.InAttached() {
		t.Fatal("alt is not attached to the channel")
	}

	var delivered bool
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return kont.Bind(csp.Out(ch, "v"), func(ok bool) kont.Eff[struct{}] {
			delivered = ok
			return csp.Done()
		})
	}))
	h.Evaluate()
	if !tr.equal("got:v", "after") {
		t.Fatalf("trace got %v, want [got:v after]", tr)
	}
	if !delivered {
		t.Fatal("sender was not told of the delivery")
	}
	checkBalance(t, h)
}

func TestAltAllClosedFinishesWithoutChild(t *testing.T) {
	h := newHost(t)
	ch1, ch2 := csp.NewChannel(), csp.NewChannel()
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch1, tr.received("f1"), ch2, tr.received("f2"))
	}))
	h.Evaluate()
	ch1.Close(h)
	ch2.Close(h)
	h.Evaluate()
	if !tr.equal("after") {
		t.Fatalf("trace got %v, want [after]", tr)
	}
	if h.Running() {
		t.Fatal("host still running")
	}
	checkBalance(t, h)
}

func TestAltClosingOneCaseKeepsWaiting(t *testing.T) {
	h := newHost(t)
	ch1, ch2 := csp.NewChannel(), csp.NewChannel()
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch1, tr.received("f1"), ch2, tr.received("f2"))
	}))
	h.Evaluate()
	ch1.Close(h)
	h.Evaluate()
	h.Tick(1)
	if len(tr) != 0 {
		t.Fatalf("trace got %v, want none", tr)
	}
	if !h.Running() || !ch2.InAttached() {
		t.Fatal("alt stopped waiting on the open channel")
	}
	if ch1.InAttached() {
		t.Fatal("alt still attached to the closed channel")
	}

	waitingSender(t, h, ch2, "y")
	if !tr.equal("f2:y", "after") {
		t.Fatalf("trace got %v, want [f2:y after]", tr)
	}
	checkBalance(t, h)
}

func TestAltClosedChannelGuardStartsClosed(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	ch.Close(h)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch, tr.received("f"))
	}))
	h.Evaluate()
	if !tr.equal("after") {
		t.Fatalf("trace got %v, want [after]", tr)
	}
	checkBalance(t, h)
}

func TestAltTimeoutTieBreak(t *testing.T) {
	for run := range 10 {
		h := newHost(t)
		var tr trace
		mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
			return csp.AltThen(tr.mark("after"), 5.0, tr.received("A"), 5.0, tr.received("B"))
		}))
		h.Evaluate()
		for range 4 {
			h.Tick(1)
		}
		if len(tr) != 0 {
			t.Fatalf("run %d: trace got %v before deadline, want none", run, tr)
		}
		h.Tick(1)
		if !tr.equal("A", "after") {
			t.Fatalf("run %d: trace got %v, want [A after]", run, tr)
		}
		checkBalance(t, h)
	}
}

func TestAltEarliestDeadlineFirst(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), 7.0, tr.received("A"), 3.0, tr.received("B"), 5.0, tr.received("C"))
	}))
	if ticks := h.Run(1, 10); ticks != 3 {
		t.Fatalf("Run got %d ticks, want 3", ticks)
	}
	if !tr.equal("B", "after") {
		t.Fatalf("trace got %v, want [B after]", tr)
	}
}

func TestAltLateTickPicksEarliestExpired(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), 4.0, tr.received("A"), 2.0, tr.received("B"))
	}))
	h.Evaluate()
	h.Tick(10)
	if !tr.equal("B", "after") {
		t.Fatalf("trace got %v, want [B after]", tr)
	}
}

func TestAltTwoSendersRace(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	var tr trace
	receiver := func() csp.Closure {
		return func(...any) kont.Eff[struct{}] {
			return csp.AltThen(csp.Done(), ch, tr.received("got"))
		}
	}
	mustGo(t, h, receiver())
	h.Evaluate()

	s1 := mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] { return csp.OutThen(ch, "s1", csp.Done()) }))
	s2 := mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] { return csp.OutThen(ch, "s2", csp.Done()) }))
	h.Evaluate()
	if !tr.equal("got:s1") {
		t.Fatalf("trace got %v, want [got:s1]", tr)
	}
	if s1.IsRunning() || !s2.IsRunning() {
		t.Fatalf("running got s1=%v s2=%v, want false/true", s1.IsRunning(), s2.IsRunning())
	}
	if ch.Waiting() != 1 {
		t.Fatalf("waiting senders got %d, want 1", ch.Waiting())
	}

	mustGo(t, h, receiver())
	h.Evaluate()
	if !tr.equal("got:s1", "got:s2") {
		t.Fatalf("trace got %v, want [got:s1 got:s2]", tr)
	}
	if s2.IsRunning() {
		t.Fatal("losing sender was never delivered")
	}
	checkBalance(t, h)
}

func TestAltChildRunsAcrossTicks(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), nil, csp.Closure(func(...any) kont.Eff[struct{}] {
			return csp.SleepThen(2, tr.mark("child"))
		}))
	}))
	h.Evaluate()
	h.Tick(1)
	if len(tr) != 0 {
		t.Fatalf("trace got %v after tick 1, want none", tr)
	}
	h.Tick(1)
	if !tr.equal("child", "after") {
		t.Fatalf("trace got %v, want [child after]", tr)
	}
	checkBalance(t, h)
}

func TestAltArgumentErrors(t *testing.T) {
	f := csp.Closure(func(...any) kont.Eff[struct{}] { return csp.Done() })
	tests := []struct {
		name string
		args func(ch *csp.Channel) []any
		pos  int
		msg  string
	}{
		{"odd", func(ch *csp.Channel) []any { return []any{ch} }, 0, "even number of arguments required. (guard+closure) pairs required"},
		{"two nil", func(*csp.Channel) []any { return []any{nil, f, nil, f} }, 3, "there must be just one nil case"},
		{"bad guard", func(*csp.Channel) []any { return []any{"x", f} }, 1, "channel, number or nil required as a guard"},
		{"nil channel", func(*csp.Channel) []any { return []any{2.0, f, (*csp.Channel)(nil), f} }, 3, "channel, number or nil required as a guard"},
		{"bad closure", func(ch *csp.Channel) []any { return []any{ch, 5} }, 2, "closure required"},
		{"same channel", func(ch *csp.Channel) []any { return []any{ch, f, ch, f} }, 3, "channel is in input operation already"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			ch := csp.NewChannel()
			p := mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
				return csp.AltThen(csp.Done(), tt.args(ch)...)
			}))
			h.Evaluate()
			var argErr *csp.ArgError
			if !errors.As(p.Err(), &argErr) {
				t.Fatalf("Err got %v, want *ArgError", p.Err())
			}
			if argErr.Op != "alt" || argErr.Pos != tt.pos || argErr.Msg != tt.msg {
				t.Fatalf("ArgError got %+v, want #%d %q", argErr, tt.pos, tt.msg)
			}
			if ch.InAttached() {
				t.Fatal("rejected alt left a channel attachment")
			}
			checkBalance(t, h)
		})
	}
}

func TestAltChannelAlreadyInInput(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	f := csp.Closure(func(...any) kont.Eff[struct{}] { return csp.Done() })
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(csp.Done(), ch, f)
	}))
	h.Evaluate()
	p := mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(csp.Done(), 1.0, f, ch, f)
	}))
	h.Evaluate()
	var argErr *csp.ArgError
	if !errors.As(p.Err(), &argErr) || argErr.Pos != 3 {
		t.Fatalf("Err got %v, want bad argument #3", p.Err())
	}
	if got := argErr.Error(); got != "csp: bad argument #3 to 'alt' (channel is in input operation already)" {
		t.Fatalf("message got %q", got)
	}
}

func TestAltTerminateReleasesHandles(t *testing.T) {
	h := newHost(t)
	ch := csp.NewChannel()
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), ch, tr.received("f"), 100.0, tr.received("timeout"))
	}))
	h.Evaluate()
	if live := h.Registry().Live(); live != 3 {
		t.Fatalf("live handles got %d, want 3", live)
	}
	csp.Shutdown(h)
	csp.Shutdown(h)
	if ch.InAttached() {
		t.Fatal("terminated alt is still attached")
	}
	checkBalance(t, h)
	if len(tr) != 0 {
		t.Fatalf("trace got %v, want none", tr)
	}
}

func TestAltTerminateWhileChildRuns(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"), 1.0, csp.Closure(func(...any) kont.Eff[struct{}] {
			return csp.SleepThen(10, tr.mark("child"))
		}))
	}))
	h.Evaluate()
	h.Tick(1)
	if live := h.Registry().Live(); live != 1 {
		t.Fatalf("live handles got %d, want 1 (the child)", live)
	}
	csp.Shutdown(h)
	checkBalance(t, h)
}

func TestAltEmptyFinishes(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return csp.AltThen(tr.mark("after"))
	}))
	h.Evaluate()
	if !tr.equal("after") {
		t.Fatalf("trace got %v, want [after]", tr)
	}
}
