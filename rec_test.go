// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"testing"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/kont"
)

func TestLoopAcrossTicks(t *testing.T) {
	h := newHost(t)
	result := -1
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		loop := csp.Loop(0, func(n int) kont.Eff[kont.Either[int, int]] {
			if n == 5 {
				return csp.Break[int](n * 10)
			}
			return csp.SleepThen(1, csp.Continue[int, int](n+1))
		})
		return kont.Bind(loop, func(r int) kont.Eff[struct{}] {
			result = r
			return csp.Done()
		})
	}))
	if ticks := h.Run(1, 10); ticks != 5 {
		t.Fatalf("Run got %d ticks, want 5", ticks)
	}
	if result != 50 {
		t.Fatalf("result got %d, want 50", result)
	}
}

func TestRepeatZeroTimes(t *testing.T) {
	h := newHost(t)
	var tr trace
	mustGo(t, h, csp.Closure(func(...any) kont.Eff[struct{}] {
		return kont.Then(csp.Repeat(0, func(int) kont.Eff[struct{}] {
			return tr.mark("body")
		}), tr.mark("end"))
	}))
	h.Evaluate()
	if !tr.equal("end") {
		t.Fatalf("trace got %v, want [end]", tr)
	}
}

func TestExprRepeatAcrossTicks(t *testing.T) {
	h := newHost(t)
	var iterations []int
	mustGo(t, h, csp.ExprClosure(func(...any) kont.Expr[struct{}] {
		return csp.ExprRepeat(3, func(i int) kont.Expr[struct{}] {
			iterations = append(iterations, i)
			return csp.ExprSleepThen(1, csp.ExprDone())
		})
	}))
	if ticks := h.Run(1, 10); ticks != 3 {
		t.Fatalf("Run got %d ticks, want 3", ticks)
	}
	if len(iterations) != 3 || iterations[0] != 0 || iterations[2] != 2 {
		t.Fatalf("iterations got %v, want [0 1 2]", iterations)
	}
}

func TestExprLoopRunsFinishedIterationsInPlace(t *testing.T) {
	const n = 1 << 20
	m := csp.ExprLoop(0, func(i int) kont.Expr[kont.Either[int, int]] {
		if i == n {
			return kont.ExprReturn(kont.Right[int, int](i))
		}
		return kont.ExprReturn(kont.Left[int, int](i + 1))
	})
	if _, ok := m.Frame.(kont.ReturnFrame); !ok {
		t.Fatalf("frame got %T, want kont.ReturnFrame", m.Frame)
	}
	if m.Value != n {
		t.Fatalf("result got %d, want %d", m.Value, n)
	}
}

func TestExprLoopMixesImmediateAndSuspendedIterations(t *testing.T) {
	h := newHost(t)
	result := -1
	mustGo(t, h, csp.ExprClosure(func(...any) kont.Expr[struct{}] {
		loop := csp.ExprLoop(0, func(i int) kont.Expr[kont.Either[int, int]] {
			switch {
			case i == 6:
				return kont.ExprReturn(kont.Right[int, int](i))
			case i%2 == 0:
				return kont.ExprReturn(kont.Left[int, int](i + 1))
			}
			return csp.ExprSleepThen(1, kont.ExprReturn(kont.Left[int, int](i+1)))
		})
		return kont.ExprMap(loop, func(r int) struct{} {
			result = r
			return struct{}{}
		})
	}))
	if ticks := h.Run(1, 10); ticks != 3 {
		t.Fatalf("Run got %d ticks, want 3", ticks)
	}
	if result != 6 {
		t.Fatalf("result got %d, want 6", result)
	}
}
