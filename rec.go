// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive process body (Cont-world).
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		return unfold(e, step)
	})
}

// unfold continues a Cont-world loop from the outcome of one iteration.
func unfold[S, A any](e kont.Either[S, A], step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	if next, ok := e.GetLeft(); ok {
		return Loop(next, step)
	}
	result, _ := e.GetRight()
	return kont.Pure(result)
}

// Repeat runs body n times, passing the iteration index.
func Repeat(n int, body func(i int) kont.Eff[struct{}]) kont.Eff[struct{}] {
	return Loop(0, func(i int) kont.Eff[kont.Either[int, struct{}]] {
		if i >= n {
			return Break[int](struct{}{})
		}
		return kont.Then(body(i), Continue[int, struct{}](i+1))
	})
}

// Continue is the Left result of a Loop step.
func Continue[S, A any](next S) kont.Eff[kont.Either[S, A]] {
	return kont.Pure(kont.Left[S, A](next))
}

// Break is the Right result of a Loop step.
func Break[S, A any](result A) kont.Eff[kont.Either[S, A]] {
	return kont.Pure(kont.Right[S, A](result))
}

// ExprLoop runs a recursive process body (Expr-world).
// step returns Left(nextState) to continue or Right(result) to finish.
// Iterations that complete without suspending run in place; the loop only
// chains a frame when an iteration suspends on an operation.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	state := initial
	for {
		m := step(state)
		if _, done := m.Frame.(kont.ReturnFrame); !done {
			return exprLoopResume(m, step)
		}
		next, ok := m.Value.GetLeft()
		if !ok {
			result, _ := m.Value.GetRight()
			return kont.ExprReturn(result)
		}
		state = next
	}
}

// exprLoopResume chains the rest of the loop behind the suspended
// iteration m.
func exprLoopResume[S, A any](m kont.Expr[kont.Either[S, A]], step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		var rest kont.Expr[A]
		if next, ok := a.(kont.Either[S, A]).GetLeft(); ok {
			rest = ExprLoop(next, step)
		} else {
			result, _ := a.(kont.Either[S, A]).GetRight()
			rest = kont.ExprReturn(result)
		}
		return kont.Expr[kont.Erased]{Value: kont.Erased(rest.Value), Frame: rest.Frame}
	}
	bf.Next = kont.ReturnFrame{}
	var zero A
	return kont.Expr[A]{
		Value: zero,
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}

// ExprRepeat runs body n times, passing the iteration index (Expr-world).
func ExprRepeat(n int, body func(i int) kont.Expr[struct{}]) kont.Expr[struct{}] {
	return ExprLoop(0, func(i int) kont.Expr[kont.Either[int, struct{}]] {
		if i >= n {
			return kont.ExprReturn(kont.Right[int, struct{}](struct{}{}))
		}
		return kont.ExprMap(body(i), func(struct{}) kont.Either[int, struct{}] {
			return kont.Left[int, struct{}](i + 1)
		})
	})
}
