// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package unit provides suspendable computation units on
// [code.hybscloud.com/kont].
//
// A [Unit] runs one callable. The callable returns a kont protocol, which the
// unit evaluates one effect at a time: [Unit.Resume] steps the protocol until
// it performs an effect the unit cannot handle itself, and leaves that effect
// pending for the caller to inspect with [Unit.Pending]. Error effects
// ([kont.ThrowError], [kont.CatchError] with E = error) are handled eagerly;
// a thrown error, or a panic in script code, ends the unit with [ErrRun].
//
// Values passed into a unit go through its pending stack: [Unit.Push] the
// callable and its arguments, then Resume(n) with the argument count. After
// a suspension, Resume(n) pops the top n values and resumes the pending
// effect with them as a []any.
package unit

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kont"
)

var (
	// ErrNotCallable is returned when a unit starts with a value that is not
	// a Func or ExprFunc.
	ErrNotCallable = errors.New("unit: value is not callable")

	// ErrStack is returned when Resume is asked for more values than the
	// pending stack holds.
	ErrStack = errors.New("unit: not enough values on the stack")

	// ErrDead is returned when resuming a unit that finished or failed.
	ErrDead = errors.New("unit: cannot resume dead unit")

	// ErrTerminated is the error of a unit stopped by Terminate.
	ErrTerminated = errors.New("unit: terminated")

	// ErrPanic wraps a panic raised by script code.
	ErrPanic = errors.New("unit: panic")
)

// Status is the execution state of a unit.
type Status int

const (
	// Fresh is a unit that has never been resumed.
	Fresh Status = iota
	// Yield is a unit suspended on a pending effect.
	Yield
	// OK is a unit whose protocol returned.
	OK
	// ErrRun is a unit that failed or was terminated.
	ErrRun
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Yield:
		return "yield"
	case OK:
		return "ok"
	case ErrRun:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Func is a Cont-world callable.
type Func func(args ...any) kont.Eff[struct{}]

// ExprFunc is an Expr-world callable.
type ExprFunc func(args ...any) kont.Expr[struct{}]

// outcome is the result of a stepped protocol: Left on a thrown error.
type outcome = kont.Either[error, struct{}]

// errorDispatcher is the structural interface of kont error effects
// specialized to E = error.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// Unit is a suspendable computation.
type Unit struct {
	parent *Unit
	stack  []any
	susp   *kont.Suspension[outcome]
	status Status
	err    error
}

// New creates a fresh unit. parent is informational; it does not keep the
// parent alive beyond the caller's own references.
func New(parent *Unit) *Unit {
	return &Unit{parent: parent}
}

// Parent returns the unit this one was created under.
func (u *Unit) Parent() *Unit {
	return u.parent
}

// Status returns the current execution state.
func (u *Unit) Status() Status {
	return u.status
}

// Err returns the error that ended the unit, if any.
func (u *Unit) Err() error {
	return u.err
}

// Push appends values to the pending stack.
func (u *Unit) Push(values ...any) {
	u.stack = append(u.stack, values...)
}

// Len returns the number of values on the pending stack.
func (u *Unit) Len() int {
	return len(u.stack)
}

// MoveValues moves the top n values of from's pending stack onto to's,
// preserving their order.
func MoveValues(from, to *Unit, n int) {
	to.stack = append(to.stack, from.pop(n)...)
}

// Pending returns the effect the unit is suspended on, or nil.
func (u *Unit) Pending() kont.Operation {
	if u.susp == nil {
		return nil
	}
	return u.susp.Op()
}

// Resume runs the unit until its next suspension or its end.
//
// On a fresh unit the stack must hold the callable followed by n arguments.
// On a suspended unit the top n stack values become the result of the
// pending effect.
func (u *Unit) Resume(n int) Status {
	if n < 0 || len(u.stack) < n {
		return u.Fail(ErrStack)
	}
	switch u.status {
	case Fresh:
		if len(u.stack) < n+1 {
			return u.Fail(ErrStack)
		}
		args := u.pop(n)
		fn := u.pop(1)[0]
		u.run(func() (outcome, *kont.Suspension[outcome]) {
			protocol, err := call(fn, args)
			if err != nil {
				return kont.Left[error, struct{}](err), nil
			}
			return kont.StepExpr(wrap(protocol))
		})
	case Yield:
		values := u.pop(n)
		susp := u.susp
		u.susp = nil
		u.run(func() (outcome, *kont.Suspension[outcome]) {
			return susp.Resume(values)
		})
	default:
		if u.err == nil {
			u.err = ErrDead
		}
	}
	return u.status
}

// Fail ends a fresh or suspended unit with err, discarding the pending
// effect. It is how a host rejects an effect it cannot serve.
func (u *Unit) Fail(err error) Status {
	if u.susp != nil {
		u.susp.Discard()
		u.susp = nil
	}
	u.stack = nil
	u.status = ErrRun
	u.err = err
	return u.status
}

// Terminate stops a unit that is still fresh or suspended.
// It is a no-op on a unit that already ended.
func (u *Unit) Terminate() {
	if u.status == Fresh || u.status == Yield {
		u.Fail(ErrTerminated)
	}
}

// run evaluates step and the error effects that follow it eagerly,
// stopping at the first effect that must be served by the host.
func (u *Unit) run(step func() (outcome, *kont.Suspension[outcome])) {
	defer func() {
		if r := recover(); r != nil {
			u.susp = nil
			u.status = ErrRun
			u.err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	result, susp := step()
	for susp != nil {
		eop, ok := susp.Op().(errorDispatcher)
		if !ok {
			u.susp = susp
			u.status = Yield
			return
		}
		var ctx kont.ErrorContext[error]
		v, _ := eop.DispatchError(&ctx)
		if ctx.HasErr {
			susp.Discard()
			u.status = ErrRun
			u.err = ctx.Err
			if u.err == nil {
				u.err = errors.New("unit: nil error thrown")
			}
			return
		}
		result, susp = susp.Resume(v)
	}
	if err, ok := result.GetLeft(); ok {
		u.status = ErrRun
		u.err = err
		return
	}
	u.status = OK
}

func (u *Unit) pop(n int) []any {
	if n <= 0 {
		return nil
	}
	top := len(u.stack) - n
	values := make([]any, n)
	copy(values, u.stack[top:])
	clear(u.stack[top:])
	u.stack = u.stack[:top]
	return values
}

// IsCallable reports whether v can start a unit.
func IsCallable(v any) bool {
	switch v.(type) {
	case Func, func(...any) kont.Eff[struct{}], ExprFunc, func(...any) kont.Expr[struct{}]:
		return true
	}
	return false
}

func call(fn any, args []any) (kont.Expr[struct{}], error) {
	switch f := fn.(type) {
	case Func:
		return kont.Reify(f(args...)), nil
	case func(...any) kont.Eff[struct{}]:
		return kont.Reify(f(args...)), nil
	case ExprFunc:
		return f(args...), nil
	case func(...any) kont.Expr[struct{}]:
		return f(args...), nil
	}
	return kont.Expr[struct{}]{}, fmt.Errorf("%w: %T", ErrNotCallable, fn)
}

func wrap(protocol kont.Expr[struct{}]) kont.Expr[outcome] {
	return kont.ExprMap(protocol, func(r struct{}) outcome {
		return kont.Right[error, struct{}](r)
	})
}
