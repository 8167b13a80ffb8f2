// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"code.hybscloud.com/kont"
)

// exprReturnFrame is boxed once to keep the fused helpers allocation-free.
var exprReturnFrame kont.Frame = kont.ReturnFrame{}

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

// exprCallThen performs call and then continues with next.
func exprCallThen[B any](call Call, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = call
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func callBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(Values) kont.Expr[B])
	v, _ := current.(Values)
	result := f(v)
	return kont.Erased(result.Value), result.Frame
}

// exprCallBind performs call and passes its results to f.
func exprCallBind[B any](call Call, f func(Values) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = callBindUnwind[B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = call
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprSleepThen sleeps and then continues with next.
// Fuses ExprPerform(sleep) + ExprThen.
func ExprSleepThen[B any](seconds Time, next kont.Expr[B]) kont.Expr[B] {
	return exprCallThen(Call{Name: "sleep", Args: []any{seconds}}, next)
}

// ExprParThen runs closures in parallel and then continues with next.
func ExprParThen[B any](next kont.Expr[B], closures ...any) kont.Expr[B] {
	return exprCallThen(Call{Name: "par", Args: closures}, next)
}

// ExprAltThen alternates over cases and then continues with next.
func ExprAltThen[B any](next kont.Expr[B], cases ...any) kont.Expr[B] {
	return exprCallThen(Call{Name: "alt", Args: cases}, next)
}

// ExprOutThen sends v over ch and then continues with next.
// Fuses ExprPerform(out) + ExprThen.
func ExprOutThen[B any](ch *Channel, v any, next kont.Expr[B]) kont.Expr[B] {
	return exprCallThen(Call{Name: "out", Args: []any{ch, v}}, next)
}

// ExprInBind receives from ch and passes the values to f.
// Fuses ExprPerform(in) + ExprBind.
func ExprInBind[B any](ch *Channel, f func(Values) kont.Expr[B]) kont.Expr[B] {
	return exprCallBind(Call{Name: "in", Args: []any{ch}}, f)
}

// ExprCloseThen closes ch and then continues with next.
func ExprCloseThen[B any](ch *Channel, next kont.Expr[B]) kont.Expr[B] {
	return exprCallThen(Call{Name: "close", Args: []any{ch}}, next)
}

// ExprLogThen logs values and then continues with next.
func ExprLogThen[B any](next kont.Expr[B], values ...any) kont.Expr[B] {
	return exprCallThen(Call{Name: "log", Args: values}, next)
}

// ExprDone ends an Expr-world process body.
func ExprDone() kont.Expr[struct{}] {
	return kont.ExprReturn(struct{}{})
}
