// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"code.hybscloud.com/kont"
)

// Sleep suspends the process for seconds of simulation time.
func Sleep(seconds Time) kont.Eff[Values] {
	return Perform("sleep", seconds)
}

// SleepThen sleeps and then continues with next.
// Fuses Perform(sleep) + Then.
func SleepThen[B any](seconds Time, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Sleep(seconds), next)
}

// Par runs closures as child processes and waits for all of them.
func Par(closures ...any) kont.Eff[Values] {
	return Perform("par", closures...)
}

// ParThen runs closures in parallel and then continues with next.
func ParThen[B any](next kont.Eff[B], closures ...any) kont.Eff[B] {
	return kont.Then(Par(closures...), next)
}

// Alt waits on (guard, closure) pairs and runs the closure of the first
// guard to fire. A guard is a *Channel, an absolute deadline or nil for the
// default case.
func Alt(cases ...any) kont.Eff[Values] {
	return Perform("alt", cases...)
}

// AltThen alternates over cases and then continues with next.
func AltThen[B any](next kont.Eff[B], cases ...any) kont.Eff[B] {
	return kont.Then(Alt(cases...), next)
}

// Out sends values over ch and reports whether they were delivered.
func Out(ch *Channel, values ...any) kont.Eff[bool] {
	args := make([]any, 0, len(values)+1)
	args = append(args, ch)
	args = append(args, values...)
	return kont.Bind(Perform("out", args...), delivered)
}

// OutThen sends v over ch and then continues with next.
// Fuses Perform(out) + Then.
func OutThen[B any](ch *Channel, v any, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Perform("out", ch, v), next)
}

// In receives the values of one rendezvous on ch. The result is empty when
// ch closed first.
func In(ch *Channel) kont.Eff[Values] {
	return Perform("in", ch)
}

// InBind receives from ch and passes the values to f.
// Fuses Perform(in) + Bind.
func InBind[B any](ch *Channel, f func(Values) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(In(ch), f)
}

// Close closes ch.
func Close(ch *Channel) kont.Eff[Values] {
	return Perform("close", ch)
}

// CloseThen closes ch and then continues with next.
func CloseThen[B any](ch *Channel, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Close(ch), next)
}

// Source sends the output of src over ch until src finishes or ch closes.
func Source(ch *Channel, src OutputSource) kont.Eff[Values] {
	return Perform("source", ch, src)
}

// Log writes values to the host logger.
func Log(values ...any) kont.Eff[Values] {
	return Perform("log", values...)
}

// LogThen logs values and then continues with next.
func LogThen[B any](next kont.Eff[B], values ...any) kont.Eff[B] {
	return kont.Then(Log(values...), next)
}

// Do runs f when the protocol reaches it.
func Do(f func()) kont.Eff[struct{}] {
	return kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[struct{}] {
		f()
		return kont.Pure(struct{}{})
	})
}

// Done ends a process body.
func Done() kont.Eff[struct{}] {
	return kont.Pure(struct{}{})
}

func delivered(v Values) kont.Eff[bool] {
	ok := len(v) > 0 && v[0] == true
	return kont.Pure(ok)
}
