// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"code.hybscloud.com/csp/unit"
	"code.hybscloud.com/kont"
)

// Time is simulation time in seconds.
type Time = float64

// Values is what an operation call resumes its process with.
type Values = []any

// Closure is a Cont-world process body.
// Its arguments are the values handed to it at start, for an Alt case the
// values transferred by the sender.
type Closure = unit.Func

// ExprClosure is an Expr-world process body.
type ExprClosure = unit.ExprFunc

// Call is the effect operation every blocking primitive is requested with.
// Perform(Call{Name: "sleep", Args: []any{1.0}}) suspends the calling
// process on the operation registered as "sleep" in the host namespace.
type Call struct {
	kont.Phantom[Values]
	Name string
	Args []any
}

// Perform requests the operation registered under name.
func Perform(name string, args ...any) kont.Eff[Values] {
	return kont.Perform(Call{Name: name, Args: args})
}

// ExprPerform requests the operation registered under name (Expr-world).
func ExprPerform(name string, args ...any) kont.Expr[Values] {
	return kont.ExprPerform(Call{Name: name, Args: args})
}

// IsClosure reports whether v can be run as a process body.
func IsClosure(v any) bool {
	return unit.IsCallable(v)
}

// Args is the argument list of an operation call.
// Indexes are zero-based; error positions are reported one-based.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// At returns argument i, or nil when i is out of range.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// IsNil reports whether argument i is nil or absent.
func (a Args) IsNil(i int) bool {
	return a.At(i) == nil
}

// IsClosure reports whether argument i is a process body.
func (a Args) IsClosure(i int) bool {
	return IsClosure(a.At(i))
}

// Number returns argument i as a float64.
func (a Args) Number(i int) (float64, bool) {
	return toNumber(a.At(i))
}

// Channel returns argument i as a channel.
func (a Args) Channel(i int) (*Channel, bool) {
	ch, ok := a.At(i).(*Channel)
	return ch, ok && ch != nil
}

// Error builds an argument error for argument i.
func (a Args) Error(i int, msg string) *ArgError {
	return &ArgError{Pos: i + 1, Msg: msg}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
