// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"fmt"
	"log/slog"

	"code.hybscloud.com/csp/registry"
	"code.hybscloud.com/kont"
)

var (
	// ErrUnknownOperation is the error of a call whose name is not
	// registered in the host namespace.
	ErrUnknownOperation = errors.New("csp: unknown operation")

	// ErrUnhandledEffect is the error of a process that performed an effect
	// other than Call.
	ErrUnhandledEffect = errors.New("csp: unhandled effect")

	// ErrNotClosure is returned by Host.Go for a body that is not a closure.
	ErrNotClosure = errors.New("csp: function closure expected")

	// ErrHostClosed is returned by Host.Go after Shutdown.
	ErrHostClosed = errors.New("csp: host is shut down")
)

// ArgError reports a rejected operation call.
// Pos is the one-based argument position, 0 when the call as a whole is
// malformed.
type ArgError struct {
	Op  string
	Pos int
	Msg string
}

func (e *ArgError) Error() string {
	if e.Pos == 0 {
		return fmt.Sprintf("csp: bad arguments to '%s' (%s)", e.Op, e.Msg)
	}
	return fmt.Sprintf("csp: bad argument #%d to '%s' (%s)", e.Pos, e.Op, e.Msg)
}

// Fail ends the calling process with err as a runtime error.
func Fail(err error) kont.Eff[struct{}] {
	return kont.ThrowError[error, struct{}](err)
}

// invariant guards scheduler invariants. A violation is a bug in the
// engine, never a script error: it is logged, and panics unless built with
// the csp_release tag.
func invariant(cond bool, format string, args ...any) {
	if cond {
		return
	}
	err := fmt.Errorf("csp: invariant violated: "+format, args...)
	slog.Error(err.Error())
	if abortOnInvariant {
		panic(err)
	}
}

// release consumes a registry handle. Releasing the zero handle is a no-op,
// which makes teardown paths safe to repeat.
func release(r *registry.Registry, h *registry.Handle) {
	if !h.Valid() {
		return
	}
	err := r.Release(*h)
	invariant(err == nil, "release handle: %v", err)
	*h = registry.Handle{}
}
