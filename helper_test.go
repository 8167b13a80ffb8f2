// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp_test

import (
	"io"
	"log/slog"
	"testing"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/kont"
)

// newHost creates a host that discards its log output.
func newHost(tb testing.TB, opts ...csp.Option) *csp.Host {
	tb.Helper()
	opts = append([]csp.Option{csp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return csp.Initialize(opts...)
}

// trace records the order in which process bodies reach their marks.
type trace []string

// mark appends s to the trace when the protocol reaches it.
func (tr *trace) mark(s string) kont.Eff[struct{}] {
	return csp.Do(func() { *tr = append(*tr, s) })
}

// body returns a closure that marks s and ends.
func (tr *trace) body(s string) csp.Closure {
	return func(...any) kont.Eff[struct{}] {
		return tr.mark(s)
	}
}

func (tr *trace) equal(want ...string) bool {
	if len(*tr) != len(want) {
		return false
	}
	for i := range want {
		if (*tr)[i] != want[i] {
			return false
		}
	}
	return true
}

// mustGo starts fn as a root process.
func mustGo(tb testing.TB, h *csp.Host, fn any, args ...any) *csp.Process {
	tb.Helper()
	p, err := h.Go(fn, args...)
	if err != nil {
		tb.Fatalf("Go: %v", err)
	}
	return p
}

// checkBalance fails when handles are still held in the host registry.
func checkBalance(tb testing.TB, h *csp.Host) {
	tb.Helper()
	if live := h.Registry().Live(); live != 0 {
		stats := h.Registry().Stats()
		tb.Fatalf("live handles got %d, want 0 (acquired %d, released %d)", live, stats.Acquired, stats.Released)
	}
}
