// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package csp provides a tick-driven Communicating Sequential Processes
// engine for protocols written on [code.hybscloud.com/kont].
//
// A [Host] owns simulation time and a ready queue of processes. A process
// body is a kont protocol; it blocks by performing a [Call] effect, which the
// host turns into an [Operation] the process waits on. Time only advances
// through [Host.Tick]; suspension is always cooperative.
//
// # Architecture
//
//   - Scheduling: [Host.Evaluate] drains the ready queue until quiescent. [Host.Tick] advances time, works every root process and runs a scheduling pass.
//   - Operations: sleep, par, alt, out, in, close, source and log, registered in a [Namespace]. Extensions embed [Base] and are added with [RegisterOperations].
//   - Channels: unbuffered rendezvous points. One receiver (an alt case or in) waits on the input side, senders queue on the output side in arrival order.
//   - Handles: values held across suspension live in a generation-checked [code.hybscloud.com/csp/registry.Registry].
//   - Units: processes run on [code.hybscloud.com/csp/unit.Unit], which steps a protocol one effect at a time.
//   - Sources: host code sends through an [OutputSource]. [Feed] bridges another goroutine through a lock-free SPSC queue from [code.hybscloud.com/lfq].
//
// # API Topologies
//
//   - Operations: [Perform] and [ExprPerform] request any registered operation by name.
//   - Cont-world: [Sleep], [Par], [Alt], [Out], [In], [Close], [Source], [Log] and the fused [SleepThen], [OutThen], [InBind], [AltThen], [ParThen], [CloseThen], [LogThen].
//   - Expr-world: [ExprSleepThen], [ExprOutThen], [ExprInBind], [ExprAltThen], [ExprParThen], [ExprCloseThen], [ExprLogThen].
//   - Recursive: [Loop], [ExprLoop] and [Repeat].
//   - Errors: a rejected call fails the calling process with an [*ArgError]; [Fail] raises a script error.
//
// # Alternation
//
// Alt takes (guard, closure) pairs. A guard is a *Channel, a number (an
// absolute deadline) or nil (the default case). Cases are scanned in
// argument order and a default case fires as soon as the scan reaches it:
// list it last to mean "only if nothing else is ready". Among expired
// deadlines the earliest wins, ties going to the first in argument order. An
// alt whose channel cases have all closed finishes without running a case.
//
// # Example
//
//	h := csp.Initialize()
//	defer csp.Shutdown(h)
//	ch := csp.NewChannel()
//	h.Go(csp.Closure(func(...any) kont.Eff[struct{}] {
//		return csp.OutThen(ch, "ping", csp.Done())
//	}))
//	h.Go(csp.Closure(func(...any) kont.Eff[struct{}] {
//		return csp.AltThen(csp.Done(),
//			ch, csp.Closure(func(v ...any) kont.Eff[struct{}] {
//				return csp.LogThen(csp.Done(), v...)
//			}),
//			5.0, csp.Closure(func(...any) kont.Eff[struct{}] {
//				return csp.LogThen(csp.Done(), "timeout")
//			}),
//		)
//	}))
//	h.Run(0.1, 0)
package csp
