// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// sleepOp waits for a number of simulated seconds.
type sleepOp struct {
	Base
	remaining Time
}

func (op *sleepOp) Init(args Args) error {
	seconds, ok := args.Number(0)
	if !ok {
		return args.Error(0, "seconds expected")
	}
	if args.Len() > 1 {
		return &ArgError{Msg: "exactly one argument expected"}
	}
	op.remaining = seconds
	op.SetFinished(op.remaining <= 0)
	return nil
}

func (op *sleepOp) Work(_ *Host, dt Time) WorkResult {
	op.remaining -= dt
	if op.remaining > 0 {
		return Yield
	}
	return Finish
}
