// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/kont"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a ping-pong between two processes",
	Long: `demo runs a pinger and a ponger over two channels. The ponger answers
each round later than the last; the pinger waits on an alt with a timeout
and closes both channels once a reply is late.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

var (
	demoDt      float64
	demoRounds  int
	demoTimeout float64
	demoDelay   float64
)

func init() {
	demoCmd.Flags().Float64Var(&demoDt, "dt", 0.5, "Simulation seconds per tick")
	demoCmd.Flags().IntVar(&demoRounds, "rounds", 5, "Number of pings")
	demoCmd.Flags().Float64Var(&demoTimeout, "timeout", 2, "Seconds the pinger waits for each reply")
	demoCmd.Flags().Float64Var(&demoDelay, "delay", 0.75, "Reply delay added per round")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if demoDt <= 0 {
		return fmt.Errorf("--dt must be positive, got %v", demoDt)
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	h := csp.Initialize(csp.WithLogger(logger))
	defer csp.Shutdown(h)

	ping, pong := csp.NewChannel(), csp.NewChannel()
	if _, err := h.Go(pinger(h, ping, pong)); err != nil {
		return err
	}
	if _, err := h.Go(ponger(ping, pong)); err != nil {
		return err
	}

	ticks := h.Run(demoDt, 1<<16)
	logger.Info("demo finished", "ticks", ticks, "time", h.Time(), "failures", h.Failures())
	return nil
}

// pinger sends numbered pings and waits for each reply until a timeout,
// then closes both channels.
func pinger(h *csp.Host, ping, pong *csp.Channel) csp.Closure {
	return func(...any) kont.Eff[struct{}] {
		timedOut := false
		onPong := csp.Closure(func(v ...any) kont.Eff[struct{}] {
			return csp.LogThen(csp.Done(), append([]any{"pong"}, v...)...)
		})
		onTimeout := csp.Closure(func(...any) kont.Eff[struct{}] {
			timedOut = true
			return csp.LogThen(csp.Done(), "reply timed out")
		})

		rounds := csp.Loop(0, func(i int) kont.Eff[kont.Either[int, struct{}]] {
			if i == demoRounds {
				return csp.Break[int](struct{}{})
			}
			return csp.OutThen(ping, i, kont.Bind(
				csp.Alt(pong, onPong, h.Time()+demoTimeout, onTimeout),
				func(csp.Values) kont.Eff[kont.Either[int, struct{}]] {
					if timedOut {
						return csp.Break[int](struct{}{})
					}
					return csp.Continue[int, struct{}](i + 1)
				},
			))
		})
		return kont.Then(rounds, csp.CloseThen(ping, csp.CloseThen(pong, csp.LogThen(csp.Done(), "pinger done"))))
	}
}

// ponger answers each ping after a delay that grows every round. It ends
// once ping is closed.
func ponger(ping, pong *csp.Channel) csp.Closure {
	return func(...any) kont.Eff[struct{}] {
		return csp.Loop(0, func(i int) kont.Eff[kont.Either[int, struct{}]] {
			return csp.InBind(ping, func(v csp.Values) kont.Eff[kont.Either[int, struct{}]] {
				if len(v) == 0 {
					return csp.Break[int](struct{}{})
				}
				return csp.SleepThen(float64(i)*demoDelay,
					csp.OutThen(pong, v[0], csp.Continue[int, struct{}](i+1)))
			})
		})
	}
}
