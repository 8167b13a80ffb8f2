// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"code.hybscloud.com/csp"
	"code.hybscloud.com/kont"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log stdin lines through a channel until a deadline",
	Long: `run reads stdin lines on a producer goroutine into a feed. A source
process offers them on a channel; a reader process alternates between the
channel, end of input and a simulation-time deadline, logging each line.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runDt      float64
	runTicks   int
	runTimeout float64
	runPace    time.Duration
	runQueue   int
)

func init() {
	runCmd.Flags().Float64Var(&runDt, "dt", 0.1, "Simulation seconds per tick")
	runCmd.Flags().IntVar(&runTicks, "ticks", 0, "Stop after this many ticks (0 for no limit)")
	runCmd.Flags().Float64Var(&runTimeout, "timeout", 10, "Simulation time at which the reader gives up")
	runCmd.Flags().DurationVar(&runPace, "pace", 100*time.Millisecond, "Wall-clock delay between ticks")
	runCmd.Flags().IntVar(&runQueue, "queue", 64, "Feed capacity in lines")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runDt <= 0 {
		return fmt.Errorf("--dt must be positive, got %v", runDt)
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	h := csp.Initialize(csp.WithLogger(logger))
	defer csp.Shutdown(h)

	lines, eof := csp.NewChannel(), csp.NewChannel()
	feed := csp.NewFeed(runQueue)
	go produce(cmd.InOrStdin(), feed, logger)

	if _, err := h.Go(csp.Closure(func(...any) kont.Eff[struct{}] {
		return kont.Then(csp.Source(lines, feed), csp.OutThen(eof, true, csp.Done()))
	})); err != nil {
		return err
	}
	reader, err := h.Go(readLines(lines, eof, runTimeout))
	if err != nil {
		return err
	}

	h.Evaluate()
	ticks := 0
	for reader.IsRunning() && (runTicks <= 0 || ticks < runTicks) {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.TickContext(ctx, runDt)
		ticks++
		if runPace > 0 {
			time.Sleep(runPace)
		}
	}
	if reader.IsRunning() {
		logger.Warn("tick limit reached", "ticks", ticks, "time", h.Time())
	}
	if n := h.Failures(); n > 0 {
		return fmt.Errorf("%d process(es) failed", n)
	}
	return nil
}

// produce sends every line of r into feed and closes it at end of input.
func produce(r io.Reader, feed *csp.Feed, logger *slog.Logger) {
	defer feed.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := feed.Send(sc.Text()); err != nil {
			logger.Error("feed send", "err", err)
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.Error("read stdin", "err", err)
	}
}

// readLines returns a process body that logs lines until eof delivers or
// the deadline passes, then logs the line count and why it stopped.
func readLines(lines, eof *csp.Channel, deadline csp.Time) csp.Closure {
	return func(...any) kont.Eff[struct{}] {
		var stop string
		onLine := csp.Closure(func(v ...any) kont.Eff[struct{}] {
			return csp.LogThen(csp.Done(), v...)
		})
		onEOF := csp.Closure(func(...any) kont.Eff[struct{}] {
			return csp.Do(func() { stop = "eof" })
		})
		onTimeout := csp.Closure(func(...any) kont.Eff[struct{}] {
			return csp.Do(func() { stop = "timeout" })
		})

		count := csp.Loop(0, func(n int) kont.Eff[kont.Either[int, int]] {
			return kont.Bind(csp.Alt(lines, onLine, eof, onEOF, deadline, onTimeout), func(csp.Values) kont.Eff[kont.Either[int, int]] {
				if stop != "" {
					return csp.Break[int, int](n)
				}
				return csp.Continue[int, int](n + 1)
			})
		})
		return kont.Bind(count, func(n int) kont.Eff[struct{}] {
			return csp.LogThen(csp.Done(), "lines", n, "stop", stop)
		})
	}
}
