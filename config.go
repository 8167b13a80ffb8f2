// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name of the default tracer.
const TracerName = "code.hybscloud.com/csp"

// Config holds host settings.
type Config struct {
	// Logger receives process failures, log operation output and
	// scheduler warnings.
	Logger *slog.Logger
	// Tracer opens one span per tick.
	Tracer trace.Tracer
	// MaxEvaluations bounds a single scheduling pass. Zero means unbounded.
	MaxEvaluations int
}

// DefaultConfig is the configuration used by Initialize.
// Logger nil resolves to slog.Default() at Initialize.
var DefaultConfig = Config{
	Tracer: noop.NewTracerProvider().Tracer(TracerName),
}

// Option modifies a host configuration.
type Option func(*Config)

// WithLogger sets the host logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTracer sets the tracer ticks are reported to.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
	}
}

// WithMaxEvaluations bounds the number of process evaluations in one
// scheduling pass. Work left over stays queued for the next pass.
func WithMaxEvaluations(n int) Option {
	return func(c *Config) {
		c.MaxEvaluations = n
	}
}
