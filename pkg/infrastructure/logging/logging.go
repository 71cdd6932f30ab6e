// Package logging builds the logr.Logger handed to builders and backends and
// carries it through context.Context.
package logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// Format selects the log encoder
type Format string

const (
	// FormatConsole writes human-readable zap output to stderr
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line to stderr
	FormatJSON Format = "json"
	// FormatPlain writes through the standard library logger
	FormatPlain Format = "plain"
)

// New creates a logger that shows V-levels up to verbosity
func New(format Format, verbosity int) (logr.Logger, error) {
	if verbosity < 0 {
		return logr.Discard(), fmt.Errorf("logging: verbosity cannot be negative, got %d", verbosity)
	}

	switch format {
	case FormatPlain:
		stdr.SetVerbosity(verbosity)
		return stdr.New(log.New(os.Stderr, "", log.LstdFlags)), nil
	case FormatConsole, FormatJSON, "":
	default:
		return logr.Discard(), fmt.Errorf("logging: unknown format %q", format)
	}

	cfg := zap.NewProductionConfig()
	if format != FormatJSON {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	// zapr maps V(n) to zap level -n
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.Sampling = nil
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("logging: build zap logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// NewContext returns a context carrying log
func NewContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger carried by ctx, or a discarding logger
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// Time logs the duration of an operation and its error, if any. Use it as
//
//	defer logging.Time(ctx, "allocation.build")(&err)
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	log := FromContext(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Error(*errp, "operation failed", "op", op, "dur", dur)
			return
		}
		log.V(DEBUG).Info("operation finished", "op", op, "dur", dur)
	}
}
