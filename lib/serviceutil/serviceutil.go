package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext returns a context that is cancelled once Ctrl+C is pressed or the
// process is asked to terminate.
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			slog.Warn("received signal, cancelling", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx
}

var exit = os.Exit

// Fatal logs the error and exits with status 1, running `cleanups` in order first
// since deferred functions do not run on exit.
func Fatal(message string, err error, cleanups ...func()) {
	slog.Error(message, "err", err.Error())
	for _, cleanup := range cleanups {
		cleanup()
	}
	exit(1)
}

// Timed runs fn and logs how long it took under `phase`.
func Timed(phase string, fn func()) time.Duration {
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	slog.Info("phase finished", "phase", phase, "seconds", elapsed.Seconds())
	return elapsed
}
