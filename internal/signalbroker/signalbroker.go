// Package signalbroker cancels the daemon context on termination signals.
// The first signal of a kind starts a graceful shutdown; the engine and
// transports stop when the context is cancelled.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New returns a channel notified of sigs, or of the termination signals when
// none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Watch cancels the context on the first signal received and returns. It
// also returns when ctx is done.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc) {
	select {
	case sig, ok := <-sigCh:
		if !ok {
			return
		}
		ctxlog.Info(ctx, "received signal, shutting down", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}
}

// Stop detaches ch from signal delivery.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
