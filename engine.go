package qmkontext

import (
	"context"
	"sync"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
)

// Engine pumps reports from a Source into a Sink
type Engine struct {
	source  Source
	sink    Sink
	options Options

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	err     error
	done    chan struct{}
	mu      sync.RWMutex
}

// NewEngine creates an engine sending every report of source to sink
func NewEngine(source Source, sink Sink, opts ...Option) *Engine {
	return &Engine{
		source:  source,
		sink:    sink,
		options: newOptions(opts),
	}
}

// Start starts the source and the pump goroutine
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrEngineAlreadyStarted
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	if err := e.source.Start(e.ctx); err != nil {
		e.cancel()
		return err
	}

	e.err = nil
	e.done = make(chan struct{})
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(e.done)
		e.pump()
	}()

	e.started = true
	ctxlog.Info(ctx, "engine started")
	return nil
}

// pump forwards reports until the source closes its channel, the context is
// cancelled or, with StopOnSinkError, a send fails.
func (e *Engine) pump() {
	events := e.source.Events()

	for {
		select {
		case report, ok := <-events:
			if !ok {
				return
			}

			if err := e.sink.Send(e.ctx, report); err != nil {
				ctxlog.Error(e.ctx, "send failed", "command_id", report.Command, "data", report.Data, "error", err)
				e.options.OnError(e.ctx, report, err)
				if e.options.StopOnSinkError {
					e.mu.Lock()
					e.err = err
					e.mu.Unlock()
					e.cancel()
					return
				}
			}

		case <-e.ctx.Done():
			return
		}
	}
}

// Run starts the engine and blocks until it stops. It returns the sink error
// that stopped it, or nil when ctx was cancelled or the source ran dry.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	e.mu.RLock()
	done := e.done
	e.mu.RUnlock()
	<-done

	e.mu.RLock()
	err := e.err
	e.mu.RUnlock()

	if shutdownErr := e.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// IsRunning returns true between Start and Shutdown
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started
}

// Shutdown stops the engine and waits for the pump goroutine
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.cancel()
	e.started = false
	e.mu.Unlock()

	// pump may take the lock to record its error
	e.wg.Wait()
	return nil
}
