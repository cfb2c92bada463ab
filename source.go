package qmkontext

import (
	"context"
	"sync"
	"time"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
)

// Source produces reports to be sent to the keyboard.
type Source interface {
	// Events returns the channel reports are delivered on. It is closed once
	// the source has stopped.
	Events() <-chan Report

	// Start begins producing reports until ctx is cancelled.
	Start(ctx context.Context) error
}

// Poller computes the data byte for one command each time it is polled.
type Poller interface {
	Poll(ctx context.Context) (byte, error)
}

// PollerFunc adapts a function to the Poller interface.
type PollerFunc func(ctx context.Context) (byte, error)

func (f PollerFunc) Poll(ctx context.Context) (byte, error) {
	return f(ctx)
}

// PollerConfig schedules a Poller for a command id.
type PollerConfig struct {
	Name     string
	Command  CommandID
	Interval time.Duration
	Poller   Poller
}

// PollingSource runs every configured poller on its own interval.
type PollingSource struct {
	pollers []PollerConfig
	events  chan Report
	options Options

	mu      sync.Mutex
	started bool
}

// NewPollingSource creates a source for the given pollers.
func NewPollingSource(pollers []PollerConfig, opts ...Option) *PollingSource {
	options := newOptions(opts)
	return &PollingSource{
		pollers: pollers,
		events:  make(chan Report, options.MsgBufferSize),
		options: options,
	}
}

func (s *PollingSource) Events() <-chan Report {
	return s.events
}

// Start launches one goroutine per poller. Each poller runs once
// immediately and then on every tick.
func (s *PollingSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSourceAlreadyStarted
	}
	if len(s.pollers) == 0 {
		return ErrNoPollers
	}
	s.started = true

	var wg sync.WaitGroup
	for _, pc := range s.pollers {
		wg.Add(1)
		go func(pc PollerConfig) {
			defer wg.Done()
			s.loop(ctxlog.With(ctx, "poller", pc.Name, "command_id", pc.Command), pc)
		}(pc)
	}

	go func() {
		wg.Wait()
		close(s.events)
	}()

	return nil
}

func (s *PollingSource) loop(ctx context.Context, pc PollerConfig) {
	interval := pc.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.step(ctx, pc)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *PollingSource) step(ctx context.Context, pc PollerConfig) {
	data, err := pc.Poller.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ctxlog.Error(ctx, "poll failed", "error", err)
		s.options.OnError(ctx, Report{Command: pc.Command}, err)
		return
	}

	report := Report{Command: pc.Command, Data: data}
	ctxlog.Debug(ctx, "polled", "data", data)

	select {
	case s.events <- report:
	case <-ctx.Done():
	}
}

// TransportSource delivers reports received from a Transport subscription.
type TransportSource struct {
	transport Transport
}

func NewTransportSource(transport Transport) *TransportSource {
	return &TransportSource{transport: transport}
}

func (s *TransportSource) Events() <-chan Report {
	return s.transport.Messages()
}

// Start subscribes the transport and closes it when ctx is cancelled.
func (s *TransportSource) Start(ctx context.Context) error {
	if !s.transport.IsConnected() {
		return ErrTransportNotConnected
	}
	if err := s.transport.Subscribe(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := s.transport.Close(); err != nil {
			ctxlog.Warn(ctx, "closing transport", "error", err)
		}
	}()
	return nil
}
