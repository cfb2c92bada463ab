package qmkontext

import (
	"context"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
)

// Sink delivers reports to the keyboard, or to something standing in for it.
type Sink interface {
	Send(ctx context.Context, report Report) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, report Report) error

func (f SinkFunc) Send(ctx context.Context, report Report) error {
	return f(ctx, report)
}

// LogSink logs every report instead of sending it anywhere.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, report Report) error {
	ctxlog.Info(ctx, "report", "command_id", report.Command, "data", report.Data)
	return nil
}

// RegistrySink dispatches reports into a local Registry, as the keyboard
// would on receiving them.
type RegistrySink struct {
	Registry *Registry
}

func (s RegistrySink) Send(ctx context.Context, report Report) error {
	frame, _ := report.MarshalBinary()
	handled, err := s.Registry.DispatchReport(frame, len(frame))
	if err != nil {
		return err
	}
	if !handled {
		ctxlog.Debug(ctx, "report not handled", "command_id", report.Command, "data", report.Data)
	}
	return nil
}

// TransportSink publishes reports on a Transport.
type TransportSink struct {
	Transport Transport
}

func (s TransportSink) Send(ctx context.Context, report Report) error {
	return s.Transport.Publish(ctx, report)
}
