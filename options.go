package qmkontext

import "context"

// ErrorHandler is a user-provided callback for send, poll and decode errors
type ErrorHandler func(ctx context.Context, report Report, err error)
type Option func(*Options)

type Options struct {
	MsgBufferSize   int
	OnError         ErrorHandler
	StopOnSinkError bool
}

func defaultOptions() Options {
	return Options{
		MsgBufferSize: 10,
		OnError: func(ctx context.Context, report Report, err error) {
			// Default: no-op
		},
	}
}

func newOptions(opts []Option) Options {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithMsgBufferSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.MsgBufferSize = size
		}
	}
}

func WithOnError(handler ErrorHandler) Option {
	return func(o *Options) {
		if handler != nil {
			o.OnError = handler
		}
	}
}

// WithStopOnSinkError makes the engine stop at the first failed send instead
// of reporting it and carrying on.
func WithStopOnSinkError(stop bool) Option {
	return func(o *Options) {
		o.StopOnSinkError = stop
	}
}
