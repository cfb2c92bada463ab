package qmkontext

import "context"

// Transport defines the interface for relaying reports between processes
type Transport interface {
	// Publish sends a report to the transport layer
	Publish(ctx context.Context, report Report) error

	// Subscribe starts listening for reports on the transport
	Subscribe(ctx context.Context) error

	// Messages returns a channel that receives reports from the transport
	// This channel is closed when the transport is closed
	Messages() <-chan Report

	// Close shuts down the transport and releases resources
	Close() error

	// IsConnected returns true if the transport is connected and ready
	IsConnected() bool
}
