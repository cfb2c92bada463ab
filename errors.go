package qmkontext

import "errors"

var (
	ErrShortReport           = errors.New("report shorter than 2 bytes")
	ErrLengthMismatch        = errors.New("declared report length does not match buffer")
	ErrPublishFailed         = errors.New("failed to publish report")
	ErrSubscribeFailed       = errors.New("failed to subscribe to channel")
	ErrTransportNotConnected = errors.New("transport not connected")
	ErrEngineNotStarted      = errors.New("engine not started")
	ErrEngineAlreadyStarted  = errors.New("engine already started")
	ErrSourceAlreadyStarted  = errors.New("source already started")
	ErrNoPollers             = errors.New("no pollers configured")
)
