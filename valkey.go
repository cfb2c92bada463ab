package qmkontext

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/valkey-io/valkey-go"
)

type ValkeyTransport struct {
	client       valkey.Client
	channel      string
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	isSubscribed bool
	connected    bool
	msgChan      chan Report
	closedChan   chan struct{}
	once         sync.Once
	options      Options
	log          *slog.Logger
}

// Publish publishes a report to the valkey channel as its two byte frame
func (v *ValkeyTransport) Publish(ctx context.Context, report Report) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.connected {
		return ErrTransportNotConnected
	}

	frame, _ := report.MarshalBinary()
	cmd := v.client.B().Publish().Channel(v.channel).Message(valkey.BinaryString(frame)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		v.log.Warn("valkey publish failed", "channel", v.channel, "report", report, "error", err)
		return ErrPublishFailed
	}

	return nil
}

// Subscribe starts subscribing to the valkey channel
func (v *ValkeyTransport) Subscribe(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.isSubscribed {
		return nil
	}

	if !v.connected {
		return ErrTransportNotConnected
	}

	v.log = ctxlog.Logger(ctx).With("channel", v.channel)
	go v.subscriptionLoop()

	v.isSubscribed = true
	return nil
}

// subscriptionLoop keeps a subscription open until the transport is closed,
// reconnecting with exponential backoff.
func (v *ValkeyTransport) subscriptionLoop() {
	defer func() {
		v.mu.Lock()
		v.isSubscribed = false
		close(v.msgChan)
		v.mu.Unlock()
	}()

	retryDelay := 100 * time.Millisecond
	maxRetryDelay := 30 * time.Second
	subscriber := v.client.B().Subscribe().Channel(v.channel).Build()

	for {
		if v.shouldStop() {
			return
		}

		// Blocks until an error occurs or the context is cancelled
		err := v.client.Receive(v.ctx, subscriber, v.handleMessage)

		if err != nil {
			if v.shouldStop() {
				return
			}

			v.log.Warn("valkey subscription lost", "error", err, "retry_in", retryDelay)
			if !v.sleep(retryDelay) {
				return
			}
			retryDelay *= 2
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			continue
		}

		if v.shouldStop() {
			return
		}

		retryDelay = 100 * time.Millisecond
		if !v.sleep(100 * time.Millisecond) {
			return
		}
	}
}

// handleMessage decodes a frame from the subscription
func (v *ValkeyTransport) handleMessage(msg valkey.PubSubMessage) {
	if msg.Channel != v.channel {
		return
	}

	var report Report
	if err := report.UnmarshalBinary([]byte(msg.Message)); err != nil {
		v.log.Debug("dropping undecodable message", "size", len(msg.Message), "error", err)
		v.options.OnError(v.ctx, Report{}, err)
		return
	}

	// Non-blocking to keep the subscription responsive
	select {
	case v.msgChan <- report:
	case <-v.closedChan:
		return
	case <-v.ctx.Done():
		return
	default:
		v.log.Warn("message buffer full, dropping report", "report", report)
	}
}

// Messages returns a channel that receives reports from the transport
func (v *ValkeyTransport) Messages() <-chan Report {
	return v.msgChan
}

// Close shuts down the valkey transport and cleans up resources
func (v *ValkeyTransport) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected {
		return nil
	}

	v.once.Do(func() {
		close(v.closedChan)
		v.cancel()
		v.client.Close()
		v.connected = false
	})

	return nil
}

// IsConnected returns true if the transport is connected and ready
func (v *ValkeyTransport) IsConnected() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.connected
}

func (v *ValkeyTransport) shouldStop() bool {
	select {
	case <-v.closedChan:
		return true
	case <-v.ctx.Done():
		return true
	default:
		return false
	}
}

// sleep waits for d and reports false if the transport closed meanwhile.
func (v *ValkeyTransport) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-v.closedChan:
		return false
	case <-v.ctx.Done():
		return false
	}
}

// NewValkeyClient creates a new valkey client with common configuration
func NewValkeyClient(address string, options ...valkey.ClientOption) (valkey.Client, error) {
	var clientOption valkey.ClientOption
	if len(options) > 0 {
		clientOption = options[0]
	}
	if len(clientOption.InitAddress) == 0 {
		clientOption.InitAddress = []string{address}
	}

	return valkey.NewClient(clientOption)
}

// NewValkeyTransport creates a new valkey transport instance
func NewValkeyTransport(client valkey.Client, channel string, opts ...Option) *ValkeyTransport {
	ctx, cancel := context.WithCancel(context.Background())

	options := newOptions(opts)

	return &ValkeyTransport{
		client:     client,
		channel:    channel,
		ctx:        ctx,
		cancel:     cancel,
		connected:  true,
		msgChan:    make(chan Report, options.MsgBufferSize),
		closedChan: make(chan struct{}),
		options:    options,
		log:        ctxlog.DefaultLogger.With("channel", channel),
	}
}

// NewValkeyTransportWithAddress connects to address and returns a transport
// on channel.
func NewValkeyTransportWithAddress(address, channel string, opts ...Option) (*ValkeyTransport, error) {
	client, err := NewValkeyClient(address)
	if err != nil {
		return nil, err
	}
	return NewValkeyTransport(client, channel, opts...), nil
}
