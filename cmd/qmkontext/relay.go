package main

import (
	"context"
	"fmt"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// RelayCmd forwards reports published on valkey to the local keyboard, so
// several machines can drive one keyboard.
var RelayCmd = &cli.Command{
	Name:   "relay",
	Usage:  "forward reports from the valkey channel to the keyboard",
	Action: relayAction,
}

func relayAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	onError := func(ctx context.Context, report qmkontext.Report, err error) {
		ctxlog.Warn(ctx, "relay error", "command_id", report.Command, "error", err)
	}
	transport, err := openTransport(cfg, qmkontext.WithOnError(onError))
	if err != nil {
		return err
	}

	keyboard, release, err := openKeyboard(ctx, cfg)
	if err != nil {
		transport.Close()
		return err
	}
	defer release()

	ctxlog.Info(ctx, "relaying reports", "addr", cfg.Relay.Addr, "channel", cfg.Relay.Channel)
	engine := qmkontext.NewEngine(qmkontext.NewTransportSource(transport), keyboard, qmkontext.WithOnError(onError))
	if err := ignoreCanceled(engine.Run(ctx)); err != nil {
		return fmt.Errorf("relay stopped: %w", err)
	}
	return nil
}
