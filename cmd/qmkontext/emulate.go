package main

import (
	"context"
	"fmt"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/config"
	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// EmulateCmd plays the keyboard: it subscribes to the valkey channel and
// dispatches every report through a command registry.
var EmulateCmd = &cli.Command{
	Name:   "emulate",
	Usage:  "dispatch reports from the valkey channel through a local command registry",
	Action: emulateAction,
}

// emulatedRegistry registers a logging handler for every command id the
// config produces. Other ids fall through to the unhandled fallback.
func emulatedRegistry(ctx context.Context, cfg *config.Config) *qmkontext.Registry {
	reg := qmkontext.NewRegistry(
		qmkontext.WithLengthPolicy(qmkontext.LengthChecked),
		qmkontext.WithOnMalformed(func(data []byte, err error) {
			ctxlog.Warn(ctx, "malformed report", "size", len(data), "error", err)
		}),
	)

	for _, pc := range pollers(cfg) {
		name := pc.Name
		id := pc.Command
		reg.Register(id, func(payload byte) bool {
			ctxlog.Info(ctx, "handled", "source", name, "command_id", id, "data", payload)
			return true
		})
	}
	return reg
}

func emulateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	transport, err := openTransport(cfg)
	if err != nil {
		return err
	}

	sink := qmkontext.RegistrySink{Registry: emulatedRegistry(ctx, cfg)}
	ctxlog.Info(ctx, "emulating keyboard", "addr", cfg.Relay.Addr, "channel", cfg.Relay.Channel)
	engine := qmkontext.NewEngine(qmkontext.NewTransportSource(transport), sink)
	if err := ignoreCanceled(engine.Run(ctx)); err != nil {
		return fmt.Errorf("emulator stopped: %w", err)
	}
	return nil
}
