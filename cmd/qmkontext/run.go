package main

import (
	"context"
	"fmt"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// RunCmd polls the configured sources and sends their reports.
var RunCmd = &cli.Command{
	Name:        "run",
	Usage:       "poll the configured sources and send reports to the keyboard",
	Description: "Runs until interrupted. Reports go to the HID device, to the log in debug mode, or to the valkey relay when relay.publish is set.",
	Action:      runAction,
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	pcs := pollers(cfg)
	if len(pcs) == 0 {
		return cli.Exit("nothing to do: enable current_program or add custom_commands", 1)
	}

	onError := func(ctx context.Context, report qmkontext.Report, err error) {
		ctxlog.Debug(ctx, "report error", "command_id", report.Command, "error", err)
	}
	source := qmkontext.NewPollingSource(pcs, qmkontext.WithMsgBufferSize(10), qmkontext.WithOnError(onError))

	var sink qmkontext.Sink
	switch {
	case !cfg.DebugMode && cfg.Relay.Publish:
		transport, err := openTransport(cfg)
		if err != nil {
			return err
		}
		defer transport.Close()
		ctxlog.Info(ctx, "publishing reports to valkey", "addr", cfg.Relay.Addr, "channel", cfg.Relay.Channel)
		sink = qmkontext.TransportSink{Transport: transport}
	default:
		keyboard, release, err := openKeyboard(ctx, cfg)
		if err != nil {
			return err
		}
		defer release()
		sink = keyboard
	}

	engine := qmkontext.NewEngine(source, sink, qmkontext.WithStopOnSinkError(!cfg.DebugMode), qmkontext.WithOnError(onError))
	if err := ignoreCanceled(engine.Run(ctx)); err != nil {
		return fmt.Errorf("error in loop: %w", err)
	}
	return nil
}
