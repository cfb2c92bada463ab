package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/TheAlpha16/qmkontext"
	"github.com/urfave/cli/v3"
)

// SendCmd sends a single report, for testing keymaps by hand.
var SendCmd = &cli.Command{
	Name:      "send",
	Usage:     "send one report to the keyboard",
	ArgsUsage: "COMMAND_ID DATA",
	Action:    sendAction,
}

func sendAction(ctx context.Context, cmd *cli.Command) error {
	report, err := parseReport(cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	var sink qmkontext.Sink
	if !cfg.DebugMode && cfg.Relay.Publish {
		transport, err := openTransport(cfg)
		if err != nil {
			return err
		}
		defer transport.Close()
		sink = qmkontext.TransportSink{Transport: transport}
	} else {
		keyboard, release, err := openKeyboard(ctx, cfg)
		if err != nil {
			return err
		}
		defer release()
		sink = keyboard
	}

	return sink.Send(ctx, report)
}

// parseReport accepts decimal or 0x-prefixed values.
func parseReport(command, data string) (qmkontext.Report, error) {
	if command == "" || data == "" {
		return qmkontext.Report{}, fmt.Errorf("usage: send COMMAND_ID DATA")
	}
	c, err := strconv.ParseUint(command, 0, 8)
	if err != nil {
		return qmkontext.Report{}, fmt.Errorf("invalid command id %q: must be 0-255", command)
	}
	d, err := strconv.ParseUint(data, 0, 8)
	if err != nil {
		return qmkontext.Report{}, fmt.Errorf("invalid data %q: must be 0-255", data)
	}
	return qmkontext.Report{Command: qmkontext.CommandID(c), Data: byte(d)}, nil
}
