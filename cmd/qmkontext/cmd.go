package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/activewindow"
	"github.com/TheAlpha16/qmkontext/internal/config"
	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/TheAlpha16/qmkontext/internal/hid"
	"github.com/TheAlpha16/qmkontext/internal/shellpoll"
	"github.com/urfave/cli/v3"
)

const configFlag = "config"

// RootCmd runs the daemon when no subcommand is given.
var RootCmd = &cli.Command{
	Name:      "qmkontext",
	Usage:     "send desktop context to a QMK keyboard over raw HID",
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "path to the YAML config file",
			TakesFile: true,
		},
	},
	Commands: []*cli.Command{
		RunCmd,
		ListCmd,
		SendCmd,
		RelayCmd,
		EmulateCmd,
	},
	Action: runAction,
}

// loadConfig reads the config named by --config and applies its log level.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error reading config: %v", err), 1)
	}
	if err := ctxlog.SetLevel(cfg.LogLevel); err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	ctxlog.Info(ctx, "using config file", "path", cfg.Path)
	return cfg, nil
}

// pollers builds one poller per enabled source in cfg.
func pollers(cfg *config.Config) []qmkontext.PollerConfig {
	var out []qmkontext.PollerConfig

	if cp := cfg.CurrentProgram; cp.Enable {
		mappings := make([]activewindow.Mapping, 0, len(cp.Mappings))
		for _, m := range cp.Mappings {
			mappings = append(mappings, activewindow.Mapping{Key: m.Key, Value: m.Value})
		}
		out = append(out, qmkontext.PollerConfig{
			Name:     "current_program",
			Command:  qmkontext.CommandID(cp.CommandID),
			Interval: cp.Interval(),
			Poller: &activewindow.Poller{
				Mappings:  mappings,
				Default:   cp.DefaultValue,
				Lowercase: cp.UseLowercase,
			},
		})
	}

	for i, cc := range cfg.CustomCommands {
		out = append(out, qmkontext.PollerConfig{
			Name:     "custom_commands[" + strconv.Itoa(i) + "]",
			Command:  qmkontext.CommandID(cc.CommandID),
			Interval: cc.Interval(),
			Poller:   shellpoll.Poller{Command: cc.Command},
		})
	}

	return out
}

// openKeyboard returns the sink reports for the keyboard go to: the HID
// device, or a LogSink in debug mode. The returned func releases it.
func openKeyboard(ctx context.Context, cfg *config.Config) (qmkontext.Sink, func(), error) {
	if cfg.DebugMode {
		ctxlog.Info(ctx, "debug mode, reports are logged instead of sent")
		return qmkontext.LogSink{}, func() {}, nil
	}

	if cfg.Keyboard.VendorID == 0 && cfg.Keyboard.ProductID == 0 {
		return nil, nil, cli.Exit("keyboard.vendor_id and keyboard.product_id are required", 1)
	}

	dev, err := hid.Open(ctx, hid.Selector{
		VendorID:  cfg.Keyboard.VendorID,
		ProductID: cfg.Keyboard.ProductID,
		Usage:     cfg.Keyboard.Usage,
		UsagePage: cfg.Keyboard.UsagePage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing HID: %w", err)
	}
	return dev, func() {
		if err := dev.Close(); err != nil {
			ctxlog.Warn(ctx, "closing hid device", "error", err)
		}
	}, nil
}

// openTransport connects to the configured valkey relay.
func openTransport(cfg *config.Config, opts ...qmkontext.Option) (*qmkontext.ValkeyTransport, error) {
	if cfg.Relay.Addr == "" {
		return nil, cli.Exit("relay.addr is required", 1)
	}
	t, err := qmkontext.NewValkeyTransportWithAddress(cfg.Relay.Addr, cfg.Relay.Channel, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to valkey at %s: %w", cfg.Relay.Addr, err)
	}
	return t, nil
}

// ignoreCanceled maps a shutdown caused by a signal to a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
