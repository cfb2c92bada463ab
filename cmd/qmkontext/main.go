// Command qmkontext sends desktop context, such as the focused program, to a
// QMK keyboard over raw HID.
package main

import (
	"context"
	"os"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/TheAlpha16/qmkontext/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)
	go signalbroker.Watch(ctx, sigCh, cancel)

	if err := RootCmd.Run(ctx, os.Args); err != nil {
		ctxlog.Error(ctx, "command failed", "error", err)
		os.Exit(1)
	}
}
