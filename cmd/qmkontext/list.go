package main

import (
	"context"
	"fmt"

	"github.com/TheAlpha16/qmkontext/internal/hid"
	"github.com/urfave/cli/v3"
)

// ListCmd prints every HID interface, to help fill in the keyboard section.
var ListCmd = &cli.Command{
	Name:   "list",
	Usage:  "list HID devices with their vendor id, product id, usage and usage page",
	Action: listAction,
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	devices, err := hid.List()
	if err != nil {
		return fmt.Errorf("error listing devices: %w", err)
	}
	for _, d := range devices {
		fmt.Fprintln(cmd.Root().Writer, d.String())
	}
	return nil
}
