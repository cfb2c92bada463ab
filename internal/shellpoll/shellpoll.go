// Package shellpoll turns the output of a user-defined shell command into a
// data byte.
package shellpoll

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/TheAlpha16/qmkontext/internal/execx"
)

// ErrOutput is returned when the command does not print a value in 0..255.
var ErrOutput = errors.New("command output is not a byte value")

// Poller runs Command with bash on every poll.
type Poller struct {
	Command string
}

func (p Poller) Poll(ctx context.Context) (byte, error) {
	res, err := execx.Shell(ctx, p.Command)
	if err != nil {
		return 0, fmt.Errorf("command %q: %w", p.Command, err)
	}
	return Parse(res.Stdout)
}

// Parse converts command output into a byte.
func Parse(output string) (byte, error) {
	value := execx.Clean(output)
	n, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: output=%q", ErrOutput, value)
	}
	return byte(n), nil
}
