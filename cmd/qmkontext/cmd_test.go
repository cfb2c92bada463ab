package main

import (
	"context"
	"testing"
	"time"

	"github.com/TheAlpha16/qmkontext"
	"github.com/TheAlpha16/qmkontext/internal/activewindow"
	"github.com/TheAlpha16/qmkontext/internal/config"
	"github.com/TheAlpha16/qmkontext/internal/shellpoll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg, err := config.Parse([]byte(`
debug_mode: true
current_program:
  enable: true
  command_id: 1
  interval_seconds: 1
  default_value: 7
  mappings:
    - key: firefox
      value: 3
custom_commands:
  - command: "echo 5"
    command_id: 2
    interval_seconds: 30
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestParseReport(t *testing.T) {
	r, err := parseReport("0x10", "42")
	require.NoError(t, err)
	assert.Equal(t, qmkontext.Report{Command: 0x10, Data: 42}, r)

	for _, args := range [][2]string{{"", "1"}, {"1", ""}, {"256", "1"}, {"1", "-1"}, {"x", "1"}} {
		_, err := parseReport(args[0], args[1])
		assert.Error(t, err, args)
	}
}

func TestPollers(t *testing.T) {
	pcs := pollers(testConfig(t))
	require.Len(t, pcs, 2)

	assert.Equal(t, "current_program", pcs[0].Name)
	assert.Equal(t, qmkontext.CommandID(1), pcs[0].Command)
	assert.Equal(t, time.Second, pcs[0].Interval)
	aw, ok := pcs[0].Poller.(*activewindow.Poller)
	require.True(t, ok)
	assert.Equal(t, byte(7), aw.Default)
	assert.Equal(t, []activewindow.Mapping{{Key: "firefox", Value: 3}}, aw.Mappings)

	assert.Equal(t, "custom_commands[0]", pcs[1].Name)
	assert.Equal(t, qmkontext.CommandID(2), pcs[1].Command)
	assert.Equal(t, 30*time.Second, pcs[1].Interval)
	assert.Equal(t, shellpoll.Poller{Command: "echo 5"}, pcs[1].Poller)
}

func TestPollersDisabledCurrentProgram(t *testing.T) {
	cfg := testConfig(t)
	cfg.CurrentProgram.Enable = false
	cfg.CustomCommands = nil
	assert.Empty(t, pollers(cfg))
}

func TestEmulatedRegistry(t *testing.T) {
	reg := emulatedRegistry(context.Background(), testConfig(t))

	assert.True(t, reg.Dispatch([]byte{1, 3}, 2))
	assert.True(t, reg.Dispatch([]byte{2, 0}, 2))
	assert.False(t, reg.Dispatch([]byte{3, 0}, 2))

	_, err := reg.DispatchReport([]byte{1, 3}, 40)
	assert.ErrorIs(t, err, qmkontext.ErrLengthMismatch)
}

func TestOpenKeyboardDebugMode(t *testing.T) {
	sink, release, err := openKeyboard(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer release()
	assert.IsType(t, qmkontext.LogSink{}, sink)
}

func TestOpenKeyboardRequiresIDs(t *testing.T) {
	cfg := testConfig(t)
	cfg.DebugMode = false
	_, _, err := openKeyboard(context.Background(), cfg)
	assert.ErrorContains(t, err, "vendor_id")
}

func TestOpenTransportRequiresAddr(t *testing.T) {
	_, err := openTransport(testConfig(t))
	assert.ErrorContains(t, err, "relay.addr")
}
