// Package activewindow maps the focused X11 window to a data byte.
//
// The focused window is resolved with xdotool; the program binary is read
// from /proc/<pid>/cmdline.
package activewindow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/TheAlpha16/qmkontext/internal/ctxlog"
	"github.com/TheAlpha16/qmkontext/internal/execx"
	"github.com/spf13/afero"
)

// ErrNoActiveProgram is returned when the focused program cannot be resolved.
var ErrNoActiveProgram = errors.New("cannot get current program")

// FsFactory returns the file system /proc is read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Program describes the focused window.
type Program struct {
	Binary string
	Name   string
}

// Current returns the program owning the focused window.
func Current(ctx context.Context) (Program, error) {
	pidOut, err := xdotool(ctx, "getwindowpid")
	if err != nil {
		return Program{}, err
	}
	pid, err := strconv.Atoi(pidOut)
	if err != nil {
		ctxlog.Warn(ctx, "parsing window pid", "pid", pidOut, "error", err)
		return Program{}, fmt.Errorf("%w: invalid pid %q", ErrNoActiveProgram, pidOut)
	}

	binary, err := binaryOf(pid)
	if err != nil {
		return Program{}, err
	}

	name, err := xdotool(ctx, "getwindowname")
	if err != nil {
		return Program{}, err
	}

	return Program{Binary: binary, Name: name}, nil
}

func xdotool(ctx context.Context, query string) (string, error) {
	res, err := execx.Run(ctx, "xdotool", "getwindowfocus", query)
	if err != nil {
		ctxlog.Warn(ctx, "xdotool failed", "query", query, "error", err)
		return "", fmt.Errorf("%w: %v", ErrNoActiveProgram, err)
	}
	return execx.Clean(res.Stdout), nil
}

func binaryOf(pid int) (string, error) {
	raw, err := afero.ReadFile(FsFactory(), fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoActiveProgram, err)
	}
	fields := strings.FieldsFunc(string(bytes.TrimRight(raw, "\x00")), func(r rune) bool {
		return r == 0 || r == ' '
	})
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty cmdline for pid %d", ErrNoActiveProgram, pid)
	}
	return fields[0], nil
}

// Mapping associates a program key with the data byte sent when it is focused.
type Mapping struct {
	Key   string
	Value byte
}

// Poller reports the value of the first mapping whose key appears in the
// focused window name or binary, or Default when none does.
type Poller struct {
	Mappings  []Mapping
	Default   byte
	Lowercase bool

	// Lookup resolves the focused program. Defaults to Current.
	Lookup func(ctx context.Context) (Program, error)
}

func (p *Poller) Poll(ctx context.Context) (byte, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = Current
	}
	prog, err := lookup(ctx)
	if err != nil {
		return 0, err
	}
	return p.Match(ctx, prog), nil
}

// Match returns the byte for prog.
func (p *Poller) Match(ctx context.Context, prog Program) byte {
	binary, name := prog.Binary, prog.Name
	if p.Lowercase {
		binary, name = strings.ToLower(binary), strings.ToLower(name)
	}
	ctxlog.Debug(ctx, "focused program", "binary", binary, "name", name)

	for _, m := range p.Mappings {
		key := m.Key
		if p.Lowercase {
			key = strings.ToLower(key)
		}
		if strings.Contains(name, key) {
			ctxlog.Debug(ctx, "found program in window name", "key", key)
			return m.Value
		}
		if strings.Contains(binary, key) {
			ctxlog.Debug(ctx, "found program in binary", "key", key)
			return m.Value
		}
	}

	ctxlog.Debug(ctx, "focused program not mapped, using default")
	return p.Default
}
