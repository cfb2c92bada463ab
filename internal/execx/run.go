// Package execx runs short-lived helper processes and captures their output.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured outcome of a process.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Runner runs name with args. Tests replace Run with a fake.
type Runner func(ctx context.Context, name string, args ...string) (Result, error)

// Run is the Runner used by the pollers.
var Run Runner = run

func run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.Code = ee.ExitCode()
			return res, fmt.Errorf("%s exited with %d: %s", name, res.Code, Clean(res.Stderr))
		}
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}

// Shell runs command through /bin/bash -c.
func Shell(ctx context.Context, command string) (Result, error) {
	return Run(ctx, "/bin/bash", "-c", command)
}

// Clean trims surrounding whitespace and removes newlines.
func Clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "")
}
