package execx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "42", Clean("  42\n"))
	assert.Equal(t, "ab", Clean("a\nb\n"))
	assert.Equal(t, "", Clean("\n\n"))
}

func TestShell(t *testing.T) {
	if _, err := Run(context.Background(), "/bin/bash", "-c", "true"); err != nil {
		t.Skip("bash not available")
	}

	res, err := Shell(context.Background(), "echo 7")
	require.NoError(t, err)
	assert.Equal(t, "7", Clean(res.Stdout))

	res, err = Shell(context.Background(), "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, res.Code)
	assert.Contains(t, err.Error(), "oops")
}
