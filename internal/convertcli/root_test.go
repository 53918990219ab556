package convertcli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Tree(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"segments", "analysis", "cpd", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "verbose", "strict"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", root.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCommand_ArgCountIsUsageError(t *testing.T) {
	var out, errBuf bytes.Buffer
	root := NewRootCommand(&out, &errBuf)
	root.SetArgs([]string{"a", "b"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.True(t, IsUsage(err))
	assert.Contains(t, err.Error(), "expected 3 input files")
}

func TestRootCommand_StageArgCount(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs([]string{"cpd", "a", "b"})
	err := root.ExecuteContext(context.Background())
	assert.True(t, IsUsage(err), "err: %v", err)
}

func TestRootCommand_MissingInputIsNotUsage(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs([]string{"segments", "/nonexistent/segments.txt"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.False(t, IsUsage(err))
}

func TestIsUsage(t *testing.T) {
	assert.False(t, IsUsage(nil))
	assert.False(t, IsUsage(errors.New("x")))
	assert.True(t, IsUsage(usagef("bad %s", "thing")))
}

func TestRouteArgs(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	cases := []struct {
		in, want []string
	}{
		{[]string{"segments", "analysis", "cpd"}, []string{"--", "segments", "analysis", "cpd"}},
		{[]string{"--config", "mcp", "version", "help", "x"}, []string{"--config", "mcp", "--", "version", "help", "x"}},
		{[]string{"cpd", "model.txt"}, []string{"cpd", "model.txt"}},
		{[]string{"mcp"}, []string{"mcp"}},
		{nil, nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RouteArgs(root, c.in), "%v", c.in)
	}
}

func TestRootCommand_ThreeSubcommandNamedInputsReachConversion(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs(RouteArgs(root, []string{"segments", "analysis", "cpd"}))
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.False(t, IsUsage(err), "err: %v", err)
	assert.Contains(t, err.Error(), "segments: ")
}
