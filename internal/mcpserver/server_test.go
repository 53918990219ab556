package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eipconvert/internal/convert"
)

const bayesModel = "{'A': {'pars': [], 'vals': [1, 2], 'cpds': {None: {1: 0.5, 2: 0.5}}}}\n"

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func newServer() *Server {
	return New(convert.New(nil, zap.NewNop()), zap.NewNop())
}

func TestRewriteCPD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpd.txt")
	require.NoError(t, os.WriteFile(path, []byte(bayesModel), 0o644))

	s := newServer()
	res, err := s.stageHandler("rewrite_cpd", s.conv.CPD)(context.Background(), request(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "{\n\"A\": {\n  \"parents\": [  ],\n  \"values\": [ \"0\", \"1\" ],\n\n}\n}\n", resultText(t, res))
}

func TestRewriteAnalysis_ParseFailureIsToolError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\n  x\n"), 0o644))

	s := newServer()
	res, err := s.stageHandler("rewrite_analysis", s.conv.Analysis)(context.Background(), request(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "analysis: ")
}

func TestConvert_MissingArguments(t *testing.T) {
	s := newServer()
	_, err := s.handleConvert(context.Background(), request(map[string]interface{}{"segments_path": "a"}))
	assert.ErrorContains(t, err, "analysis_path")
}

func TestPathArg(t *testing.T) {
	_, err := pathArg(request(map[string]interface{}{"path": "-"}), "path")
	assert.ErrorContains(t, err, "stdin")

	_, err = pathArg(request(map[string]interface{}{"path": 3.0}), "path")
	assert.Error(t, err)

	p, err := pathArg(request(map[string]interface{}{"path": "x.txt"}), "path")
	require.NoError(t, err)
	assert.Equal(t, "x.txt", p)
}
