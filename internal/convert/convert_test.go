package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"eipconvert/internal/config"
	"eipconvert/internal/segments"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func segmentReport() string {
	var b strings.Builder
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&b, "%d\t%d\t%d\t%.6f\n", i, i*4, i*4+4, float64(i%4)/4)
	}
	b.WriteString("# segment\tA\t0\t64\n# segment\tB\t64\t128\n")
	return b.String()
}

const (
	miningReport = "A\n  20010db8 100.00%\nB\n  0000 50%\n  * 50%\n"
	bayesModel   = "{'A': {'pars': [], 'vals': [1, 2], 'cpds': {None: {1: 0.5, 2: 0.5}}}}\n"

	wantSegments = "/32  : 0.00000 0.25000 0.50000 0.75000 0.00000 0.25000 0.50000 0.75000\n" +
		"/64  : 0.00000 0.25000 0.50000 0.75000 0.00000 0.25000 0.50000 0.75000\n" +
		"/96  : 0.00000 0.25000 0.50000 0.75000 0.00000 0.25000 0.50000 0.75000\n" +
		"/128 : 0.00000 0.25000 0.50000 0.75000 0.00000 0.25000 0.50000 0.75000\n" +
		">A:  0-15 (bits   1-64 )\n" +
		">B: 16-31 (bits  65-128)\n"
	wantAnalysis = "=A0  convert 100.00% 20010db8\n" +
		"=B0  convert     50% 0000\n" +
		"=B1  convert     50% *\n"
	wantCPD = "{\n\"A\": {\n  \"parents\": [  ],\n  \"values\": [ \"0\", \"1\" ],\n\n}\n}\n"
)

func writeInputs(t *testing.T, seg, mining, bayes string) Inputs {
	t.Helper()
	dir := t.TempDir()
	in := Inputs{
		Segments: filepath.Join(dir, "segments.txt"),
		Analysis: filepath.Join(dir, "analysis.txt"),
		CPD:      filepath.Join(dir, "cpd.txt"),
	}
	require.NoError(t, os.WriteFile(in.Segments, []byte(seg), 0o644))
	require.NoError(t, os.WriteFile(in.Analysis, []byte(mining), 0o644))
	require.NoError(t, os.WriteFile(in.CPD, []byte(bayes), 0o644))
	return in
}

func TestRun_BlocksInOrder(t *testing.T) {
	in := writeInputs(t, segmentReport(), miningReport, bayesModel)
	var buf bytes.Buffer
	require.NoError(t, New(nil, nil).Run(context.Background(), in, &buf))
	assert.Equal(t, wantSegments+wantAnalysis+wantCPD, buf.String())
}

func TestRun_StopsAtFirstFailedBlock(t *testing.T) {
	cases := []struct {
		name     string
		seg      string
		mining   string
		bayes    string
		wantOut  string
		wantPref string
	}{
		{"segments", "1\t0\t4\t0.5\n", miningReport, bayesModel, "", "segments: "},
		{"analysis", segmentReport(), "A\n  x\n", bayesModel, wantSegments, "analysis: "},
		{"cpd", segmentReport(), miningReport, "import os\n", wantSegments + wantAnalysis, "cpd: "},
		{"earliest wins", segmentReport(), "A\n  x\n", "import os\n", wantSegments, "analysis: "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := writeInputs(t, tc.seg, tc.mining, tc.bayes)
			var buf bytes.Buffer
			err := New(nil, nil).Run(context.Background(), in, &buf)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), tc.wantPref), "error %q", err)
			assert.Equal(t, tc.wantOut, buf.String())
		})
	}
}

func TestRun_SegmentErrorUnwraps(t *testing.T) {
	in := writeInputs(t, "1\t0\t4\t0.5\n", miningReport, bayesModel)
	err := New(nil, nil).Run(context.Background(), in, &bytes.Buffer{})
	assert.ErrorIs(t, err, segments.ErrTooFewEntropies)
}

func TestRun_StrictConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.StrictContext = true
	in := writeInputs(t, segmentReport(), "  orphan 10%\n", bayesModel)

	err := New(cfg, zap.NewNop()).Run(context.Background(), in, &bytes.Buffer{})
	require.Error(t, err)

	err = New(nil, nil).Run(context.Background(), in, &bytes.Buffer{})
	require.NoError(t, err)
}

func TestInputs_Validate(t *testing.T) {
	assert.NoError(t, Inputs{"a", "-", "c"}.Validate())
	assert.Error(t, Inputs{"-", "-", "c"}.Validate())
	assert.Error(t, Inputs{"a", "", "c"}.Validate())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRun_WriteError(t *testing.T) {
	in := writeInputs(t, segmentReport(), miningReport, bayesModel)
	err := New(nil, nil).Run(context.Background(), in, failWriter{})
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_Cancelled(t *testing.T) {
	in := writeInputs(t, segmentReport(), miningReport, bayesModel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := New(nil, nil).Run(ctx, in, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestSingleStages(t *testing.T) {
	in := writeInputs(t, segmentReport(), miningReport, bayesModel)
	c := New(nil, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, c.Segments(ctx, in.Segments, &buf))
	assert.Equal(t, wantSegments, buf.String())

	buf.Reset()
	require.NoError(t, c.Analysis(ctx, in.Analysis, &buf))
	assert.Equal(t, wantAnalysis, buf.String())

	buf.Reset()
	require.NoError(t, c.CPD(ctx, in.CPD, &buf))
	assert.Equal(t, wantCPD, buf.String())
}
