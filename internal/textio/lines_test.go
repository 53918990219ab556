// internal/textio/lines_test.go
package textio

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) []Line {
	t.Helper()
	var got []Line
	err := EachLine(context.Background(), strings.NewReader(input), func(l Line) error {
		got = append(got, l)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestEachLine_Terminators(t *testing.T) {
	got := collect(t, "a\r\nbb\n\nlast")
	want := []Line{
		{No: 1, Text: "a", Newline: true},
		{No: 2, Text: "bb", Newline: true},
		{No: 3, Text: "", Newline: true},
		{No: 4, Text: "last", Newline: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "a\n", got[0].Raw())
	assert.Equal(t, "last", got[3].Raw())
}

func TestEachLine_Empty(t *testing.T) {
	assert.Empty(t, collect(t, ""))
}

func TestEachLine_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	n := 0
	err := EachLine(context.Background(), strings.NewReader("1\n2\n3\n"), func(Line) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestEachLine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := EachLine(ctx, strings.NewReader("x\n"), func(Line) error {
		t.Fatal("callback must not run after cancel")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEachFileLine_Gzip(t *testing.T) {
	// no .gz suffix: detection must come from the magic number
	path := filepath.Join(t.TempDir(), "segments.txt")
	fh, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(fh)
	_, err = gw.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, fh.Close())

	var texts []string
	err = EachFileLine(context.Background(), path, func(l Line) error {
		texts = append(texts, l.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)
}

func TestEachFileLine_Stdin(t *testing.T) {
	orig := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	defer func() { os.Stdin = orig }()
	go func() { _, _ = w.WriteString("x\ny\n"); _ = w.Close() }()

	count := 0
	err = EachFileLine(context.Background(), Stdin, func(Line) error { count++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEachFileLine_Missing(t *testing.T) {
	err := EachFileLine(context.Background(), filepath.Join(t.TempDir(), "nope"), func(Line) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseError_Format(t *testing.T) {
	base := errors.New("bad field")
	cases := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "seg.txt", Line: 4, Err: base}, "seg.txt:4: bad field"},
		{&ParseError{Path: "m.py", Line: 2, Col: 7, Err: base}, "m.py:2:7: bad field"},
		{&ParseError{Path: "-", Err: base}, "<stdin>: bad field"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.Error())
		assert.ErrorIs(t, c.err, base)
	}

	var pe *ParseError
	require.ErrorAs(t, Errorf("a.txt", 9, "wrap: %w", base), &pe)
	assert.Equal(t, 9, pe.Line)
	assert.ErrorIs(t, pe, base)
}
