// internal/textio/lines.go
package textio

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Line is one line of input. Text has the terminator removed; Newline
// reports whether the line was terminated (the last line may not be).
type Line struct {
	No      int
	Text    string
	Newline bool
}

// Raw returns the line as it was read, with CRLF folded to LF.
func (l Line) Raw() string {
	if l.Newline {
		return l.Text + "\n"
	}
	return l.Text
}

// EachLine calls fn for every line of r, in order. Cancellation via ctx is
// checked between lines. A non-nil error from fn stops the scan and is returned.
func EachLine(ctx context.Context, r io.Reader, fn func(Line) error) error {
	br := bufio.NewReaderSize(r, 64<<10)
	no := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := br.ReadString('\n')
		if len(s) > 0 {
			no++
			l := Line{No: no}
			if strings.HasSuffix(s, "\n") {
				l.Newline = true
				s = strings.TrimSuffix(s[:len(s)-1], "\r")
			}
			l.Text = s
			if ferr := fn(l); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// EachFileLine opens path (see Open) and scans it with EachLine.
func EachFileLine(ctx context.Context, path string, fn func(Line) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return EachLine(ctx, rc, fn)
}
