// Package analysis rewrites the mining report into "=<segment><index> convert"
// records, one per segment value.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"eipconvert/internal/textio"
)

// UnknownSegment labels data lines that appear before any segment header.
const UnknownSegment = "?"

// ErrNoSegment is returned in strict mode for a data line with no header above it.
var ErrNoSegment = errors.New("data line before any segment header")

// Record is one segment value: Value is the representative value and
// Percent its share, without the percent sign.
type Record struct {
	Segment string
	Index   int
	Percent string
	Value   string
}

// Line formats the record for the generator.
func (r Record) Line() string {
	return fmt.Sprintf("=%s%-2d convert %6s%% %s", r.Segment, r.Index, r.Percent, r.Value)
}

// Options tunes parsing; the zero value keeps the lenient defaults.
type Options struct {
	// StrictContext turns the UnknownSegment fallback into an error.
	StrictContext bool
	Logger        *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Parse reads the report at path ("-" for stdin, gzip accepted).
func Parse(ctx context.Context, path string, opts Options) ([]Record, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseReader(ctx, path, rc, opts)
}

// ParseReader parses a mining report from r; name is used in diagnostics.
//
// A line starting with a letter opens a segment named by that letter and
// resets its value index. Every other line is a data line: its first two and
// last two characters (newline included) are framing, the rest is split on
// single spaces; the first token is the value and the last the percentage.
func ParseReader(ctx context.Context, name string, r io.Reader, opts Options) ([]Record, error) {
	var (
		recs     []Record
		segment  = UnknownSegment
		index    int
		fallback int
	)
	err := textio.EachLine(ctx, r, func(l textio.Line) error {
		raw := l.Raw()
		if first, size := utf8.DecodeRuneInString(raw); unicode.IsLetter(first) {
			segment = raw[:size]
			index = 0
			return nil
		}
		if segment == UnknownSegment {
			if opts.StrictContext {
				return &textio.ParseError{Path: name, Line: l.No, Err: ErrNoSegment}
			}
			fallback++
		}

		body, ok := frame(raw)
		if !ok {
			return textio.Errorf(name, l.No, "data line too short (%d characters)", utf8.RuneCountInString(raw))
		}
		tok := strings.Split(body, " ")
		if len(tok) < 2 {
			return textio.Errorf(name, l.No, "data line has %d tokens, need at least 2", len(tok))
		}
		recs = append(recs, Record{
			Segment: segment,
			Index:   index,
			Percent: strings.TrimSuffix(tok[len(tok)-1], "%"),
			Value:   tok[0],
		})
		index++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fallback > 0 {
		opts.logger().Warn("data lines without a segment header",
			zap.String("file", textio.DisplayName(name)),
			zap.String("segment", UnknownSegment),
			zap.Int("lines", fallback))
	}
	opts.logger().Debug("parsed mining report",
		zap.String("file", textio.DisplayName(name)),
		zap.Int("records", len(recs)))
	return recs, nil
}

// frame drops the first two and last two characters of raw. Slicing is done
// at byte offsets so invalid UTF-8 passes through unchanged.
func frame(raw string) (string, bool) {
	if utf8.RuneCountInString(raw) < 4 {
		return "", false
	}
	start := 0
	for i := 0; i < 2; i++ {
		_, size := utf8.DecodeRuneInString(raw[start:])
		start += size
	}
	end := len(raw)
	for i := 0; i < 2; i++ {
		_, size := utf8.DecodeLastRuneInString(raw[:end])
		end -= size
	}
	if start > end {
		start = end
	}
	return raw[start:end], true
}

// WriteRecords writes one line per record.
func WriteRecords(w io.Writer, recs []Record) error {
	var b strings.Builder
	for _, r := range recs {
		b.WriteString(r.Line())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
