// internal/segments/segments.go
package segments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"eipconvert/internal/textio"
)

const (
	WordCount = 4 // 32-bit words in an IPv6 address
	WordSize  = 8 // nybbles per word
	Required  = WordCount * WordSize

	segmentMarker = "# segment"
)

var (
	ErrTooFewEntropies  = errors.New("too few entropy values")
	ErrTooManyEntropies = errors.New("too many entropy values")
)

// Segment is a named nybble span. Bits are 1-based and inclusive.
type Segment struct {
	Name        string
	StartNybble int
	StopNybble  int
	StartBit    int
	StopBit     int
}

// NewSegment builds the index-th segment from a 0-based start and exclusive
// stop bit offset.
func NewSegment(index, start, stop int) Segment {
	return Segment{
		Name:        string(rune('A' + index)),
		StartNybble: start / 4,
		StopNybble:  (stop - 1) / 4,
		StartBit:    start + 1,
		StopBit:     stop,
	}
}

// Report is a parsed segmentation report.
type Report struct {
	Entropies []float64
	Segments  []Segment
}

// Options tunes parsing.
type Options struct {
	// StrictCount rejects reports with more than Required entropy values.
	StrictCount bool
	Logger      *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Parse reads the report at path ("-" for stdin, gzip accepted).
func Parse(ctx context.Context, path string, opts Options) (*Report, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseReader(ctx, path, rc, opts)
}

// ParseReader parses a report from r; name is used in diagnostics.
func ParseReader(ctx context.Context, name string, r io.Reader, opts Options) (*Report, error) {
	rep := &Report{}
	err := textio.EachLine(ctx, r, func(l textio.Line) error {
		s := strings.TrimSpace(l.Text)
		if s == "" {
			return nil
		}
		first, _ := utf8.DecodeRuneInString(s)
		switch {
		case unicode.IsDigit(first):
			f := strings.Split(s, "\t")
			if len(f) < 4 {
				return textio.Errorf(name, l.No, "entropy row has %d fields, need 4", len(f))
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(f[3]), 64)
			if err != nil {
				return textio.Errorf(name, l.No, "entropy %q: %w", f[3], err)
			}
			rep.Entropies = append(rep.Entropies, v)
		case strings.HasPrefix(s, segmentMarker):
			f := strings.Split(s, "\t")
			if len(f) < 4 {
				return textio.Errorf(name, l.No, "segment row has %d fields, need 4", len(f))
			}
			start, err := strconv.Atoi(strings.TrimSpace(f[2]))
			if err != nil {
				return textio.Errorf(name, l.No, "segment start %q: %w", f[2], err)
			}
			stop, err := strconv.Atoi(strings.TrimSpace(f[3]))
			if err != nil {
				return textio.Errorf(name, l.No, "segment stop %q: %w", f[3], err)
			}
			rep.Segments = append(rep.Segments, NewSegment(len(rep.Segments), start, stop))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	n := len(rep.Entropies)
	switch {
	case n < Required:
		return nil, &textio.ParseError{Path: name, Err: fmt.Errorf("%w: found %d, need %d", ErrTooFewEntropies, n, Required)}
	case n > Required && opts.StrictCount:
		return nil, &textio.ParseError{Path: name, Err: fmt.Errorf("%w: found %d, want %d", ErrTooManyEntropies, n, Required)}
	case n > Required:
		opts.logger().Warn("ignoring surplus entropy values",
			zap.String("file", textio.DisplayName(name)),
			zap.Int("found", n),
			zap.Int("used", Required))
	}
	opts.logger().Debug("parsed segmentation report",
		zap.String("file", textio.DisplayName(name)),
		zap.Int("entropies", n),
		zap.Int("segments", len(rep.Segments)))
	return rep, nil
}

// Word returns the WordSize entropy values of 32-bit word i (0..WordCount-1).
func (r *Report) Word(i int) []float64 {
	return r.Entropies[i*WordSize : (i+1)*WordSize]
}
