// internal/segments/write.go
package segments

import (
	"fmt"
	"io"
	"strings"

	"eipconvert/internal/pylit"
)

// WordLine formats the entropy line of 32-bit word i.
func (r *Report) WordLine(i int) string {
	vals := make([]string, 0, WordSize)
	for _, v := range r.Word(i) {
		vals = append(vals, pylit.FormatFixed(v, 5))
	}
	return fmt.Sprintf("/%-4d: %s", (i+1)*32, strings.Join(vals, " "))
}

// Line formats the segment line.
func (s Segment) Line() string {
	return fmt.Sprintf(">%s: %2d-%-2d (bits %3d-%-3d)",
		s.Name, s.StartNybble, s.StopNybble, s.StartBit, s.StopBit)
}

// WriteTo writes the word lines followed by the segment lines.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for i := 0; i < WordCount; i++ {
		b.WriteString(r.WordLine(i))
		b.WriteByte('\n')
	}
	for _, s := range r.Segments {
		b.WriteString(s.Line())
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
