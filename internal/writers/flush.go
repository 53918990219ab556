package writers

import "io"

type flusher interface{ Flush() error }

type flushWriter struct{ w io.Writer }

// Flushing returns a writer that flushes w after every write when w is
// buffered. Interactive protocols on stdout need each message delivered
// as soon as it is written.
func Flushing(w io.Writer) io.Writer {
	if _, ok := w.(flusher); !ok {
		return w
	}
	return flushWriter{w: w}
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.(flusher).Flush()
}
