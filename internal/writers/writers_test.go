package writers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
)

func TestIsBrokenPipe(t *testing.T) {
	cases := map[error]bool{
		nil:                                    false,
		syscall.EPIPE:                          true,
		io.ErrClosedPipe:                       true,
		fmt.Errorf("write: %w", syscall.EPIPE): true,
		errors.New("disk full"):                false,
	}
	for err, want := range cases {
		if got := IsBrokenPipe(err); got != want {
			t.Fatalf("IsBrokenPipe(%v) = %v, want %v", err, got, want)
		}
	}
}

func TestFlushing(t *testing.T) {
	var sink bytes.Buffer
	bw := bufio.NewWriterSize(&sink, 4096)
	w := Flushing(bw)
	if _, err := io.WriteString(w, "{\"jsonrpc\":\"2.0\"}\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sink.String() != "{\"jsonrpc\":\"2.0\"}\n" {
		t.Fatalf("message not flushed: %q", sink.String())
	}

	var plain bytes.Buffer
	if Flushing(&plain) != io.Writer(&plain) {
		t.Fatalf("unbuffered writer should be returned as is")
	}
}
