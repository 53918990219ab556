// internal/convertapp/app.go
package convertapp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"eipconvert/internal/convert"
	"eipconvert/internal/convertcli"
	"eipconvert/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1 // an input could not be parsed
	ExitUsage     = 2
	ExitWrite     = 3
	ExitCancelled = 130
)

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriterSize(stdout, 64<<10)

	root := convertcli.NewRootCommand(outw, stderr)
	root.SetArgs(convertcli.RouteArgs(root, argv))
	runErr := root.ExecuteContext(parent)

	// blocks written before a failure still reach stdout
	flushErr := outw.Flush()

	switch {
	case runErr == nil:
	case parent.Err() != nil && errors.Is(runErr, parent.Err()):
		return ExitCancelled
	case convertcli.IsUsage(runErr):
		_, _ = fmt.Fprintf(stderr, "eip-convert: %v\n", runErr)
		_, _ = fmt.Fprintln(stderr, "Run 'eip-convert --help' for usage.")
		return ExitUsage
	case isWriteError(runErr):
		if writers.IsBrokenPipe(runErr) {
			return ExitOK
		}
		_, _ = fmt.Fprintf(stderr, "eip-convert: %v\n", runErr)
		return ExitWrite
	default:
		_, _ = fmt.Fprintf(stderr, "eip-convert: %v\n", runErr)
		if flushErr != nil && !writers.IsBrokenPipe(flushErr) {
			_, _ = fmt.Fprintf(stderr, "eip-convert: %v\n", flushErr)
		}
		return ExitFailure
	}

	if writers.IsBrokenPipe(flushErr) {
		return ExitOK
	} else if flushErr != nil {
		_, _ = fmt.Fprintf(stderr, "eip-convert: write output: %v\n", flushErr)
		return ExitWrite
	}
	return ExitOK
}

func isWriteError(err error) bool {
	var we *convert.WriteError
	return errors.As(err, &we)
}
