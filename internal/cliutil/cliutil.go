// internal/cliutil/cliutil.go
package cliutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"eipconvert/internal/textio"
)

// needsValue reports whether the flag named by a "-x" or "--name" argument
// consumes the next argument. Unknown flags are assumed not to; the flag
// parser reports them later.
func needsValue(fs *pflag.FlagSet, arg string) bool {
	var f *pflag.Flag
	if strings.HasPrefix(arg, "--") {
		f = fs.Lookup(arg[2:])
	} else if name := arg[1:]; name != "" {
		// in a shorthand cluster only the last flag may take a value
		f = fs.ShorthandLookup(name[len(name)-1:])
	}
	return f != nil && f.NoOptDefVal == ""
}

// SplitFlagsAndPositionals separates flag-like args from positionals,
// preserving '-','--','--x=y' semantics.
func SplitFlagsAndPositionals(fs *pflag.FlagSet, argv []string) (flagArgs, posArgs []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			posArgs = append(posArgs, argv[i+1:]...)
			break
		}
		if arg == textio.Stdin || !strings.HasPrefix(arg, "-") {
			posArgs = append(posArgs, arg)
			continue
		}
		flagArgs = append(flagArgs, arg)
		if !strings.Contains(arg, "=") && needsValue(fs, arg) && i+1 < len(argv) {
			flagArgs = append(flagArgs, argv[i+1])
			i++
		}
	}
	return
}

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// ResolvePositionals resolves each positional to exactly one input.
// A glob must match a single file, so that every argument keeps its slot.
// "-" (stdin) is passed through and may appear only once.
func ResolvePositionals(posArgs []string) ([]string, error) {
	out := make([]string, 0, len(posArgs))
	stdin := 0
	for _, a := range posArgs {
		switch {
		case a == textio.Stdin:
			stdin++
			if stdin > 1 {
				return nil, fmt.Errorf("stdin (-) can be used for only one input")
			}
			out = append(out, a)
		case a == "":
			return nil, fmt.Errorf("empty input path")
		case hasGlobMeta(a):
			m, err := filepath.Glob(a)
			if err != nil {
				return nil, fmt.Errorf("bad glob %q: %v", a, err)
			}
			switch len(m) {
			case 0:
				return nil, fmt.Errorf("no input matched %q", a)
			case 1:
				out = append(out, m[0])
			default:
				return nil, fmt.Errorf("glob %q matched %d files, need exactly one", a, len(m))
			}
		default:
			out = append(out, a)
		}
	}
	return out, nil
}
