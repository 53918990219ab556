// Package convertcli defines the eip-convert command tree.
package convertcli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"eipconvert/internal/cliutil"
	"eipconvert/internal/config"
	"eipconvert/internal/convert"
	"eipconvert/internal/logging"
	"eipconvert/internal/mcpserver"
	"eipconvert/internal/version"
	"eipconvert/internal/writers"
)

// UsageError reports bad invocation: wrong arguments, unknown flags or an
// invalid configuration.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usagef(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

type options struct {
	configPath string
	verbose    bool
	strict     bool
}

// runtime is built by the root's PersistentPreRunE and shared by every
// subcommand.
type runtime struct {
	opts   options
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func (rt *runtime) converter() *convert.Converter {
	return convert.New(rt.cfg, rt.logger)
}

const rootLong = `eip-convert rewrites the outputs of an Entropy/IP analysis run into the
line-oriented format consumed by the address generator.

It reads three files (use "-" for stdin, at most once):

  SEGMENTS   segmentation report: entropy rows and "# segment" rows
  ANALYSIS   segment mining report: header lines followed by value lines
  CPD        Bayesian network model as a Python literal

and writes, in order, the entropy words and segment lines, the "convert"
directives, and the JSON-like CPD block to stdout.`

// NewRootCommand returns the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	rt := &runtime{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "eip-convert SEGMENTS ANALYSIS CPD",
		Short:         "Convert Entropy/IP analysis outputs for the address generator",
		Long:          rootLong,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return usagef("expected 3 input files (SEGMENTS ANALYSIS CPD), got %d", len(args))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rt.opts.configPath)
			if err != nil {
				return &UsageError{Err: err}
			}
			if rt.opts.strict {
				cfg.SetStrict()
			}
			logger, err := logging.New(cfg.Log, rt.opts.verbose, rt.stderr)
			if err != nil {
				return &UsageError{Err: err}
			}
			rt.cfg = cfg
			rt.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			paths, err := cliutil.ResolvePositionals(args)
			if err != nil {
				return &UsageError{Err: err}
			}
			in := convert.Inputs{Segments: paths[0], Analysis: paths[1], CPD: paths[2]}
			return rt.converter().Run(cmd.Context(), in, rt.stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("eip-convert version {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&rt.opts.configPath, "config", "", "YAML config file")
	pf.BoolVarP(&rt.opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&rt.opts.strict, "strict", false, "reject surplus entropies and values outside a segment header")

	root.AddCommand(
		stageCommand(rt, "segments", "Rewrite only a segmentation report", (*convert.Converter).Segments),
		stageCommand(rt, "analysis", "Rewrite only a segment mining report", (*convert.Converter).Analysis),
		stageCommand(rt, "cpd", "Rewrite only a Bayesian network model", (*convert.Converter).CPD),
		mcpCommand(rt),
		versionCommand(rt),
	)
	return root
}

// conversionArity is the positional count of a full conversion.
const conversionArity = 3

// RouteArgs prepares argv for root.SetArgs. Three positionals always mean a
// conversion, even when the first names a subcommand (Entropy/IP outputs are
// commonly called segments, analysis and cpd), so they are moved behind "--"
// where cobra does not look for subcommands.
func RouteArgs(root *cobra.Command, argv []string) []string {
	fs := pflag.NewFlagSet(root.Name(), pflag.ContinueOnError)
	fs.AddFlagSet(root.PersistentFlags())
	fs.AddFlagSet(root.Flags())
	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if len(posArgs) != conversionArity {
		return argv
	}
	out := make([]string, 0, len(argv)+1)
	out = append(out, flagArgs...)
	out = append(out, "--")
	return append(out, posArgs...)
}

type stageFunc = func(c *convert.Converter, ctx context.Context, path string, w io.Writer) error

func stageCommand(rt *runtime, name, short string, run stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " FILE",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("%s: expected 1 input file, got %d", name, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := cliutil.ResolvePositionals(args)
			if err != nil {
				return &UsageError{Err: err}
			}
			return run(rt.converter(), cmd.Context(), paths[0], rt.stdout)
		},
	}
}

func mcpCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the converters as MCP tools over stdio",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcpserver.New(rt.converter(), rt.logger)
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), writers.Flushing(rt.stdout))
		},
	}
}

func versionCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(rt.stdout, "eip-convert version %s\n", version.Version)
			if err != nil {
				return &convert.WriteError{Err: err}
			}
			return nil
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s: unexpected argument %q", cmd.Name(), args[0])
	}
	return nil
}

// IsUsage reports whether err came from a bad invocation.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
