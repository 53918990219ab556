// Package convert runs the three rewriters and emits their blocks in the
// order the generator expects: segments, analysis, CPD.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"eipconvert/internal/analysis"
	"eipconvert/internal/bnmodel"
	"eipconvert/internal/config"
	"eipconvert/internal/segments"
	"eipconvert/internal/textio"
)

// Inputs names the three pipeline outputs. "-" selects stdin.
type Inputs struct {
	Segments string
	Analysis string
	CPD      string
}

// Validate checks that stdin is requested at most once.
func (in Inputs) Validate() error {
	n := 0
	for _, p := range []string{in.Segments, in.Analysis, in.CPD} {
		if p == "" {
			return errors.New("input path is empty")
		}
		if p == textio.Stdin {
			n++
		}
	}
	if n > 1 {
		return errors.New("stdin (-) can be used for only one input")
	}
	return nil
}

// WriteError marks a failure to write output, as opposed to bad input.
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return "write output: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// Converter holds the settings shared by every run.
type Converter struct {
	cfg *config.Config
	log *zap.Logger
}

// New returns a Converter; nil arguments select the defaults.
func New(cfg *config.Config, log *zap.Logger) *Converter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{cfg: cfg, log: log}
}

func (c *Converter) segmentOpts() segments.Options {
	return segments.Options{StrictCount: c.cfg.Segments.StrictCount, Logger: c.log}
}

func (c *Converter) analysisOpts() analysis.Options {
	return analysis.Options{StrictContext: c.cfg.Analysis.StrictContext, Logger: c.log}
}

// Run converts all three inputs into w.
//
// The inputs are parsed concurrently. Blocks are then written in order until
// the first one whose input failed to parse; that error is returned and the
// remaining blocks are not written.
func (c *Converter) Run(ctx context.Context, in Inputs, w io.Writer) error {
	if err := in.Validate(); err != nil {
		return err
	}
	start := time.Now()

	var (
		rep   *segments.Report
		recs  []analysis.Record
		model *bnmodel.Model
		errs  [3]error
		g     errgroup.Group
	)
	// each stage keeps its own error so a late failure cannot mask an
	// earlier block
	g.Go(func() error {
		rep, errs[0] = segments.Parse(ctx, in.Segments, c.segmentOpts())
		return nil
	})
	g.Go(func() error {
		recs, errs[1] = analysis.Parse(ctx, in.Analysis, c.analysisOpts())
		return nil
	})
	g.Go(func() error {
		model, errs[2] = bnmodel.Parse(ctx, in.CPD, c.log)
		return nil
	})
	_ = g.Wait()

	stages := []struct {
		name  string
		path  string
		err   error
		write func() error
	}{
		{"segments", in.Segments, errs[0], func() error { _, err := rep.WriteTo(w); return err }},
		{"analysis", in.Analysis, errs[1], func() error { return analysis.WriteRecords(w, recs) }},
		{"cpd", in.CPD, errs[2], func() error { _, err := model.WriteTo(w); return err }},
	}
	for _, s := range stages {
		if s.err != nil {
			c.log.Debug("stage failed", zap.String("stage", s.name), zap.String("file", textio.DisplayName(s.path)), zap.Error(s.err))
			return fmt.Errorf("%s: %w", s.name, s.err)
		}
		if err := s.write(); err != nil {
			return &WriteError{Err: err}
		}
	}
	c.log.Debug("conversion complete",
		zap.Int("segments", len(rep.Segments)),
		zap.Int("records", len(recs)),
		zap.Int("vertices", len(model.Vertices)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Segments converts only the segmentation report.
func (c *Converter) Segments(ctx context.Context, path string, w io.Writer) error {
	rep, err := segments.Parse(ctx, path, c.segmentOpts())
	if err != nil {
		return fmt.Errorf("segments: %w", err)
	}
	if _, err := rep.WriteTo(w); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Analysis converts only the mining report.
func (c *Converter) Analysis(ctx context.Context, path string, w io.Writer) error {
	recs, err := analysis.Parse(ctx, path, c.analysisOpts())
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := analysis.WriteRecords(w, recs); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// CPD converts only the Bayesian model.
func (c *Converter) CPD(ctx context.Context, path string, w io.Writer) error {
	model, err := bnmodel.Parse(ctx, path, c.log)
	if err != nil {
		return fmt.Errorf("cpd: %w", err)
	}
	if _, err := model.WriteTo(w); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
