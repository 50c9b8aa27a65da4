// Package pipeline composes the build stages into the build, default and
// release sequences.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/dosanma1/crxpack/internal/archive"
	"github.com/dosanma1/crxpack/internal/config"
	"github.com/dosanma1/crxpack/internal/discovery"
	"github.com/dosanma1/crxpack/internal/lint"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/transform"
	"github.com/dosanma1/crxpack/internal/usemin"
	"github.com/dosanma1/crxpack/internal/workspace"
)

// StageResult records one stage that ran.
type StageResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result is what a sequence produced. Fields of stages that did not run
// are left empty.
type Result struct {
	Stages []StageResult

	Lint      *lint.Result
	Plan      *usemin.Plan
	Bundles   []transform.Output
	Copied    int
	Rewritten []string
	Minified  int
	Reset     *workspace.ResetReport
	Version   string
	Artifact  *archive.Artifact
}

// Duration is the total time spent in stages.
func (r *Result) Duration() time.Duration {
	var total time.Duration
	for _, s := range r.Stages {
		total += s.Duration
	}
	return total
}

// Pipeline runs the build sequences for one config.
type Pipeline struct {
	cfg      *config.Config
	linter   *lint.Linter
	archiver *archive.Archiver
}

// New creates a pipeline. Progress receives the archive progress bar and may
// be nil.
func New(cfg *config.Config, progress io.Writer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		linter:   lint.NewLinter(cfg.Lint.Globals),
		archiver: archive.NewArchiver(progress),
	}
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

// Build discovers sources, plans and executes.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	res := &Result{}

	src, err := stage(ctx, res, "discover", p.discover)
	if err != nil {
		return res, err
	}
	return res, p.build(ctx, res, src)
}

// Default lints, then builds.
func (p *Pipeline) Default(ctx context.Context) (*Result, error) {
	res := &Result{}

	src, err := stage(ctx, res, "discover", p.discover)
	if err != nil {
		return res, err
	}
	if err := p.gate(ctx, res, src); err != nil {
		return res, err
	}
	return res, p.build(ctx, res, src)
}

// Release lints, plans and validates the manifest, then resets the output
// root, stamps the manifest, builds and archives. Nothing is written before
// the plan and the manifest have been checked.
func (p *Pipeline) Release(ctx context.Context) (*Result, error) {
	res := &Result{}

	src, err := stage(ctx, res, "discover", p.discover)
	if err != nil {
		return res, err
	}
	if err := p.gate(ctx, res, src); err != nil {
		return res, err
	}

	plan, err := stage(ctx, res, "plan", func(ctx context.Context) (*usemin.Plan, error) {
		return p.plan(ctx, src)
	})
	if err != nil {
		return res, err
	}
	res.Plan = plan

	stamped, err := stage(ctx, res, "manifest", p.prepareManifest)
	if err != nil {
		return res, err
	}
	res.Version = stamped.manifest.Version

	reset, err := stage(ctx, res, "reset", p.reset)
	if err != nil {
		return res, err
	}
	res.Reset = reset

	if _, err := stage(ctx, res, "stamp", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.stamp(ctx, stamped)
	}); err != nil {
		return res, err
	}

	// Copy reads the stamped manifest from disk.
	if err := p.execute(ctx, res, src, plan); err != nil {
		return res, err
	}

	artifact, err := stage(ctx, res, "archive", func(ctx context.Context) (*archive.Artifact, error) {
		return p.archive(ctx, stamped)
	})
	if err != nil {
		return res, err
	}
	res.Artifact = artifact
	return res, nil
}

func (p *Pipeline) gate(ctx context.Context, res *Result, src *discovery.Sources) error {
	result, err := stage(ctx, res, "lint", func(ctx context.Context) (*lint.Result, error) {
		return p.lint(ctx, src)
	})
	res.Lint = result
	return err
}

func (p *Pipeline) build(ctx context.Context, res *Result, src *discovery.Sources) error {
	plan, err := stage(ctx, res, "plan", func(ctx context.Context) (*usemin.Plan, error) {
		return p.plan(ctx, src)
	})
	if err != nil {
		return err
	}
	res.Plan = plan
	return p.execute(ctx, res, src, plan)
}

// stage runs fn, timing and logging it under name.
func stage[T any](ctx context.Context, res *Result, name string, fn func(context.Context) (T, error)) (T, error) {
	logger := logging.FromContext(ctx).With("stage", name)
	logger.Debug("Stage started")

	start := time.Now()
	out, err := fn(logging.WithLogger(ctx, logger))
	elapsed := time.Since(start)

	res.Stages = append(res.Stages, StageResult{Name: name, Duration: elapsed, Err: err})
	if err != nil {
		logger.Error("Stage failed", "duration", elapsed, "error", err)
		return out, err
	}
	logger.Info("Stage completed", "duration", elapsed)
	return out, nil
}
