package pipeline

import (
	"context"
	"path/filepath"

	"github.com/dosanma1/crxpack/internal/archive"
	"github.com/dosanma1/crxpack/internal/config"
	"github.com/dosanma1/crxpack/internal/discovery"
	perrors "github.com/dosanma1/crxpack/internal/errors"
	"github.com/dosanma1/crxpack/internal/lint"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/manifest"
	"github.com/dosanma1/crxpack/internal/transform"
	"github.com/dosanma1/crxpack/internal/usemin"
	"github.com/dosanma1/crxpack/internal/workspace"
)

const (
	classPlan       = "plan"
	classUseminHTML = "usemin.html"
	classUseminCSS  = "usemin.css"
)

func (p *Pipeline) discover(ctx context.Context) (*discovery.Sources, error) {
	classes := p.cfg.Classes()
	classes[classPlan] = p.cfg.Plan.HTML

	src, err := discovery.Discover(p.cfg.AppDir(), classes)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("Discovered sources", "files", src.Count(), "scripts", len(src.Files(config.ClassScripts)))
	return src, nil
}

func (p *Pipeline) lint(ctx context.Context, src *discovery.Sources) (*lint.Result, error) {
	files := src.Abs(config.ClassScripts)
	if p.cfg.File != "" {
		files = append(files, p.cfg.File)
	}

	result, err := p.linter.LintFiles(ctx, p.cfg.BaseDir, files)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryInternal, "lint run failed")
	}

	report := p.cfg.ReportPath()
	if err := lint.WriteReport(report, result); err != nil {
		return result, perrors.Wrap(err, perrors.CategoryInternal, "failed to write lint report").
			WithContext("path", report)
	}

	logging.FromContext(ctx).Info("Linted", "files", result.FilesTotal, "errors", result.ErrorCount(), "warnings", result.WarningCount())
	if result.Failed() {
		return result, perrors.LintFailed(len(result.Issues), report)
	}
	return result, nil
}

func (p *Pipeline) plan(ctx context.Context, src *discovery.Sources) (*usemin.Plan, error) {
	plan, err := usemin.Prepare(src.Root, src.Files(classPlan))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("Planned bundles", "blocks", len(plan.Blocks), "bundles", len(plan.Bundles()))
	return plan, nil
}

// execute runs bundling, copying, reference rewriting and HTML minification.
func (p *Pipeline) execute(ctx context.Context, res *Result, src *discovery.Sources, plan *usemin.Plan) error {
	app, dist := p.cfg.AppDir(), p.cfg.DistDir()

	bundles, err := stage(ctx, res, "bundle", func(ctx context.Context) (*transform.BundleReport, error) {
		report, err := transform.NewBundler(app, dist, p.cfg.Revision).Run(ctx, plan.Bundles())
		if err == nil {
			logging.FromContext(ctx).Info("Bundled", "bundles", len(report.Outputs))
		}
		return report, err
	})
	if err != nil {
		return err
	}
	res.Bundles = bundles.Outputs

	copied, err := stage(ctx, res, "copy", func(ctx context.Context) (int, error) {
		n, err := transform.NewCopier(app, dist).Run(ctx, src.All(config.CopyClasses...))
		if err == nil {
			logging.FromContext(ctx).Info("Copied", "files", n)
		}
		return n, err
	})
	if err != nil {
		return err
	}
	res.Copied = copied

	rewritten, err := stage(ctx, res, "usemin", func(ctx context.Context) (*usemin.RewriteReport, error) {
		targets, err := discovery.Discover(dist, map[string][]string{
			classUseminHTML: p.cfg.Usemin.HTML,
			classUseminCSS:  p.cfg.Usemin.CSS,
		})
		if err != nil {
			return nil, err
		}
		report, err := usemin.NewRewriter(bundles.Revisions).Run(ctx, dist, targets.Files(classUseminHTML), targets.Files(classUseminCSS))
		if err == nil {
			logging.FromContext(ctx).Info("Rewrote references", "files", len(report.Files))
		}
		return report, err
	})
	if err != nil {
		return err
	}
	res.Rewritten = rewritten.Files

	minified, err := stage(ctx, res, "htmlmin", func(ctx context.Context) (int, error) {
		n, err := transform.NewHTMLMinifier().Run(ctx, dist)
		if err == nil {
			logging.FromContext(ctx).Info("Minified HTML", "files", n)
		}
		return n, err
	})
	if err != nil {
		return err
	}
	res.Minified = minified
	return nil
}

// pendingManifest is a validated, bumped manifest waiting to be written.
type pendingManifest struct {
	path     string
	manifest *manifest.Manifest
	artifact string
}

func (p *Pipeline) prepareManifest(ctx context.Context) (*pendingManifest, error) {
	path := p.cfg.ManifestPath()
	current, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	next, err := current.BumpBuild()
	if err != nil {
		return nil, err
	}
	name, err := archive.ArtifactName(p.cfg.Product, next.Version)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("Prepared manifest", "from", current.Version, "to", next.Version)
	return &pendingManifest{path: path, manifest: next, artifact: name}, nil
}

func (p *Pipeline) reset(ctx context.Context) (*workspace.ResetReport, error) {
	report, err := workspace.Reset(ctx, p.cfg.DistDir(), p.cfg.Clean.Keep)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("Reset output root", "removed", len(report.Removed), "kept", len(report.Kept))
	return report, nil
}

func (p *Pipeline) stamp(ctx context.Context, s *pendingManifest) error {
	if err := s.manifest.Save(s.path); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("Stamped manifest", "version", s.manifest.Version)
	return nil
}

func (p *Pipeline) archive(ctx context.Context, s *pendingManifest) (*archive.Artifact, error) {
	dest := filepath.Join(p.cfg.PackageDir(), s.artifact)
	artifact, err := p.archiver.Create(ctx, p.cfg.DistDir(), dest)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("Archived", "path", artifact.Path, "files", artifact.Files, "bytes", artifact.Size)
	return artifact, nil
}
