package watch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dosanma1/crxpack/internal/config"
	"github.com/dosanma1/crxpack/internal/logging"
	"github.com/dosanma1/crxpack/internal/pipeline"
)

// Runner runs the build sequences.
type Runner interface {
	Build(ctx context.Context) (*pipeline.Result, error)
	Default(ctx context.Context) (*pipeline.Result, error)
}

// Run describes one finished watch run.
type Run struct {
	ID      string
	Request Request
	Result  *pipeline.Result
	Err     error
}

// Classes are the source classes that trigger a rebuild.
var Classes = []string{config.ClassScripts, config.ClassHTML, config.ClassStyles, config.ClassManifest}

// RequestFor maps a change to the run it needs. Script changes lint first.
func RequestFor(event FileEvent) Request {
	req := Request{Paths: []string{event.Path}}
	for _, class := range event.Classes {
		if class == config.ClassScripts {
			req.Lint = true
		}
	}
	return req
}

// Orchestrator feeds watcher events through the queue into the runner.
type Orchestrator struct {
	runner  Runner
	watcher *Watcher
	queue   *Queue

	// OnRun is called after every run. Optional.
	OnRun func(Run)
}

// NewOrchestrator creates an orchestrator watching the source root of cfg.
func NewOrchestrator(cfg *config.Config, runner Runner) (*Orchestrator, error) {
	all := cfg.Classes()
	classes := make(map[string][]string, len(Classes))
	for _, class := range Classes {
		classes[class] = all[class]
	}

	watcher, err := NewWatcher(&WatcherConfig{
		Root:           cfg.AppDir(),
		Classes:        classes,
		IgnorePatterns: DefaultIgnorePatterns,
		Debounce:       cfg.Watch.Debounce,
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{runner: runner, watcher: watcher, queue: NewQueue()}, nil
}

// Run watches until ctx is done. Failed runs are logged and watching goes on.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	if err := o.watcher.Start(ctx); err != nil {
		return err
	}
	defer o.watcher.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.queue.Run(ctx, o.run)
	}()

	logger.Info("Watching for changes", "root", o.watcher.config.Root)
	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case event := <-o.watcher.Events():
			logger.Debug("Change detected", "path", event.Path, "type", event.Type.String(), "classes", event.Classes)
			o.queue.Submit(RequestFor(event))
		case err := <-o.watcher.Errors():
			logger.Warn("Watcher error", "error", err)
		}
	}
}

func (o *Orchestrator) run(ctx context.Context, req Request) {
	id := uuid.NewString()
	logger := logging.FromContext(ctx).With("run", id)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("Run started", "lint", req.Lint, "paths", req.Paths)
	start := time.Now()

	var (
		res *pipeline.Result
		err error
	)
	if req.Lint {
		res, err = o.runner.Default(ctx)
	} else {
		res, err = o.runner.Build(ctx)
	}

	if err != nil {
		logger.Error("Run failed", "duration", time.Since(start), "error", err)
	} else {
		logger.Info("Run completed", "duration", time.Since(start))
	}

	if o.OnRun != nil {
		o.OnRun(Run{ID: id, Request: req, Result: res, Err: err})
	}
}
