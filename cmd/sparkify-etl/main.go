package main

import (
	"context"
	"time"

	"github.com/sanchitvj/sparkify-lake/internal/config"
	"github.com/sanchitvj/sparkify-lake/internal/logger"
	"github.com/sanchitvj/sparkify-lake/internal/metrics"
	"github.com/sanchitvj/sparkify-lake/internal/pipeline"
	"github.com/sanchitvj/sparkify-lake/internal/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		pipeline.Module,

		fx.Invoke(RunPipeline),
	)
	app.Run()
}

// RunPipeline starts the run once the graph is up and shuts the app down when it
// finishes, with a non-zero exit code on failure. The run timeout starts at OnStart.
// Stopping the app early cancels the run.
func RunPipeline(lc fx.Lifecycle, sd fx.Shutdowner, cfg config.Config, d *pipeline.Driver, log *zap.Logger) {
	cancel := context.CancelFunc(func() {})
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, stop := runContext(cfg.RunTimeout)
			cancel = stop
			go func() {
				defer close(done)
				code := 0
				if _, err := d.Run(ctx); err != nil {
					code = 1
				}
				if err := sd.Shutdown(fx.ExitCode(code)); err != nil {
					log.Error("failed to shut down", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				log.Warn("pipeline did not stop before shutdown deadline")
			}
			return nil
		},
	})
}

// runContext bounds a run by timeout, or only by cancellation when timeout is zero.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
