// Package pipeline runs the song and log transforms in order against one engine
// session and reports the outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sanchitvj/sparkify-lake/internal/config"
	"github.com/sanchitvj/sparkify-lake/internal/engine"
	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/metrics"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/sanchitvj/sparkify-lake/internal/transform"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const probeKey = "_sparkify_probe"

// Params are the Driver dependencies.
type Params struct {
	fx.In

	Config   config.Config
	Session  *engine.Session
	Tracer   trace.Tracer         `optional:"true"`
	Metrics  *metrics.RunMetrics  `optional:"true"`
	Registry *prometheus.Registry `optional:"true"`
	Pusher   metrics.Pusher       `optional:"true"`
	Logger   *zap.Logger          `optional:"true"`
}

// Driver runs the pipeline.
type Driver struct {
	session     *engine.Session
	input       storage.Location
	output      storage.Location
	songPattern string
	logPattern  string
	statsPath   string
	probe       bool

	tracer   trace.Tracer
	metrics  *metrics.RunMetrics
	registry *prometheus.Registry
	pusher   metrics.Pusher
	log      *zap.Logger
}

// NewDriver resolves the configured locations.
func NewDriver(p Params) (*Driver, error) {
	input, err := p.Config.Input()
	if err != nil {
		return nil, err
	}
	output, err := p.Config.Output()
	if err != nil {
		return nil, err
	}

	d := &Driver{
		session:     p.Session,
		input:       input,
		output:      output,
		songPattern: p.Config.SongPattern,
		logPattern:  p.Config.LogPattern,
		statsPath:   p.Config.StatsPath,
		probe:       p.Config.ProbeOutput,
		tracer:      p.Tracer,
		metrics:     p.Metrics,
		registry:    p.Registry,
		pusher:      p.Pusher,
		log:         p.Logger,
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer("")
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	return d, nil
}

// Run executes the song transform and then the log transform. The log transform reads
// the songs and artists tables the song transform wrote, so the order is fixed and the
// first failure ends the run.
func (d *Driver) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		RowsWritten: map[string]int{},
	}
	log := d.log.With(zap.String("run_id", stats.RunID))

	ctx, span := d.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", stats.RunID),
		attribute.String("input", d.input.String()),
		attribute.String("output", d.output.String()),
	))
	defer span.End()

	log.Info("starting ETL pipeline",
		zap.String("input", d.input.String()),
		zap.String("output", d.output.String()),
	)

	err := d.run(ctx, &stats, log)

	stats.TotalExecutionTime = time.Since(stats.StartedAt).String()
	stats.Status = "succeeded"
	if err != nil {
		stats.Status = "failed"
		stats.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("pipeline failed",
			zap.String("error_type", string(apperrors.TypeOf(err))),
			zap.Error(err),
		)
	} else {
		log.Info("ETL pipeline completed",
			zap.String("duration", stats.TotalExecutionTime),
			zap.Int("songplays", stats.RowsWritten[transform.SongplaysTable]),
			zap.Int("matched", stats.SongplaysMatched),
		)
	}

	d.report(ctx, stats, err, log)
	return stats, err
}

func (d *Driver) run(ctx context.Context, stats *RunStats, log *zap.Logger) error {
	if d.probe {
		if err := d.probeOutput(ctx, stats.RunID, log); err != nil {
			return err
		}
	}

	songRes, err := stage(ctx, d, "songs", func(ctx context.Context) (transform.SongResult, error) {
		return transform.ProcessSongData(ctx, d.session, d.input, d.output, d.songPattern)
	})
	if err != nil {
		return fmt.Errorf("song transform: %w", err)
	}
	stats.addSongs(songRes)

	logRes, err := stage(ctx, d, "logs", func(ctx context.Context) (transform.LogResult, error) {
		return transform.ProcessLogData(ctx, d.session, d.input, d.output, d.logPattern)
	})
	if err != nil {
		return fmt.Errorf("log transform: %w", err)
	}
	stats.addLogs(logRes)
	return nil
}

func stage[R any](ctx context.Context, d *Driver, name string, fn func(context.Context) (R, error)) (R, error) {
	ctx, span := d.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	d.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

// probeOutput writes and removes a marker under the output root so that missing
// credentials or permissions fail the run before any input is read.
func (d *Driver) probeOutput(ctx context.Context, runID string, log *zap.Logger) error {
	log.Info("testing output access", zap.String("output", d.output.String()))

	st, err := d.session.Stores().Open(d.output)
	if err != nil {
		return err
	}
	key := d.output.Join(probeKey).Path
	if err := st.Put(ctx, key, []byte("sparkify output probe "+runID), nil); err != nil {
		return apperrors.Wrap(err, fmt.Sprintf("output %s is not writable", d.output), false)
	}
	if err := st.Delete(ctx, key); err != nil {
		log.Warn("failed to clean up probe object", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// report writes run stats and metrics. Failures here are logged and never change the
// run outcome.
func (d *Driver) report(ctx context.Context, stats RunStats, runErr error, log *zap.Logger) {
	if d.metrics != nil {
		d.metrics.SetRecords("song_data", stats.SongRecordsRead)
		d.metrics.SetRecords("log_data", stats.LogRecordsRead)
		for table, rows := range stats.RowsWritten {
			d.metrics.SetRows(table, rows)
		}
		d.metrics.SetMatched(stats.SongplaysMatched)
		d.metrics.RunFinished(runErr, time.Now())
	}

	// Reporting outlives a cancelled run context.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if d.statsPath != "" {
		loc, err := storage.ParseLocation(d.statsPath)
		if err != nil {
			log.Warn("invalid stats path", zap.String("path", d.statsPath), zap.Error(err))
		} else if err := writeStats(rctx, d.session.Stores(), loc, stats); err != nil {
			log.Warn("failed to write stats file", zap.String("path", loc.String()), zap.Error(err))
		} else {
			log.Info("wrote run stats", zap.String("path", loc.String()))
		}
	}

	if d.pusher != nil && d.registry != nil {
		if err := d.pusher.Push(rctx, d.registry); err != nil {
			log.Warn("failed to push metrics", zap.Error(err))
		}
	}
}
