package pipeline

import (
	"github.com/sanchitvj/sparkify-lake/internal/config"
	"github.com/sanchitvj/sparkify-lake/internal/engine"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the store resolver, the engine session and the Driver.
var Module = fx.Module("pipeline",
	fx.Provide(
		NewStores,
		NewSession,
		NewDriver,
	),
)

// NewStores builds the object store resolver. Every store is traced.
func NewStores(cfg config.Config, tracer trace.Tracer, log *zap.Logger) (*storage.Stores, error) {
	client, err := storage.NewS3Client(cfg.S3(), log)
	if err != nil {
		return nil, err
	}
	return storage.NewStores(client, storage.WithTracing(tracer)), nil
}

// NewSession creates the process-wide engine session.
func NewSession(cfg config.Config, stores *storage.Stores, log *zap.Logger) (*engine.Session, error) {
	return engine.NewSession(stores, engine.Options{
		Compression: cfg.Parquet.Compression,
		Parallelism: cfg.Parquet.Parallelism,
	}, log.Named("engine"))
}
