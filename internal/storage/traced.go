package storage

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing returns a decorator that records one span per store call.
func WithTracing(tracer trace.Tracer) func(Store) Store {
	return func(inner Store) Store {
		return &tracedStore{inner: inner, tracer: tracer}
	}
}

type tracedStore struct {
	inner  Store
	tracer trace.Tracer
}

func (s *tracedStore) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "storage."+op, trace.WithAttributes(attribute.String("storage.key", key)))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *tracedStore) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := s.start(ctx, "List", prefix)
	keys, err := s.inner.List(ctx, prefix)
	span.SetAttributes(attribute.Int("storage.keys", len(keys)))
	end(span, err)
	return keys, err
}

func (s *tracedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := s.start(ctx, "Get", key)
	rc, err := s.inner.Get(ctx, key)
	end(span, err)
	return rc, err
}

func (s *tracedStore) Put(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	ctx, span := s.start(ctx, "Put", key)
	span.SetAttributes(attribute.Int("storage.bytes", len(body)))
	err := s.inner.Put(ctx, key, body, metadata)
	end(span, err)
	return err
}

func (s *tracedStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.start(ctx, "Delete", key)
	err := s.inner.Delete(ctx, key)
	end(span, err)
	return err
}

func (s *tracedStore) DeletePrefix(ctx context.Context, prefix string) error {
	ctx, span := s.start(ctx, "DeletePrefix", prefix)
	err := s.inner.DeletePrefix(ctx, prefix)
	end(span, err)
	return err
}
