// Package engine is the in-process table engine: it loads schema-applied JSON, writes
// and re-reads hive-partitioned Parquet tables, and supplies the relational helpers the
// transforms are written with.
package engine

import (
	"fmt"
	"strings"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/xitongsys/parquet-go/parquet"
	"go.uber.org/zap"
)

// DefaultParallelism is the number of goroutines the Parquet writer and reader use.
const DefaultParallelism = 4

// Options tunes the Parquet output.
type Options struct {
	Compression string
	Parallelism int64
}

// Session is the process-wide engine handle, created once and passed to every
// transform.
type Session struct {
	stores      storage.Resolver
	log         *zap.Logger
	codec       parquet.CompressionCodec
	codecName   string
	parallelism int64
}

// NewSession validates opts and binds the engine to a store resolver.
func NewSession(stores storage.Resolver, opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	codec, name, err := parseCompression(opts.Compression)
	if err != nil {
		return nil, err
	}
	np := opts.Parallelism
	if np <= 0 {
		np = DefaultParallelism
	}
	return &Session{
		stores:      stores,
		log:         log,
		codec:       codec,
		codecName:   name,
		parallelism: np,
	}, nil
}

// Stores exposes the resolver, for callers that need raw object access.
func (s *Session) Stores() storage.Resolver {
	return s.stores
}

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger {
	return s.log
}

func parseCompression(name string) (parquet.CompressionCodec, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, "snappy", nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, "gzip", nil
	case "zstd":
		return parquet.CompressionCodec_ZSTD, "zstd", nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, "", nil
	default:
		return 0, "", apperrors.NewConfig(fmt.Sprintf("unsupported parquet compression %q", name), nil)
	}
}

// partFileName is deterministic so that reruns overwrite with identical keys.
func (s *Session) partFileName() string {
	if s.codecName == "" {
		return "part-00000.parquet"
	}
	return "part-00000." + s.codecName + ".parquet"
}
