// Package storage is the object store layer: S3 through aws-sdk-go and the local
// filesystem behind one Store interface.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
)

// Store is a flat key/value object store. Keys are slash separated. List and
// DeletePrefix operate on every key that starts with prefix.
type Store interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body []byte, metadata map[string]string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Resolver hands out the Store backing a Location.
type Resolver interface {
	Open(loc Location) (Store, error)
}

// Stores resolves S3 locations to per-bucket S3 stores sharing one client, and file
// locations to the local filesystem.
type Stores struct {
	s3    *S3Client
	local Store
	wrap  func(Store) Store

	buckets map[string]Store
}

// NewStores builds a resolver. s3 may be nil when only local locations are used; wrap,
// when set, decorates every store handed out.
func NewStores(s3 *S3Client, wrap func(Store) Store) *Stores {
	var local Store = NewLocalStore()
	if wrap != nil {
		local = wrap(local)
	}
	return &Stores{
		s3:      s3,
		local:   local,
		wrap:    wrap,
		buckets: make(map[string]Store),
	}
}

// Open implements Resolver.
func (s *Stores) Open(loc Location) (Store, error) {
	if !loc.IsS3() {
		return s.local, nil
	}
	if s.s3 == nil {
		return nil, apperrors.NewConfig(fmt.Sprintf("no S3 client configured for %s", loc), nil)
	}
	if st, ok := s.buckets[loc.Bucket]; ok {
		return st, nil
	}
	var st Store = s.s3.Bucket(loc.Bucket)
	if s.wrap != nil {
		st = s.wrap(st)
	}
	s.buckets[loc.Bucket] = st
	return st, nil
}

// Glob lists the keys below root whose root-relative path matches pattern
// (doublestar syntax, e.g. "song_data/*/*/*/*.json"). Results are sorted.
func Glob(ctx context.Context, st Store, root Location, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, apperrors.NewConfig(fmt.Sprintf("invalid pattern %q", pattern), nil)
	}

	prefix := root.Prefix()
	// Narrow the listing to the literal directory part of the pattern.
	base, _ := doublestar.SplitPattern(pattern)
	listPrefix := prefix
	if base != "." && base != "" {
		listPrefix = prefix + strings.TrimSuffix(base, "/") + "/"
	}

	keys, err := st.List(ctx, listPrefix)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return nil, apperrors.NewConfig(fmt.Sprintf("invalid pattern %q", pattern), err)
		}
		if ok {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
