package storage

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
)

const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Location addresses a directory-like prefix in an object store. For S3 the Path is the
// key prefix inside Bucket; for the local filesystem it is a slash-separated path.
type Location struct {
	Scheme string
	Bucket string
	Path   string
}

// ParseLocation accepts s3://, s3a://, s3n:// and file:// URIs, or a plain filesystem path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, apperrors.NewConfig("empty location", nil)
	}

	if !strings.Contains(raw, "://") {
		return Location{Scheme: SchemeFile, Path: filepath.ToSlash(filepath.Clean(raw))}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, apperrors.NewConfig(fmt.Sprintf("invalid location %q", raw), err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3", "s3a", "s3n":
		if u.Host == "" {
			return Location{}, apperrors.NewConfig(fmt.Sprintf("location %q has no bucket", raw), nil)
		}
		return Location{
			Scheme: SchemeS3,
			Bucket: u.Host,
			Path:   strings.Trim(u.Path, "/"),
		}, nil
	case "file":
		p := u.Path
		if u.Host != "" {
			p = u.Host + "/" + strings.TrimPrefix(p, "/")
		}
		if p == "" {
			return Location{}, apperrors.NewConfig(fmt.Sprintf("location %q has no path", raw), nil)
		}
		return Location{Scheme: SchemeFile, Path: path.Clean(p)}, nil
	default:
		return Location{}, apperrors.NewConfig(fmt.Sprintf("unsupported location scheme %q", u.Scheme), nil)
	}
}

// MustParseLocation is ParseLocation for constants and tests.
func MustParseLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

// Join returns a child location.
func (l Location) Join(elem ...string) Location {
	parts := append([]string{l.Path}, elem...)
	joined := path.Join(parts...)
	if l.Scheme == SchemeS3 {
		joined = strings.TrimPrefix(joined, "/")
	}
	return Location{Scheme: l.Scheme, Bucket: l.Bucket, Path: joined}
}

// Prefix is the key prefix that lists everything below the location.
func (l Location) Prefix() string {
	if l.Path == "" || l.Path == "." {
		return ""
	}
	return strings.TrimSuffix(l.Path, "/") + "/"
}

// IsS3 reports whether the location lives in S3.
func (l Location) IsS3() bool {
	return l.Scheme == SchemeS3
}

func (l Location) String() string {
	if l.IsS3() {
		if l.Path == "" {
			return fmt.Sprintf("s3://%s/", l.Bucket)
		}
		return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Path)
	}
	return l.Path
}
