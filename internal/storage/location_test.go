package storage

import (
	"testing"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want Location
	}{
		{raw: "s3a://udacity-dend/", want: Location{Scheme: SchemeS3, Bucket: "udacity-dend"}},
		{
			raw:  "s3a://udacity-data-lake-project-mar15/data_lake_project/",
			want: Location{Scheme: SchemeS3, Bucket: "udacity-data-lake-project-mar15", Path: "data_lake_project"},
		},
		{raw: "s3://bucket/a/b", want: Location{Scheme: SchemeS3, Bucket: "bucket", Path: "a/b"}},
		{raw: "S3N://bucket", want: Location{Scheme: SchemeS3, Bucket: "bucket"}},
		{raw: "file:///tmp/lake/", want: Location{Scheme: SchemeFile, Path: "/tmp/lake"}},
		{raw: "/tmp/lake/", want: Location{Scheme: SchemeFile, Path: "/tmp/lake"}},
		{raw: "data", want: Location{Scheme: SchemeFile, Path: "data"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLocationErrors(t *testing.T) {
	for _, raw := range []string{"", "   ", "s3://", "gs://bucket/x", "file://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseLocation(raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfig(err))
		})
	}
}

func TestLocationJoinAndPrefix(t *testing.T) {
	root := MustParseLocation("s3a://bucket/")
	songs := root.Join("songs")
	assert.Equal(t, "songs", songs.Path)
	assert.Equal(t, "songs/", songs.Prefix())
	assert.Equal(t, "", root.Prefix())
	assert.Equal(t, "s3://bucket/songs", songs.String())
	assert.Equal(t, "s3://bucket/", root.String())

	local := MustParseLocation("/tmp/lake")
	assert.Equal(t, "/tmp/lake/time/year=2018", local.Join("time", "year=2018").Path)
	assert.Equal(t, "/tmp/lake/", local.Prefix())
	assert.False(t, local.IsS3())
}
