package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPARKIFY_CONFIG", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION",
		"SPARKIFY_AWS_ACCESS_KEY_ID", "SPARKIFY_AWS_SECRET_ACCESS_KEY", "SPARKIFY_AWS_REGION",
		"SPARKIFY_OUTPUT_ROOT", "SPARKIFY_INPUT_ROOT", "SPARKIFY_PARQUET_COMPRESSION",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dl.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultInput, cfg.InputRoot)
	assert.Equal(t, DefaultOutput, cfg.OutputRoot)
	assert.Equal(t, "song_data/*/*/*/*.json", cfg.SongPattern)
	assert.Equal(t, "log_data/*/*/*.json", cfg.LogPattern)
	assert.Equal(t, DefaultTimeout, cfg.RunTimeout)
	assert.True(t, cfg.ProbeOutput)
	assert.Equal(t, "snappy", cfg.Parquet.Compression)
	assert.Equal(t, int64(4), cfg.Parquet.Parallelism)

	out, err := cfg.Output()
	require.NoError(t, err)
	assert.Equal(t, storage.Location{Scheme: storage.SchemeS3, Bucket: "udacity-data-lake-project-mar15", Path: "data_lake_project"}, out)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPARKIFY_CONFIG", writeConfig(t, `
output_root: /tmp/lake
run_timeout: 30m
aws:
  access_key_id: AKIAFILE
  secret_access_key: file-secret
  region: eu-west-1
parquet:
  compression: gzip
`))
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("SPARKIFY_INPUT_ROOT", "s3://other-bucket/raw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lake", cfg.OutputRoot)
	assert.Equal(t, "s3://other-bucket/raw", cfg.InputRoot)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, "AKIAFILE", cfg.AWS.AccessKeyID)
	assert.Equal(t, "env-secret", cfg.AWS.SecretAccessKey)
	assert.Equal(t, "eu-west-1", cfg.S3().Region)
	assert.Equal(t, "gzip", cfg.Parquet.Compression)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "half credentials", body: "aws:\n  access_key_id: AKIAONLY\n"},
		{name: "bad compression", body: "parquet:\n  compression: brotli\n"},
		{name: "bad location", body: "output_root: ftp://host/lake\n"},
		{name: "tracing without endpoint", body: "tracing:\n  enabled: true\n  endpoint: \"\"\n"},
		{name: "unparsable yaml", body: "aws: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SPARKIFY_CONFIG", writeConfig(t, tt.body))
			_, err := Load()
			require.Error(t, err)
			assert.True(t, apperrors.IsConfig(err), err.Error())
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPARKIFY_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		require.Error(t, err)
		assert.True(t, apperrors.IsConfig(err))
	})
}
