package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sanchitvj/sparkify-lake/internal/config"
	"github.com/sanchitvj/sparkify-lake/internal/engine"
	"github.com/sanchitvj/sparkify-lake/internal/pipeline"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/sanchitvj/sparkify-lake/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	songDoc  = `{"num_songs": 1, "artist_id": "A1", "artist_name": "ArtistX", "song_id": "S1", "title": "Foo", "duration": 210.5, "year": 2000}`
	eventDoc = `{"artist":"ArtistX","firstName":"Lily","lastName":"Koch","gender":"F","length":210.5,"level":"free","location":"LA","page":"NextSong","sessionId":3,"song":"Foo","ts":1541205600000,"userAgent":"UA1","userId":"7"}`
)

type shutdowner struct {
	called chan struct{}
}

func (s *shutdowner) Shutdown(...fx.ShutdownOption) error {
	close(s.called)
	return nil
}

func writeInput(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestRunPipelineTimeoutStartsAtOnStart(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, "song_data/A/A/A/TRAAAAA.json", songDoc)
	writeInput(t, input, "log_data/2018/11/2018-11-03-events.json", eventDoc)

	cfg := config.Config{
		InputRoot:   input,
		OutputRoot:  t.TempDir(),
		SongPattern: transform.DefaultSongPattern,
		LogPattern:  transform.DefaultLogPattern,
		RunTimeout:  time.Second,
	}
	session, err := engine.NewSession(storage.NewStores(nil, nil), engine.Options{}, zap.NewNop())
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	d, err := pipeline.NewDriver(pipeline.Params{Config: cfg, Session: session, Logger: zap.New(core)})
	require.NoError(t, err)

	lc := fxtest.NewLifecycle(t)
	sd := &shutdowner{called: make(chan struct{})}
	RunPipeline(lc, sd, cfg, d, zap.NewNop())

	// Slow graph start-up does not count against the run.
	time.Sleep(1200 * time.Millisecond)
	lc.RequireStart()

	select {
	case <-sd.called:
	case <-time.After(30 * time.Second):
		t.Fatal("run did not finish")
	}
	lc.RequireStop()

	assert.Equal(t, 1, logs.FilterMessage("ETL pipeline completed").Len())
	assert.Zero(t, logs.FilterMessage("pipeline failed").Len())
}

func TestRunContext(t *testing.T) {
	ctx, cancel := runContext(time.Hour)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)

	ctx, cancel = runContext(0)
	_, ok = ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.Error(t, ctx.Err())
}
