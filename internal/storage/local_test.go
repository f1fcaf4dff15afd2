package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := filepath.ToSlash(t.TempDir())
	st := NewLocalStore()

	require.NoError(t, st.Put(ctx, root+"/songs/year=2018/part-00000.parquet", []byte("a"), nil))
	require.NoError(t, st.Put(ctx, root+"/songs/year=2019/part-00000.parquet", []byte("b"), nil))
	require.NoError(t, st.Put(ctx, root+"/songs_old/part-00000.parquet", []byte("c"), nil))

	keys, err := st.List(ctx, root+"/songs/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		root + "/songs/year=2018/part-00000.parquet",
		root + "/songs/year=2019/part-00000.parquet",
	}, keys)

	rc, err := st.Get(ctx, keys[1])
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "b", string(body))

	require.NoError(t, st.DeletePrefix(ctx, root+"/songs/"))
	keys, err = st.List(ctx, root+"/songs/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = st.List(ctx, root+"/songs_old/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestLocalStoreMissing(t *testing.T) {
	ctx := context.Background()
	root := filepath.ToSlash(t.TempDir())
	st := NewLocalStore()

	keys, err := st.List(ctx, root+"/nothing/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = st.Get(ctx, root+"/nothing.json")
	require.Error(t, err)
	assert.True(t, apperrors.IsRead(err))

	require.NoError(t, st.Delete(ctx, root+"/nothing.json"))
	require.NoError(t, st.DeletePrefix(ctx, root+"/nothing/"))

	err = st.DeletePrefix(ctx, "/")
	assert.True(t, apperrors.IsWrite(err))
}

func TestGlob(t *testing.T) {
	ctx := context.Background()
	root := MustParseLocation(t.TempDir())
	st := NewLocalStore()

	for _, rel := range []string{
		"song_data/A/B/C/TRAAAAW128F429D538.json",
		"song_data/A/B/D/TRAAABD128F429CF47.json",
		"song_data/A/B/TRAAAAX.json",
		"song_data/A/B/C/notes.txt",
		"log_data/2018/11/2018-11-01-events.json",
	} {
		require.NoError(t, st.Put(ctx, root.Join(rel).Path, []byte("{}"), nil))
	}

	songs, err := Glob(ctx, st, root, "song_data/*/*/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		root.Join("song_data/A/B/C/TRAAAAW128F429D538.json").Path,
		root.Join("song_data/A/B/D/TRAAABD128F429CF47.json").Path,
	}, songs)

	logs, err := Glob(ctx, st, root, "log_data/*/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{root.Join("log_data/2018/11/2018-11-01-events.json").Path}, logs)

	all, err := Glob(ctx, st, root, "**/*.json")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = Glob(ctx, st, root, "song_data/[")
	assert.True(t, apperrors.IsConfig(err))
}

func TestStoresResolve(t *testing.T) {
	wrapped := 0
	stores := NewStores(nil, func(s Store) Store {
		wrapped++
		return s
	})

	st, err := stores.Open(MustParseLocation("/tmp/lake"))
	require.NoError(t, err)
	assert.NotNil(t, st)
	assert.Equal(t, 1, wrapped)

	_, err = stores.Open(MustParseLocation("s3://bucket/x"))
	assert.True(t, apperrors.IsConfig(err))
}
