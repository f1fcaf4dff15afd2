package engine

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/schema"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocuments(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		titles []string
	}{
		{name: "single object", input: `{"title":"Foo"}`, titles: []string{"Foo"}},
		{name: "json lines", input: "{\"title\":\"Foo\"}\n{\"title\":\"Bar\"}\n", titles: []string{"Foo", "Bar"}},
		{name: "array", input: `[{"title":"Foo"},{"title":null}]`, titles: []string{"Foo", ""}},
		{name: "empty file", input: "", titles: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := decodeDocuments(strings.NewReader(tt.input), "k.json", schema.SongSchema)
			require.NoError(t, err)
			var titles []string
			for _, r := range recs {
				if v := r.Text("title"); v != nil {
					titles = append(titles, *v)
				} else {
					titles = append(titles, "")
				}
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestDecodeDocumentsRejectsMalformed(t *testing.T) {
	for _, input := range []string{`{"title":`, `"just a string"`, `[1, 2]`, "{\"title\":\"Foo\"}\n{oops}"} {
		_, err := decodeDocuments(strings.NewReader(input), "k.json", schema.SongSchema)
		require.Error(t, err, input)
		assert.True(t, apperrors.IsRead(err), input)
	}
}

func TestReadJSON(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, "")
	root := storage.MustParseLocation(t.TempDir())
	st := storage.NewLocalStore()

	require.NoError(t, st.Put(ctx, root.Join("song_data/A/A/B/b.json").Path, []byte(`{"song_id":"S2"}`), nil))
	require.NoError(t, st.Put(ctx, root.Join("song_data/A/A/A/a.json").Path, []byte(`{"song_id":"S1"}`), nil))

	recs, err := ReadJSON(ctx, s, root, "song_data/*/*/*/*.json", schema.SongSchema)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "S1", *recs[0].Text("song_id"), "files are read in key order")
	assert.Equal(t, "S2", *recs[1].Text("song_id"))

	_, err = ReadJSON(ctx, s, root, "log_data/*/*/*.json", schema.EventSchema)
	require.Error(t, err)
	assert.True(t, apperrors.IsRead(err))
}
