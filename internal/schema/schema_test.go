package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func TestRegistryFieldOrder(t *testing.T) {
	names := func(s *Schema) []string {
		out := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{
		"artist_id", "artist_latitude", "artist_location", "artist_longitude", "artist_name",
		"duration", "num_songs", "song_id", "title", "year",
	}, names(SongSchema))
	assert.Len(t, EventSchema.Fields, 18)

	ts, ok := EventSchema.Lookup("ts")
	require.True(t, ok)
	assert.Equal(t, Long, ts.Type)
	assert.True(t, ts.Nullable)
}

func TestDecodeSongRecord(t *testing.T) {
	rec := SongSchema.Decode(decodeDoc(t, `{
		"num_songs": 1, "artist_id": "A1", "artist_latitude": null,
		"artist_longitude": -118.24, "artist_location": "LA", "artist_name": "ArtistX",
		"song_id": "S1", "title": "Foo", "duration": 210.5, "year": 0, "extra": true
	}`))

	assert.Equal(t, "S1", *rec.Text("song_id"))
	assert.Equal(t, "Foo", *rec.Text("title"))
	assert.Equal(t, 210.5, *rec.Float("duration"))
	assert.Equal(t, int32(0), *rec.Int32("year"))
	assert.Equal(t, -118.24, *rec.Float("artist_longitude"))
	assert.Nil(t, rec.Float("artist_latitude"))
	assert.Nil(t, rec.Text("extra"))
	assert.Same(t, SongSchema, rec.Schema())
}

func TestDecodeCoercion(t *testing.T) {
	rec := EventSchema.Decode(decodeDoc(t, `{
		"userId": "39", "sessionId": 1.5, "status": 99999999999,
		"ts": 1541205600000, "length": "abc", "registration": "1540835983796.0",
		"artist": 42, "song": {"a": 1}, "gender": false, "page": "NextSong"
	}`))

	assert.Equal(t, int64(39), *rec.Int("userId"), "numeric strings coerce")
	assert.Nil(t, rec.Int("sessionId"), "non-integral int is null")
	assert.Nil(t, rec.Int("status"), "int overflow is null")
	assert.Equal(t, int64(1541205600000), *rec.Int("ts"))
	assert.Nil(t, rec.Float("length"))
	assert.Equal(t, 1540835983796.0, *rec.Float("registration"))
	assert.Equal(t, "42", *rec.Text("artist"))
	assert.Equal(t, `{"a":1}`, *rec.Text("song"))
	assert.Equal(t, "false", *rec.Text("gender"))
	assert.Nil(t, rec.Text("firstName"), "missing fields are null")
}

func TestDecodeNonFiniteDoubles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"nan", `"NaN"`},
		{"lower nan", `"nan"`},
		{"inf", `"Inf"`},
		{"negative infinity", `"-Infinity"`},
		{"overflow string", `"1e400"`},
		{"overflow number", `1e400`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := SongSchema.Decode(decodeDoc(t, `{"duration": `+tt.raw+`, "artist_latitude": `+tt.raw+`}`))
			assert.Nil(t, rec.Float("duration"))
			assert.Nil(t, rec.Float("artist_latitude"))
		})
	}

	rec := SongSchema.Decode(decodeDoc(t, `{"duration": "-1.5e2"}`))
	assert.Equal(t, -150.0, *rec.Float("duration"))
}

func TestRequire(t *testing.T) {
	require.NoError(t, EventSchema.Require("userId", "firstName", "length"))

	err := EventSchema.Require("userId", "fistName")
	require.Error(t, err)
	assert.True(t, apperrors.IsRead(err))
	assert.Contains(t, err.Error(), `"fistName"`)
}

func TestAccessorsOutsideSchema(t *testing.T) {
	rec := SongSchema.Decode(map[string]any{"title": "Foo"})
	assert.Nil(t, rec.Text("lenght"))
	assert.Nil(t, Record{}.Text("title"))
}
