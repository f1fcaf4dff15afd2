package transform

import (
	"context"
	"fmt"

	"github.com/sanchitvj/sparkify-lake/internal/engine"
	"github.com/sanchitvj/sparkify-lake/internal/schema"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"go.uber.org/zap"
)

// DefaultSongPattern selects song documents below the input root.
const DefaultSongPattern = "song_data/*/*/*/*.json"

// SongResult summarizes one ProcessSongData call.
type SongResult struct {
	Records int
	Songs   engine.WriteResult
	Artists engine.WriteResult
}

// ProcessSongData loads song records matching pattern below input and writes the songs
// and artists tables below output, replacing any previous run.
func ProcessSongData(ctx context.Context, s *engine.Session, input, output storage.Location, pattern string) (SongResult, error) {
	var res SongResult
	if pattern == "" {
		pattern = DefaultSongPattern
	}

	sch := schema.SongSchema
	if err := sch.Require(
		"song_id", "title", "artist_id", "year", "duration",
		"artist_name", "artist_location", "artist_latitude", "artist_longitude",
	); err != nil {
		return res, err
	}

	records, err := engine.ReadJSON(ctx, s, input, pattern, sch)
	if err != nil {
		return res, fmt.Errorf("load song data: %w", err)
	}
	res.Records = len(records)

	songs := engine.Distinct(engine.Map(records, songFromRecord), SongRow.key)
	res.Songs, err = engine.WriteTable(ctx, s, output, songsTable, songs)
	if err != nil {
		return res, fmt.Errorf("write songs table: %w", err)
	}

	artists := engine.Distinct(engine.Map(records, artistFromRecord), ArtistRow.key)
	res.Artists, err = engine.WriteTable(ctx, s, output, artistsTable, artists)
	if err != nil {
		return res, fmt.Errorf("write artists table: %w", err)
	}

	s.Logger().Info("song data processed",
		zap.Int("records", res.Records),
		zap.Int("songs", res.Songs.Rows),
		zap.Int("artists", res.Artists.Rows),
	)
	return res, nil
}

func songFromRecord(r schema.Record) SongRow {
	return SongRow{
		SongID:   r.Text("song_id"),
		Title:    r.Text("title"),
		ArtistID: r.Text("artist_id"),
		Year:     r.Int32("year"),
		Duration: r.Float("duration"),
	}
}

func artistFromRecord(r schema.Record) ArtistRow {
	return ArtistRow{
		ArtistID:  r.Text("artist_id"),
		Name:      r.Text("artist_name"),
		Location:  r.Text("artist_location"),
		Latitude:  r.Float("artist_latitude"),
		Longitude: r.Float("artist_longitude"),
	}
}
