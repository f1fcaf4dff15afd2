package transform

import (
	"context"
	"fmt"

	"github.com/sanchitvj/sparkify-lake/internal/engine"
	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/schema"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"go.uber.org/zap"
)

// DefaultLogPattern selects event documents below the input root.
const DefaultLogPattern = "log_data/*/*/*.json"

// playPage marks the events that represent a song being played.
const playPage = "NextSong"

// LogResult summarizes one ProcessLogData call.
type LogResult struct {
	Records   int
	Plays     int
	Matched   int
	Users     engine.WriteResult
	Time      engine.WriteResult
	Songplays engine.WriteResult
}

// event is a NextSong record with its derived timestamp.
type event struct {
	rec   schema.Record
	start int64
	cal   TimeRow
}

// playKey is the exact-match join key between events and songs.
type playKey struct {
	Title    string
	Artist   string
	Duration float64
}

// ProcessLogData loads event records matching pattern below input, keeps the song plays,
// and writes the users, time and songplays tables below output. The songs and artists
// tables written by ProcessSongData are re-read from output to resolve song plays.
func ProcessLogData(ctx context.Context, s *engine.Session, input, output storage.Location, pattern string) (LogResult, error) {
	var res LogResult
	if pattern == "" {
		pattern = DefaultLogPattern
	}

	sch := schema.EventSchema
	if err := sch.Require(
		"page", "ts", "userId", "firstName", "lastName", "gender", "level",
		"song", "artist", "length", "sessionId", "location", "userAgent",
	); err != nil {
		return res, err
	}

	records, err := engine.ReadJSON(ctx, s, input, pattern, sch)
	if err != nil {
		return res, fmt.Errorf("load log data: %w", err)
	}
	res.Records = len(records)

	plays := engine.Filter(records, func(r schema.Record) bool {
		page := r.Text("page")
		return page != nil && *page == playPage
	})
	res.Plays = len(plays)

	users := engine.Distinct(engine.Map(plays, userFromRecord), UserRow.key)
	res.Users, err = engine.WriteTable(ctx, s, output, usersTable, users)
	if err != nil {
		return res, fmt.Errorf("write users table: %w", err)
	}

	events := make([]event, len(plays))
	for i, r := range plays {
		ts := r.Int("ts")
		if ts == nil {
			return res, apperrors.NewRead(fmt.Sprintf("%s event %d has no ts", playPage, i), nil)
		}
		start := startTime(*ts)
		events[i] = event{rec: r, start: start, cal: timeParts(start)}
	}

	times := engine.Distinct(
		engine.Map(events, func(e event) TimeRow { return e.cal }),
		func(t TimeRow) int64 { return t.StartTime },
	)
	res.Time, err = engine.WriteTable(ctx, s, output, timeTable, times)
	if err != nil {
		return res, fmt.Errorf("write time table: %w", err)
	}

	lookup, err := songLookup(ctx, s, output)
	if err != nil {
		return res, err
	}

	songplays := engine.LeftJoin(events, lookup, eventKey, func(e event, song *SongRow) SongplayRow {
		row := SongplayRow{
			StartTime: e.start,
			UserID:    e.rec.Int32("userId"),
			Level:     e.rec.Text("level"),
			SessionID: e.rec.Int32("sessionId"),
			Location:  e.rec.Text("location"),
			UserAgent: e.rec.Text("userAgent"),
			Year:      e.cal.Year,
			Month:     e.cal.Month,
		}
		if song != nil {
			row.SongID = song.SongID
			row.ArtistID = song.ArtistID
			res.Matched++
		}
		return row
	})
	res.Songplays, err = engine.WriteTable(ctx, s, output, songplaysTable, songplays)
	if err != nil {
		return res, fmt.Errorf("write songplays table: %w", err)
	}

	s.Logger().Info("log data processed",
		zap.Int("records", res.Records),
		zap.Int("plays", res.Plays),
		zap.Int("users", res.Users.Rows),
		zap.Int("time", res.Time.Rows),
		zap.Int("songplays", res.Songplays.Rows),
		zap.Int("matched", res.Matched),
	)
	return res, nil
}

// songLookup re-reads the persisted songs and artists tables and indexes songs by
// (title, artist name, duration). The songs table carries no artist name, so it is
// reached through artist_id: a song is keyed under every name any artists row gives
// its artist_id, and an event naming any of them matches the song.
func songLookup(ctx context.Context, s *engine.Session, output storage.Location) (map[playKey]SongRow, error) {
	songs, err := ReadSongs(ctx, s, output)
	if err != nil {
		return nil, fmt.Errorf("re-read songs table: %w", err)
	}
	artists, err := ReadArtists(ctx, s, output)
	if err != nil {
		return nil, fmt.Errorf("re-read artists table: %w", err)
	}

	names := map[string][]string{}
	for _, a := range artists {
		if a.ArtistID == nil || a.Name == nil {
			continue
		}
		names[*a.ArtistID] = append(names[*a.ArtistID], *a.Name)
	}

	type candidate struct {
		key  playKey
		song SongRow
	}
	var candidates []candidate
	for _, song := range songs {
		if song.Title == nil || song.Duration == nil || song.ArtistID == nil {
			continue
		}
		for _, name := range names[*song.ArtistID] {
			candidates = append(candidates, candidate{
				key:  playKey{Title: *song.Title, Artist: name, Duration: *song.Duration},
				song: song,
			})
		}
	}

	idx := engine.Lookup(candidates,
		func(c candidate) (playKey, bool) { return c.key, true },
		func(a, b candidate) bool { return songLess(a.song, b.song) },
	)
	lookup := make(map[playKey]SongRow, len(idx))
	for k, c := range idx {
		lookup[k] = c.song
	}
	return lookup, nil
}

func eventKey(e event) (playKey, bool) {
	song, artist, length := e.rec.Text("song"), e.rec.Text("artist"), e.rec.Float("length")
	if song == nil || artist == nil || length == nil {
		return playKey{}, false
	}
	return playKey{Title: *song, Artist: *artist, Duration: *length}, true
}

// songLess orders by (song_id, artist_id) with nulls first.
func songLess(a, b SongRow) bool {
	if c := compareNullable(a.SongID, b.SongID); c != 0 {
		return c < 0
	}
	return compareNullable(a.ArtistID, b.ArtistID) < 0
}

func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func userFromRecord(r schema.Record) UserRow {
	return UserRow{
		UserID:    r.Int32("userId"),
		FirstName: r.Text("firstName"),
		LastName:  r.Text("lastName"),
		Gender:    r.Text("gender"),
		Level:     r.Text("level"),
	}
}
