// Package transform derives the star schema tables from raw song and listening-event
// records.
package transform

import (
	"context"

	"github.com/sanchitvj/sparkify-lake/internal/engine"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
)

// Table names under the output root.
const (
	SongsTable     = "songs"
	ArtistsTable   = "artists"
	UsersTable     = "users"
	TimeTable      = "time"
	SongplaysTable = "songplays"
)

// SongRow is one row of the songs dimension.
type SongRow struct {
	SongID   *string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Title    *string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID *string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Year     *int32   `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Duration *float64 `parquet:"name=duration, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ArtistRow is one row of the artists dimension.
type ArtistRow struct {
	ArtistID  *string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Name      *string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Location  *string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Latitude  *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// UserRow is one row of the users dimension.
type UserRow struct {
	UserID    *int32  `parquet:"name=user_id, type=INT32, repetitiontype=OPTIONAL"`
	FirstName *string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	LastName  *string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Gender    *string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Level     *string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// TimeRow is one row of the time dimension, keyed by StartTime in epoch seconds.
type TimeRow struct {
	StartTime int64  `parquet:"name=start_time, type=INT64"`
	Hour      int32  `parquet:"name=hour, type=INT32"`
	Day       int32  `parquet:"name=day, type=INT32"`
	Week      int32  `parquet:"name=week, type=INT32"`
	Month     int32  `parquet:"name=month, type=INT32"`
	Year      int32  `parquet:"name=year, type=INT32"`
	Weekday   string `parquet:"name=weekday, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// SongplayRow is one row of the songplays fact table. SongID and ArtistID are nil
// when the event matched no song. An event matches a song when its artist equals any
// name recorded for the song's artist_id, not only the name on the song record.
type SongplayRow struct {
	StartTime int64   `parquet:"name=start_time, type=INT64"`
	UserID    *int32  `parquet:"name=user_id, type=INT32, repetitiontype=OPTIONAL"`
	Level     *string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SongID    *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID  *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SessionID *int32  `parquet:"name=session_id, type=INT32, repetitiontype=OPTIONAL"`
	Location  *string `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	UserAgent *string `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Year      int32   `parquet:"name=year, type=INT32"`
	Month     int32   `parquet:"name=month, type=INT32"`
}

var (
	songsTable = engine.Table[SongRow]{
		Name:        SongsTable,
		PartitionBy: []string{"year", "artist_id"},
		Partition: func(r SongRow) []engine.PartitionValue {
			return []engine.PartitionValue{engine.PartitionInt(r.Year), engine.PartitionString(r.ArtistID)}
		},
	}
	artistsTable = engine.Table[ArtistRow]{Name: ArtistsTable}
	usersTable   = engine.Table[UserRow]{Name: UsersTable}
	timeTable    = engine.Table[TimeRow]{
		Name:        TimeTable,
		PartitionBy: []string{"year", "month"},
		Partition: func(r TimeRow) []engine.PartitionValue {
			return []engine.PartitionValue{engine.PartitionInt32(r.Year), engine.PartitionInt32(r.Month)}
		},
	}
	songplaysTable = engine.Table[SongplayRow]{
		Name:        SongplaysTable,
		PartitionBy: []string{"year", "month"},
		Partition: func(r SongplayRow) []engine.PartitionValue {
			return []engine.PartitionValue{engine.PartitionInt32(r.Year), engine.PartitionInt32(r.Month)}
		},
	}
)

// ReadSongs loads a previously written songs table.
func ReadSongs(ctx context.Context, s *engine.Session, output storage.Location) ([]SongRow, error) {
	return engine.ReadTable(ctx, s, output, songsTable)
}

// ReadArtists loads a previously written artists table.
func ReadArtists(ctx context.Context, s *engine.Session, output storage.Location) ([]ArtistRow, error) {
	return engine.ReadTable(ctx, s, output, artistsTable)
}

// ReadUsers loads a previously written users table.
func ReadUsers(ctx context.Context, s *engine.Session, output storage.Location) ([]UserRow, error) {
	return engine.ReadTable(ctx, s, output, usersTable)
}

// ReadTime loads a previously written time table.
func ReadTime(ctx context.Context, s *engine.Session, output storage.Location) ([]TimeRow, error) {
	return engine.ReadTable(ctx, s, output, timeTable)
}

// ReadSongplays loads a previously written songplays table.
func ReadSongplays(ctx context.Context, s *engine.Session, output storage.Location) ([]SongplayRow, error) {
	return engine.ReadTable(ctx, s, output, songplaysTable)
}

type songKey struct {
	SongID, Title, ArtistID engine.Nullable[string]
	Year                    engine.Nullable[int32]
	Duration                engine.Nullable[float64]
}

func (r SongRow) key() songKey {
	return songKey{
		SongID:   engine.NullableOf(r.SongID),
		Title:    engine.NullableOf(r.Title),
		ArtistID: engine.NullableOf(r.ArtistID),
		Year:     engine.NullableOf(r.Year),
		Duration: engine.NullableOf(r.Duration),
	}
}

type artistKey struct {
	ArtistID, Name, Location engine.Nullable[string]
	Latitude, Longitude      engine.Nullable[float64]
}

func (r ArtistRow) key() artistKey {
	return artistKey{
		ArtistID:  engine.NullableOf(r.ArtistID),
		Name:      engine.NullableOf(r.Name),
		Location:  engine.NullableOf(r.Location),
		Latitude:  engine.NullableOf(r.Latitude),
		Longitude: engine.NullableOf(r.Longitude),
	}
}

type userKey struct {
	UserID                             engine.Nullable[int32]
	FirstName, LastName, Gender, Level engine.Nullable[string]
}

func (r UserRow) key() userKey {
	return userKey{
		UserID:    engine.NullableOf(r.UserID),
		FirstName: engine.NullableOf(r.FirstName),
		LastName:  engine.NullableOf(r.LastName),
		Gender:    engine.NullableOf(r.Gender),
		Level:     engine.NullableOf(r.Level),
	}
}
