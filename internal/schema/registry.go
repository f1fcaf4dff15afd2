package schema

// SongSchema is the shape of one song metadata document.
var SongSchema = New("song_data",
	Field{Name: "artist_id", Type: String, Nullable: true},
	Field{Name: "artist_latitude", Type: Double, Nullable: true},
	Field{Name: "artist_location", Type: String, Nullable: true},
	Field{Name: "artist_longitude", Type: Double, Nullable: true},
	Field{Name: "artist_name", Type: String, Nullable: true},
	Field{Name: "duration", Type: Double, Nullable: true},
	Field{Name: "num_songs", Type: Int, Nullable: true},
	Field{Name: "song_id", Type: String, Nullable: true},
	Field{Name: "title", Type: String, Nullable: true},
	Field{Name: "year", Type: Int, Nullable: true},
)

// EventSchema is the shape of one user activity log line. ts is epoch milliseconds and
// needs 64 bits.
var EventSchema = New("log_data",
	Field{Name: "artist", Type: String, Nullable: true},
	Field{Name: "auth", Type: String, Nullable: true},
	Field{Name: "firstName", Type: String, Nullable: true},
	Field{Name: "gender", Type: String, Nullable: true},
	Field{Name: "itemInSession", Type: Int, Nullable: true},
	Field{Name: "lastName", Type: String, Nullable: true},
	Field{Name: "length", Type: Double, Nullable: true},
	Field{Name: "level", Type: String, Nullable: true},
	Field{Name: "location", Type: String, Nullable: true},
	Field{Name: "method", Type: String, Nullable: true},
	Field{Name: "page", Type: String, Nullable: true},
	Field{Name: "registration", Type: Double, Nullable: true},
	Field{Name: "sessionId", Type: Int, Nullable: true},
	Field{Name: "song", Type: String, Nullable: true},
	Field{Name: "status", Type: Int, Nullable: true},
	Field{Name: "ts", Type: Long, Nullable: true},
	Field{Name: "userAgent", Type: String, Nullable: true},
	Field{Name: "userId", Type: Int, Nullable: true},
)
