package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"github.com/sanchitvj/sparkify-lake/internal/transform"
)

// RunStats holds the outcome of one pipeline run.
type RunStats struct {
	RunID              string         `json:"run_id"`
	StartedAt          time.Time      `json:"started_at"`
	TotalExecutionTime string         `json:"total_execution_time"`
	Status             string         `json:"status"`
	Error              string         `json:"error,omitempty"`
	SongRecordsRead    int            `json:"song_records_read"`
	LogRecordsRead     int            `json:"log_records_read"`
	PlayEvents         int            `json:"play_events"`
	SongplaysMatched   int            `json:"songplays_matched"`
	MatchRate          float64        `json:"match_rate"`
	RowsWritten        map[string]int `json:"rows_written"`
	FilesWritten       int            `json:"files_written"`
}

func (st *RunStats) addSongs(res transform.SongResult) {
	st.SongRecordsRead = res.Records
	st.RowsWritten[res.Songs.Table] = res.Songs.Rows
	st.RowsWritten[res.Artists.Table] = res.Artists.Rows
	st.FilesWritten += res.Songs.Files + res.Artists.Files
}

func (st *RunStats) addLogs(res transform.LogResult) {
	st.LogRecordsRead = res.Records
	st.PlayEvents = res.Plays
	st.SongplaysMatched = res.Matched
	if res.Plays > 0 {
		st.MatchRate = float64(res.Matched) / float64(res.Plays)
	}
	for _, w := range []struct {
		table string
		rows  int
		files int
	}{
		{res.Users.Table, res.Users.Rows, res.Users.Files},
		{res.Time.Table, res.Time.Rows, res.Time.Files},
		{res.Songplays.Table, res.Songplays.Rows, res.Songplays.Files},
	} {
		st.RowsWritten[w.table] = w.rows
		st.FilesWritten += w.files
	}
}

// writeStats stores stats as indented JSON at loc.
func writeStats(ctx context.Context, stores storage.Resolver, loc storage.Location, stats RunStats) error {
	statsJSON, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}
	st, err := stores.Open(loc)
	if err != nil {
		return err
	}
	return st.Put(ctx, loc.Path, statsJSON, map[string]string{"run-id": stats.RunID})
}
