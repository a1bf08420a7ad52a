// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aditya-nis/EyeTalk/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a transcript does not exist.
var ErrNotFound = errors.New("transcript not found")

// Store wraps SQLite access for transcript data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			source TEXT NOT NULL,
			text TEXT NOT NULL,
			symbols TEXT NOT NULL,
			short_blink_ms INTEGER NOT NULL,
			long_blink_ms INTEGER NOT NULL,
			letter_pause_ms INTEGER NOT NULL,
			word_pause_ms INTEGER NOT NULL,
			dots INTEGER NOT NULL,
			dashes INTEGER NOT NULL,
			noise INTEGER NOT NULL,
			letters INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			spaces INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transcript_symbol_stats (
			transcript_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (transcript_id, symbol)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_ended_at ON transcripts(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_transcript_symbol_stats_symbol ON transcript_symbol_stats(symbol);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const transcriptColumns = `id, uuid, started_at, ended_at, source, text, symbols,
	short_blink_ms, long_blink_ms, letter_pause_ms, word_pause_ms,
	dots, dashes, noise, letters, unknown, spaces, duration_ms`

// InsertTranscript stores a finished transcript and its per-symbol counts.
func (s *Store) InsertTranscript(ctx context.Context, rec model.TranscriptRecord, symbols []model.SymbolStats) (id int64, err error) {
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}
	encoded, err := json.Marshal(nonNil(rec.Symbols))
	if err != nil {
		return 0, fmt.Errorf("failed to encode symbols: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transcripts (uuid, started_at, ended_at, source, text, symbols,
			short_blink_ms, long_blink_ms, letter_pause_ms, word_pause_ms,
			dots, dashes, noise, letters, unknown, spaces, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.EndedAt.UTC().Format(time.RFC3339Nano),
		rec.Source,
		rec.Text,
		string(encoded),
		rec.Thresholds.ShortBlinkMin.Milliseconds(),
		rec.Thresholds.LongBlinkMin.Milliseconds(),
		rec.Thresholds.LetterPause.Milliseconds(),
		rec.Thresholds.WordPause.Milliseconds(),
		rec.Counters.Dots,
		rec.Counters.Dashes,
		rec.Counters.Noise,
		rec.Counters.Letters,
		rec.Counters.Unknown,
		rec.Counters.Spaces,
		rec.EndedAt.Sub(rec.StartedAt).Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(symbols) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO transcript_symbol_stats (transcript_id, symbol, count) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ss := range symbols {
			if _, err = stmt.ExecContext(ctx, id, ss.Symbol, ss.Count); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentSymbolAggregates aggregates symbol counts over the most recent transcripts.
func (s *Store) RecentSymbolAggregates(ctx context.Context, window int, source string) ([]model.SymbolAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent AS (
		SELECT id FROM transcripts
		WHERE (? = '' OR source = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ss.symbol, SUM(ss.count) AS count, COUNT(DISTINCT ss.transcript_id) AS transcripts
	FROM transcript_symbol_stats ss
	JOIN recent r ON r.id = ss.transcript_id
	GROUP BY ss.symbol`

	rows, err := s.db.QueryContext(ctx, query, source, source, window)
	if err != nil {
		return nil, err
	}
	return scanSymbolAggregates(rows)
}

// ListTranscripts returns transcripts filtered by stats config, oldest first.
func (s *Store) ListTranscripts(ctx context.Context, cfg model.StatsConfig) ([]model.TranscriptAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, cfg.Source)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT %s
		FROM transcripts
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, transcriptColumns, strings.Join(clauses, " AND "))
	return s.queryTranscripts(ctx, query, args...)
}

// RecentTranscripts returns up to limit transcripts, newest first.
func (s *Store) RecentTranscripts(ctx context.Context, limit int) ([]model.TranscriptAggregate, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM transcripts ORDER BY ended_at DESC, id DESC LIMIT ?`, transcriptColumns)
	return s.queryTranscripts(ctx, query, limit)
}

// GetTranscript returns one transcript by id.
func (s *Store) GetTranscript(ctx context.Context, id int64) (model.TranscriptAggregate, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcripts WHERE id = ?`, transcriptColumns)
	return s.queryOne(ctx, query, id)
}

// LatestTranscript returns the most recently ended transcript.
func (s *Store) LatestTranscript(ctx context.Context) (model.TranscriptAggregate, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcripts ORDER BY ended_at DESC, id DESC LIMIT 1`, transcriptColumns)
	return s.queryOne(ctx, query)
}

// ListSymbolAggregates aggregates per-symbol counts across transcripts.
func (s *Store) ListSymbolAggregates(ctx context.Context, transcriptIDs []int64) ([]model.SymbolAggregate, error) {
	if len(transcriptIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idPlaceholders(transcriptIDs)
	query := fmt.Sprintf(`SELECT symbol, SUM(count) AS count, COUNT(DISTINCT transcript_id) AS transcripts
		FROM transcript_symbol_stats
		WHERE transcript_id IN (%s)
		GROUP BY symbol`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSymbolAggregates(rows)
}

// ListSymbolStatsForTranscripts returns per-transcript counts for selected symbols.
func (s *Store) ListSymbolStatsForTranscripts(ctx context.Context, transcriptIDs []int64, symbols []string) (map[int64]map[string]int, error) {
	if len(transcriptIDs) == 0 || len(symbols) == 0 {
		return map[int64]map[string]int{}, nil
	}
	idMarks, args := idPlaceholders(transcriptIDs)
	symbolMarks := make([]string, len(symbols))
	for i, sym := range symbols {
		symbolMarks[i] = "?"
		args = append(args, sym)
	}
	query := fmt.Sprintf(`SELECT transcript_id, symbol, count
		FROM transcript_symbol_stats
		WHERE transcript_id IN (%s) AND symbol IN (%s)`, idMarks, strings.Join(symbolMarks, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[int64]map[string]int{}
	for rows.Next() {
		var id int64
		var symbol string
		var count int
		if err := rows.Scan(&id, &symbol, &count); err != nil {
			return nil, err
		}
		if _, ok := result[id]; !ok {
			result[id] = map[string]int{}
		}
		result[id][symbol] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (model.TranscriptAggregate, error) {
	transcripts, err := s.queryTranscripts(ctx, query, args...)
	if err != nil {
		return model.TranscriptAggregate{}, err
	}
	if len(transcripts) == 0 {
		return model.TranscriptAggregate{}, ErrNotFound
	}
	return transcripts[0], nil
}

func (s *Store) queryTranscripts(ctx context.Context, query string, args ...any) ([]model.TranscriptAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var transcripts []model.TranscriptAggregate
	for rows.Next() {
		var agg model.TranscriptAggregate
		var startedAt, endedAt, symbols string
		var shortMs, longMs, letterMs, wordMs int64
		if err := rows.Scan(&agg.ID, &agg.UUID, &startedAt, &endedAt, &agg.Source, &agg.Text, &symbols,
			&shortMs, &longMs, &letterMs, &wordMs,
			&agg.Counters.Dots, &agg.Counters.Dashes, &agg.Counters.Noise,
			&agg.Counters.Letters, &agg.Counters.Unknown, &agg.Counters.Spaces,
			&agg.DurationMs); err != nil {
			return nil, err
		}
		if agg.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if agg.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(symbols), &agg.Symbols); err != nil {
			return nil, fmt.Errorf("failed to decode symbols of transcript %d: %w", agg.ID, err)
		}
		agg.Thresholds = model.Thresholds{
			ShortBlinkMin: time.Duration(shortMs) * time.Millisecond,
			LongBlinkMin:  time.Duration(longMs) * time.Millisecond,
			LetterPause:   time.Duration(letterMs) * time.Millisecond,
			WordPause:     time.Duration(wordMs) * time.Millisecond,
		}
		transcripts = append(transcripts, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transcripts, nil
}

func scanSymbolAggregates(rows *sql.Rows) ([]model.SymbolAggregate, error) {
	defer closeRows(rows)
	var result []model.SymbolAggregate
	for rows.Next() {
		var agg model.SymbolAggregate
		if err := rows.Scan(&agg.Symbol, &agg.Count, &agg.Transcripts); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func idPlaceholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}
	return strings.Join(marks, ","), args
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func nonNil(symbols []string) []string {
	if symbols == nil {
		return []string{}
	}
	return symbols
}
