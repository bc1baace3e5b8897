// Package db keeps an optional Postgres index of archived sessions.
//
// The flat-file archive stays the source of truth; the index mirrors it so
// sessions can be queried across machines or by dashboards.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'

	"github.com/onnwee/stream-recap/archive"
)

// Connect opens and pings a Postgres connection.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DB_DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SessionIndex implements archive.Indexer on Postgres.
type SessionIndex struct {
	DB *sql.DB
}

// RecordSession inserts or, for a same-minute overwrite, replaces a session row.
func (s *SessionIndex) RecordSession(ctx context.Context, rec archive.Record) error {
	const q = `INSERT INTO sessions(id, created_at, chat_line_count, summary, has_audio, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
		    created_at=EXCLUDED.created_at,
		    chat_line_count=EXCLUDED.chat_line_count,
		    summary=EXCLUDED.summary,
		    has_audio=EXCLUDED.has_audio,
		    updated_at=NOW()`
	_, err := s.DB.ExecContext(ctx, q, rec.ID, rec.CreatedAt, rec.ChatLineCount, rec.Summary, rec.HasAudio)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", rec.ID, err)
	}
	return nil
}

// Session returns one indexed session; archive.ErrNotFound when absent.
func (s *SessionIndex) Session(ctx context.Context, id string) (archive.Record, error) {
	var rec archive.Record
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, created_at, chat_line_count, summary, has_audio FROM sessions WHERE id=$1`, id).
		Scan(&rec.ID, &rec.CreatedAt, &rec.ChatLineCount, &rec.Summary, &rec.HasAudio)
	if errors.Is(err, sql.ErrNoRows) {
		return archive.Record{}, archive.ErrNotFound
	}
	if err != nil {
		return archive.Record{}, err
	}
	return rec, nil
}

// Ping reports whether the index is reachable.
func (s *SessionIndex) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }
