package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/multierr"

	"github.com/richmondsunlight/chyrons/internal/chyron"
)

// ErrNotFound is returned by Get when no record has the requested key.
var ErrNotFound = errors.New("chyron record not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id        BIGINT PRIMARY KEY,
		date      DATE,
		chamber   TEXT NOT NULL CHECK (chamber IN ('house', 'senate')),
		committee TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS chyrons (
		id          BIGSERIAL PRIMARY KEY,
		video_id    BIGINT NOT NULL,
		"timestamp" INTEGER NOT NULL,
		type        TEXT NOT NULL CHECK (type IN ('bill', 'legislator')),
		text        TEXT NOT NULL,
		normalized  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS chyrons_video_timestamp_type
		ON chyrons (video_id, "timestamp", type)`,
}

// Store holds the single connection a run writes through.
type Store struct {
	conn *pgx.Conn
}

func Open(ctx context.Context, url string) (*Store, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, multierr.Combine(fmt.Errorf("ping database: %w", err), conn.Close(ctx))
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// EnsureSchema creates the tables and the natural-key index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) UpsertVideo(ctx context.Context, v chyron.Video) error {
	if err := v.Validate(); err != nil {
		return err
	}

	var date *time.Time
	if !v.Date.IsZero() {
		date = &v.Date
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO videos (id, date, chamber, committee) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date, chamber = EXCLUDED.chamber, committee = EXCLUDED.committee`,
		v.ID, date, string(v.Chamber), v.Committee,
	)
	if err != nil {
		return fmt.Errorf("upsert video %d: %w", v.ID, err)
	}
	return nil
}

// Begin opens the run's transaction. Nothing written through the batch is
// visible until Commit.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Batch{tx: tx}, nil
}

const selectRecord = `SELECT video_id, "timestamp", type, text, normalized FROM chyrons`

func (s *Store) Get(ctx context.Context, videoID int64, timestamp int, t chyron.Type) (chyron.Record, error) {
	row := s.conn.QueryRow(ctx,
		selectRecord+` WHERE video_id = $1 AND "timestamp" = $2 AND type = $3`,
		videoID, timestamp, string(t),
	)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return chyron.Record{}, fmt.Errorf("%w: video %d at %ds (%s)", ErrNotFound, videoID, timestamp, t)
	}
	if err != nil {
		return chyron.Record{}, fmt.Errorf("get chyron: %w", err)
	}
	return rec, nil
}

// ListByVideo returns every record of a video ordered by timestamp.
func (s *Store) ListByVideo(ctx context.Context, videoID int64) ([]chyron.Record, error) {
	rows, err := s.conn.Query(ctx,
		selectRecord+` WHERE video_id = $1 ORDER BY "timestamp", type`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list chyrons: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chyron.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list chyrons: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (chyron.Record, error) {
	var rec chyron.Record
	var t string
	if err := row.Scan(&rec.VideoID, &rec.Timestamp, &t, &rec.Text, &rec.Normalized); err != nil {
		return chyron.Record{}, err
	}
	typ, err := chyron.ParseType(t)
	if err != nil {
		return chyron.Record{}, err
	}
	rec.Type = typ
	return rec, nil
}

// Batch is the run's open transaction.
type Batch struct {
	tx    pgx.Tx
	saved int
	done  bool
}

// Save writes r, replacing any record with the same video, timestamp and type.
func (b *Batch) Save(ctx context.Context, r chyron.Record) error {
	_, err := b.tx.Exec(ctx, `
		INSERT INTO chyrons (video_id, "timestamp", type, text, normalized)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, "timestamp", type) DO UPDATE SET
			text = EXCLUDED.text, normalized = EXCLUDED.normalized`,
		r.VideoID, r.Timestamp, string(r.Type), r.Text, r.Normalized,
	)
	if err != nil {
		return fmt.Errorf("save chyron at %ds: %w", r.Timestamp, err)
	}
	b.saved++
	return nil
}

func (b *Batch) Saved() int {
	return b.saved
}

func (b *Batch) Commit(ctx context.Context) error {
	if err := b.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %d chyrons: %w", b.saved, err)
	}
	b.done = true
	return nil
}

// Rollback discards everything saved. It is a no-op after Commit.
func (b *Batch) Rollback(ctx context.Context) error {
	if b.done {
		return nil
	}
	b.done = true
	if err := b.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
