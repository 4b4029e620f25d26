package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/playlist-platform/internal/media"
)

// PostgresRepo is the production Postgres-backed implementation. Each
// playlist is one row holding the videos and view-table JSON documents;
// Update takes a row lock so concurrent read-modify-writes on the same
// playlist are linearized.
//
// Expected schema:
//
//	CREATE TABLE playlists (
//	    owner_id    text   NOT NULL,
//	    name        text   NOT NULL,
//	    description text   NOT NULL DEFAULT '',
//	    videos      jsonb  NOT NULL DEFAULT '[]',
//	    views       jsonb  NOT NULL DEFAULT '{}',
//	    sort        text   NOT NULL DEFAULT 'asc',
//	    created_at  bigint NOT NULL,
//	    PRIMARY KEY (owner_id, name)
//	);
//
//	CREATE TABLE watch_history (
//	    owner_id      text             NOT NULL,
//	    url_key       text             NOT NULL,
//	    playlist_name text             NOT NULL DEFAULT '',
//	    last_time     double precision NOT NULL DEFAULT 0,
//	    viewed_at     bigint           NOT NULL,
//	    PRIMARY KEY (owner_id, url_key)
//	);
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const txConflictRetries = 3

func (r *PostgresRepo) Get(ctx context.Context, owner, name string) (Document, error) {
	row := r.db.QueryRow(ctx, `
SELECT name, description, videos, views, sort, created_at
FROM playlists WHERE owner_id=$1 AND name=$2`, owner, name)
	return scanDocument(row)
}

func (r *PostgresRepo) Create(ctx context.Context, owner string, doc Document) error {
	videosJSON, viewsJSON, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	ct, err := r.db.Exec(ctx, `
INSERT INTO playlists (owner_id, name, description, videos, views, sort, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (owner_id, name) DO NOTHING`,
		owner, doc.Name, doc.Description, videosJSON, viewsJSON, doc.Sort, doc.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDuplicateName
	}
	return nil
}

func (r *PostgresRepo) Put(ctx context.Context, owner string, doc Document) error {
	videosJSON, viewsJSON, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
INSERT INTO playlists (owner_id, name, description, videos, views, sort, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (owner_id, name) DO UPDATE SET
  description = EXCLUDED.description,
  videos      = EXCLUDED.videos,
  views       = EXCLUDED.views,
  sort        = EXCLUDED.sort`,
		owner, doc.Name, doc.Description, videosJSON, viewsJSON, doc.Sort, doc.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, owner, name string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM playlists WHERE owner_id=$1 AND name=$2`, owner, name); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, owner string) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
SELECT name, description, jsonb_array_length(videos), created_at
FROM playlists WHERE owner_id=$1 ORDER BY name ASC`, owner)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Name, &s.Description, &s.VideoCount, &s.CreatedAt); err != nil {
			return nil, mapPgError(err)
		}
		s.ID = s.Name
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}

func (r *PostgresRepo) Update(ctx context.Context, owner, name string, fn func(doc *Document) error) error {
	var lastErr error
	for attempt := 0; attempt < txConflictRetries; attempt++ {
		err := r.updateOnce(ctx, owner, name, fn)
		if err == nil {
			return nil
		}
		if !isTxConflict(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: transaction conflict: %v", ErrRemoteUnavailable, lastErr)
}

func (r *PostgresRepo) updateOnce(ctx context.Context, owner, name string, fn func(doc *Document) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
SELECT name, description, videos, views, sort, created_at
FROM playlists WHERE owner_id=$1 AND name=$2 FOR UPDATE`, owner, name)
	doc, err := scanDocument(row)
	if err != nil {
		return err
	}

	if err := fn(&doc); err != nil {
		return err
	}

	videosJSON, viewsJSON, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
UPDATE playlists SET description=$3, videos=$4, views=$5, sort=$6
WHERE owner_id=$1 AND name=$2`,
		owner, name, doc.Description, videosJSON, viewsJSON, doc.Sort); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *PostgresRepo) GetWatch(ctx context.Context, owner, url string) (WatchRecord, error) {
	var rec WatchRecord
	rec.URL = url
	err := r.db.QueryRow(ctx, `
SELECT playlist_name, last_time, viewed_at
FROM watch_history WHERE owner_id=$1 AND url_key=$2`,
		owner, media.EncodeURLKey(url)).
		Scan(&rec.PlaylistName, &rec.LastTime, &rec.ViewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WatchRecord{}, ErrNotFound
		}
		return WatchRecord{}, mapPgError(err)
	}
	return rec, nil
}

func (r *PostgresRepo) PutWatch(ctx context.Context, owner string, rec WatchRecord) error {
	if rec.ViewedAt == 0 {
		rec.ViewedAt = time.Now().UnixMilli()
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO watch_history (owner_id, url_key, playlist_name, last_time, viewed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (owner_id, url_key) DO UPDATE SET
  playlist_name = EXCLUDED.playlist_name,
  last_time     = EXCLUDED.last_time,
  viewed_at     = EXCLUDED.viewed_at`,
		owner, media.EncodeURLKey(rec.URL), rec.PlaylistName, rec.LastTime, rec.ViewedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// ── helpers ────────────────────────────────────────────────────────────────

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	var videosJSON, viewsJSON []byte
	err := row.Scan(&doc.Name, &doc.Description, &videosJSON, &viewsJSON, &doc.Sort, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, mapPgError(err)
	}
	if err := json.Unmarshal(videosJSON, &doc.Videos); err != nil {
		doc.Videos = nil
	}
	if err := json.Unmarshal(viewsJSON, &doc.Views); err != nil || doc.Views == nil {
		doc.Views = make(map[string]int64)
	}
	return doc, nil
}

func marshalDoc(doc Document) (videosJSON, viewsJSON []byte, err error) {
	if doc.Videos == nil {
		doc.Videos = []Video{}
	}
	if doc.Views == nil {
		doc.Views = make(map[string]int64)
	}
	videosJSON, err = json.Marshal(doc.Videos)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: marshal videos: %v", ErrValidation, err)
	}
	viewsJSON, err = json.Marshal(doc.Views)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: marshal views: %v", ErrValidation, err)
	}
	return videosJSON, viewsJSON, nil
}

func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501":
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
		case pgErr.Code == "23505":
			return ErrDuplicateName
		case isTxConflict(err):
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
