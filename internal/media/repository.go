package media

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObjectRecord is the bookkeeping row kept for each uploaded object.
type ObjectRecord struct {
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Location    string    `json:"location"`
	ETag        string    `json:"etag"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists upload bookkeeping records.
type Repository struct {
	db DB
}

// NewRepository creates a new Repository backed by the given pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// SaveObject upserts the record for a key; re-uploading a key overwrites
// its previous record.
func (r *Repository) SaveObject(ctx context.Context, rec *ObjectRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO objects (key, content_type, size, location, etag)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE
		 SET content_type = EXCLUDED.content_type,
		     size = EXCLUDED.size,
		     location = EXCLUDED.location,
		     etag = EXCLUDED.etag,
		     uploaded_at = now()`,
		rec.Key, rec.ContentType, rec.Size, rec.Location, rec.ETag,
	)
	if err != nil {
		return fmt.Errorf("save object record: %w", err)
	}
	return nil
}

// DeleteObject removes the record for a key. Deleting an unrecorded key is
// not an error; the bucket, not this table, is the source of truth.
func (r *Repository) DeleteObject(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM objects WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete object record: %w", err)
	}
	return nil
}

// ListObjects returns recorded uploads, newest first.
func (r *Repository) ListObjects(ctx context.Context, limit, offset int) ([]ObjectRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT key, content_type, size, location, etag, uploaded_at
		 FROM objects
		 ORDER BY uploaded_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list object records: %w", err)
	}
	defer rows.Close()

	var recs []ObjectRecord
	for rows.Next() {
		var rec ObjectRecord
		if err := rows.Scan(&rec.Key, &rec.ContentType, &rec.Size, &rec.Location, &rec.ETag, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan object record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list object records: %w", err)
	}
	return recs, nil
}
