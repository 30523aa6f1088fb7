// Package postgres implements the catalog repo using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

const selectColumns = `object_key, size_bytes, etag, uploaded_at,
	content_type, cache_control, content_encoding, content_language, content_disposition, cache_expiry`

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func scanObjectInfo(row pgx.Row) (stowgate.ObjectInfo, error) {
	var info stowgate.ObjectInfo
	err := row.Scan(
		&info.Key, &info.Size, &info.ETag, &info.Uploaded,
		&info.HTTPMetadata.ContentType, &info.HTTPMetadata.CacheControl,
		&info.HTTPMetadata.ContentEncoding, &info.HTTPMetadata.ContentLanguage,
		&info.HTTPMetadata.ContentDisposition, &info.HTTPMetadata.CacheExpiry,
	)
	return info, err
}

func (r *repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *repo) Get(ctx context.Context, key string) (stowgate.ObjectInfo, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE object_key = $1`, selectColumns, r.table())

	info, err := scanObjectInfo(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stowgate.ObjectInfo{}, stowgate.ErrNotFound
		}
		return stowgate.ObjectInfo{}, fmt.Errorf("get: %w", err)
	}

	return info, nil
}

func (r *repo) Upsert(ctx context.Context, entry stowgate.ObjectEntry) (stowgate.ObjectInfo, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, size_bytes, etag, uploaded_at,
			content_type, cache_control, content_encoding, content_language, content_disposition, cache_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (object_key) DO UPDATE
		SET size_bytes = EXCLUDED.size_bytes,
			etag = EXCLUDED.etag,
			uploaded_at = EXCLUDED.uploaded_at,
			content_type = EXCLUDED.content_type,
			cache_control = EXCLUDED.cache_control,
			content_encoding = EXCLUDED.content_encoding,
			content_language = EXCLUDED.content_language,
			content_disposition = EXCLUDED.content_disposition,
			cache_expiry = EXCLUDED.cache_expiry,
			updated_at = NOW()
		RETURNING %s, (xmax = 0) AS inserted
	`, r.table(), selectColumns)

	meta := entry.HTTPMetadata

	var info stowgate.ObjectInfo
	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		entry.Key, entry.Size, entry.ETag, entry.Uploaded,
		meta.ContentType, meta.CacheControl, meta.ContentEncoding, meta.ContentLanguage, meta.ContentDisposition,
		meta.CacheExpiry,
	).Scan(
		&info.Key, &info.Size, &info.ETag, &info.Uploaded,
		&info.HTTPMetadata.ContentType, &info.HTTPMetadata.CacheControl,
		&info.HTTPMetadata.ContentEncoding, &info.HTTPMetadata.ContentLanguage,
		&info.HTTPMetadata.ContentDisposition, &info.HTTPMetadata.CacheExpiry,
		&inserted,
	)
	if err != nil {
		return stowgate.ObjectInfo{}, false, fmt.Errorf("upsert: %w", err)
	}

	return info, inserted, nil
}

// ListPrefix orders by byte value so results agree with Go string ordering.
func (r *repo) ListPrefix(ctx context.Context, prefix string) ([]stowgate.ObjectInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE object_key LIKE $1 || '%%'
		ORDER BY object_key COLLATE "C"
	`, selectColumns, r.table())

	rows, err := r.pool.Query(ctx, query, internal.EscapeLikePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list prefix: %w", err)
	}
	defer rows.Close()

	infos := []stowgate.ObjectInfo{}
	for rows.Next() {
		info, scanErr := scanObjectInfo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list prefix: scan: %w", scanErr)
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prefix: rows: %w", err)
	}

	return infos, nil
}
