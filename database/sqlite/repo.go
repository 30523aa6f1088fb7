// Package sqlite implements the catalog repo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

const selectColumns = `object_key, size_bytes, etag, uploaded_at,
	content_type, cache_control, content_encoding, content_language, content_disposition, cache_expiry`

type repo struct {
	db        *sql.DB
	tableName string
}

type scanner interface {
	Scan(dest ...any) error
}

func scanObjectInfo(row scanner) (stowgate.ObjectInfo, error) {
	var info stowgate.ObjectInfo
	var uploadedAt string
	var cacheExpiry sql.NullString

	err := row.Scan(
		&info.Key, &info.Size, &info.ETag, &uploadedAt,
		&info.HTTPMetadata.ContentType, &info.HTTPMetadata.CacheControl,
		&info.HTTPMetadata.ContentEncoding, &info.HTTPMetadata.ContentLanguage,
		&info.HTTPMetadata.ContentDisposition, &cacheExpiry,
	)
	if err != nil {
		return stowgate.ObjectInfo{}, err
	}

	info.Uploaded, err = time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return stowgate.ObjectInfo{}, fmt.Errorf("parse uploaded_at: %w", err)
	}

	if cacheExpiry.Valid {
		expiry, err := time.Parse(time.RFC3339Nano, cacheExpiry.String)
		if err != nil {
			return stowgate.ObjectInfo{}, fmt.Errorf("parse cache_expiry: %w", err)
		}
		info.HTTPMetadata.CacheExpiry = &expiry
	}

	return info, nil
}

func formatExpiry(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func (r *repo) Get(ctx context.Context, key string) (stowgate.ObjectInfo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s WHERE object_key = ?`, selectColumns, quoteIdentifier(r.tableName))

	info, err := scanObjectInfo(r.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stowgate.ObjectInfo{}, stowgate.ErrNotFound
		}
		return stowgate.ObjectInfo{}, fmt.Errorf("get: %w", err)
	}

	return info, nil
}

func (r *repo) Upsert(ctx context.Context, entry stowgate.ObjectEntry) (stowgate.ObjectInfo, bool, error) {
	// Check if entry exists first to determine if this is an insert or update
	var existingID string
	checkQuery := fmt.Sprintf(`SELECT id FROM %s WHERE object_key = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated
	err := r.db.QueryRowContext(ctx, checkQuery, entry.Key).Scan(&existingID)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return stowgate.ObjectInfo{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	uploaded := entry.Uploaded.UTC().Format(time.RFC3339Nano)
	meta := entry.HTTPMetadata

	if isInsert {
		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, object_key, size_bytes, etag, uploaded_at,
				content_type, cache_control, content_encoding, content_language, content_disposition, cache_expiry,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

		_, err = r.db.ExecContext(ctx, insertQuery,
			uuid.New().String(), entry.Key, entry.Size, entry.ETag, uploaded,
			meta.ContentType, meta.CacheControl, meta.ContentEncoding, meta.ContentLanguage, meta.ContentDisposition,
			formatExpiry(meta.CacheExpiry), now, now,
		)
		if err != nil {
			return stowgate.ObjectInfo{}, false, fmt.Errorf("upsert: insert: %w", err)
		}
	} else {
		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET size_bytes = ?, etag = ?, uploaded_at = ?,
				content_type = ?, cache_control = ?, content_encoding = ?, content_language = ?,
				content_disposition = ?, cache_expiry = ?, updated_at = ?
			WHERE id = ?`, quoteIdentifier(r.tableName))

		_, err = r.db.ExecContext(ctx, updateQuery,
			entry.Size, entry.ETag, uploaded,
			meta.ContentType, meta.CacheControl, meta.ContentEncoding, meta.ContentLanguage, meta.ContentDisposition,
			formatExpiry(meta.CacheExpiry), now, existingID,
		)
		if err != nil {
			return stowgate.ObjectInfo{}, false, fmt.Errorf("upsert: update: %w", err)
		}
	}

	info, err := r.Get(ctx, entry.Key)
	if err != nil {
		return stowgate.ObjectInfo{}, false, fmt.Errorf("upsert: %w", err)
	}

	return info, isInsert, nil
}

// ListPrefix uses LIKE for the index scan, then filters again in Go because
// SQLite's LIKE folds ASCII case.
func (r *repo) ListPrefix(ctx context.Context, prefix string) ([]stowgate.ObjectInfo, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT %s FROM %s
		WHERE object_key LIKE ? || '%%' ESCAPE '\'
		ORDER BY object_key`, selectColumns, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query, internal.EscapeLikePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list prefix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := []stowgate.ObjectInfo{}
	for rows.Next() {
		info, scanErr := scanObjectInfo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list prefix: scan: %w", scanErr)
		}
		if !strings.HasPrefix(info.Key, prefix) {
			continue
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prefix: rows: %w", err)
	}

	return infos, nil
}
