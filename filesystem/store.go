// Package filesystem provides the file system backend for the local catalog
// store. Files are opened through an os.Root so keys cannot escape the
// storage directory, and listings carry SHA256-based etags and content types
// detected from file extensions.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"

	"github.com/sagarc03/stowgate"
)

// Store provides read access to files under a root directory.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Open opens a file for reading. Returns stowgate.ErrNotFound if the file does
// not exist or is a directory.
func (s *Store) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stowgate.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, stowgate.ErrNotFound
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// List recursively walks the root directory and returns all files with their
// key, size, modification time, SHA256-based etag, and detected content type.
// Keys always use forward slashes. This is intended for catalog population.
func (s *Store) List(ctx context.Context) ([]stowgate.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []stowgate.ObjectEntry

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]stowgate.ObjectEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, key, entries); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			slog.Debug("skipping non-regular file", "key", key)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		etag, err := s.hashFile(ctx, key)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, stowgate.ObjectEntry{
			Key:      key,
			Size:     info.Size(),
			ETag:     etag,
			Uploaded: info.ModTime().UTC(),
			HTTPMetadata: stowgate.HTTPMetadata{
				ContentType: detectContentType(key),
			},
		})
	}

	return nil
}

func (s *Store) hashFile(ctx context.Context, key string) (string, error) {
	f, err := s.root.Open(key)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, copyErr := io.Copy(h, &ctxReader{ctx: ctx, r: f})

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "key", key, "err", closeErr)
	}

	if copyErr != nil {
		return "", copyErr
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func detectContentType(key string) string {
	contentType := mime.TypeByExtension(path.Ext(key))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
