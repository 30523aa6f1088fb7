package stowgate

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// CatalogStore is an ObjectStore serving files from FileStorage, with
// metadata, listing and predicates answered by a CatalogRepo.
type CatalogStore struct {
	repo  CatalogRepo
	files FileStorage
}

func NewCatalogStore(repo CatalogRepo, files FileStorage) (*CatalogStore, error) {
	if repo == nil || files == nil {
		return nil, fmt.Errorf("new catalog store: %w: repo and file storage are required", ErrInvalidInput)
	}
	return &CatalogStore{repo: repo, files: files}, nil
}

func (s *CatalogStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}

	info, err := s.repo.Get(ctx, key)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}
	return info, nil
}

// Get evaluates opts.OnlyIf against the catalog entry before opening the file.
func (s *CatalogStore) Get(ctx context.Context, key string, opts GetOptions) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	info, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	if opts.OnlyIf != nil && !opts.OnlyIf.Evaluate(info) {
		return &Object{ObjectInfo: info}, nil
	}

	f, err := s.files.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	obj := &Object{ObjectInfo: info, Body: f}
	if opts.Range != nil {
		start, length := opts.Range.Resolve(info.Size)
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("get object %s: seek: %w", key, err)
		}
		obj.Body = &limitedReadCloser{Reader: io.LimitReader(f, length), Closer: f}
		obj.Range = opts.Range
	}

	return obj, nil
}

func (s *CatalogStore) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	infos, err := s.repo.ListPrefix(ctx, q.Prefix)
	if err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	return Delimit(infos, q.Prefix, q.Delimiter), nil
}

// PopulateResult counts what Populate did.
type PopulateResult struct {
	Created int
	Updated int
	Skipped []string
}

// Populate synchronizes the catalog from file storage. Files whose key fails
// IsValidPath are skipped and reported.
//
// Note: This operation is not atomic. If it fails partway through, some files
// may have been processed while others remain unprocessed.
func (s *CatalogStore) Populate(ctx context.Context) (PopulateResult, error) {
	var result PopulateResult

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("populate: %w", err)
	}

	entries, err := s.files.List(ctx)
	if err != nil {
		return result, fmt.Errorf("populate: %w", err)
	}

	for _, entry := range entries {
		if !IsValidPath(entry.Key) {
			result.Skipped = append(result.Skipped, entry.Key)
			continue
		}

		_, created, err := s.repo.Upsert(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("populate '%s': %w", entry.Key, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	return result, nil
}

// Delimit collapses infos into the objects directly under prefix and the
// distinct child prefixes up to and including the next delimiter. Without a
// delimiter every info under prefix is returned as an object.
func Delimit(infos []ObjectInfo, prefix, delimiter string) ListResult {
	result := ListResult{CommonPrefixes: []string{}, Objects: []ObjectInfo{}}
	seen := make(map[string]struct{})

	for _, info := range infos {
		if !strings.HasPrefix(info.Key, prefix) {
			continue
		}

		rest := info.Key[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if _, ok := seen[cp]; !ok {
					seen[cp] = struct{}{}
					result.CommonPrefixes = append(result.CommonPrefixes, cp)
				}
				continue
			}
		}

		result.Objects = append(result.Objects, info)
	}

	sort.Strings(result.CommonPrefixes)
	sort.Slice(result.Objects, func(i, j int) bool {
		return result.Objects[i].Key < result.Objects[j].Key
	})

	return result
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
