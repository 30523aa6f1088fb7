package stowgate

import (
	"context"
	"io"
)

// ObjectStore is the blob store the gateway reads from.
// Implementations must be safe for concurrent use.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Get retrieves an object and its content.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The store key
	//   - opts: Optional byte range and predicate
	//
	// Returns:
	//   - *Object: The object. Body is nil when opts.OnlyIf was not satisfied.
	//   - error: ErrNotFound if the key doesn't exist, or other storage errors
	//
	// The predicate must be evaluated against the same object version that is
	// returned. The caller closes the returned body.
	Get(ctx context.Context, key string, opts GetOptions) (*Object, error)

	// Head retrieves object metadata only.
	//
	// Returns ErrNotFound if the key doesn't exist.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// List returns the objects and, when q.Delimiter is set, the collapsed
	// child prefixes directly under q.Prefix.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}

// CatalogRepo persists object metadata for stores whose content lives
// elsewhere (see CatalogStore).
type CatalogRepo interface {
	// Get retrieves metadata for a key.
	//
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (ObjectInfo, error)

	// Upsert creates or updates the entry for entry.Key.
	// The bool is true when a new row was created.
	Upsert(ctx context.Context, entry ObjectEntry) (ObjectInfo, bool, error)

	// ListPrefix returns every entry whose key starts with prefix, ordered by key.
	ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// FileStorage provides content for catalog entries.
type FileStorage interface {
	// Open returns a reader for the file at key.
	//
	// Returns ErrNotFound if the file doesn't exist.
	// The caller is responsible for closing the returned ReadSeekCloser.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// List walks the storage tree and returns an entry for every file.
	List(ctx context.Context) ([]ObjectEntry, error)
}
