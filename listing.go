package stowgate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ListingEntry is one row of a directory listing.
type ListingEntry struct {
	Name        string
	IsDirectory bool
	ModifiedAt  time.Time
	Size        int64
}

// Listing is the content of a directory built from a delimited store listing.
type Listing struct {
	// Path is the directory key, "" for the root, otherwise ending in "/".
	Path         string
	Entries      []ListingEntry
	LastModified time.Time
}

// IsRoot reports whether the listing is for the store root.
func (l *Listing) IsRoot() bool {
	return l.Path == ""
}

// Lister builds directory listings from an ObjectStore.
type Lister struct {
	store      ObjectStore
	hideHidden bool
}

// NewLister creates a Lister. When hideHidden is set, entries whose name
// starts with a dot are left out.
func NewLister(store ObjectStore, hideHidden bool) *Lister {
	return &Lister{store: store, hideHidden: hideHidden}
}

// List returns the immediate children of dir, or nil when the store has
// neither objects nor child prefixes under it.
func (l *Lister) List(ctx context.Context, dir string) (*Listing, error) {
	dir = normalizeDirectory(dir)

	result, err := l.store.List(ctx, ListQuery{Prefix: dir, Delimiter: "/"})
	if err != nil {
		return nil, fmt.Errorf("list directory %q: %w", dir, err)
	}

	if len(result.CommonPrefixes) == 0 && len(result.Objects) == 0 {
		return nil, nil
	}

	listing := &Listing{
		Path:    dir,
		Entries: make([]ListingEntry, 0, len(result.CommonPrefixes)+len(result.Objects)),
	}

	for _, prefix := range result.CommonPrefixes {
		name := strings.TrimPrefix(strings.TrimSuffix(prefix, "/"), dir)
		if name == "" || l.hidden(name) {
			continue
		}
		listing.Entries = append(listing.Entries, ListingEntry{Name: name, IsDirectory: true})
	}

	for _, obj := range result.Objects {
		name := strings.TrimPrefix(obj.Key, dir)
		if name == "" || l.hidden(name) {
			continue
		}
		listing.Entries = append(listing.Entries, ListingEntry{
			Name:       name,
			ModifiedAt: obj.Uploaded,
			Size:       obj.Size,
		})
		if obj.Uploaded.After(listing.LastModified) {
			listing.LastModified = obj.Uploaded
		}
	}

	return listing, nil
}

func (l *Lister) hidden(name string) bool {
	return l.hideHidden && strings.HasPrefix(name, ".")
}

func normalizeDirectory(dir string) string {
	if dir == "/" {
		return ""
	}
	if dir != "" && !strings.HasSuffix(dir, "/") {
		return dir + "/"
	}
	return dir
}
