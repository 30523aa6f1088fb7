package stowgate

import "strings"

// Stage records how a ResolvedPath's key was derived.
type Stage int

const (
	// StageDirect is the request path mapped straight to a key.
	StageDirect Stage = iota
	// StageIndex is a directory path with the index file appended.
	StageIndex
	// StageDirectory is a directory path that should be listed.
	StageDirectory
	// StageNotFound is the configured not-found object.
	StageNotFound
)

func (s Stage) String() string {
	switch s {
	case StageDirect:
		return "direct"
	case StageIndex:
		return "index"
	case StageDirectory:
		return "directory"
	case StageNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ResolvedPath is the store key for a request together with its stage.
type ResolvedPath struct {
	Key   string
	Stage Stage
}

// DirectoryKey recovers the directory a not-found key belongs to. For an index
// attempt the index file name is removed. The bool reports whether the result
// denotes a directory at all.
func (p ResolvedPath) DirectoryKey(indexFile string) (string, bool) {
	key := p.Key
	if p.Stage == StageIndex && indexFile != "" {
		key = strings.TrimSuffix(key, indexFile)
	}
	return key, IsDirectoryKey(key)
}

// NotFound substitutes the not-found object key.
func (p ResolvedPath) NotFound(key string) ResolvedPath {
	return ResolvedPath{Key: key, Stage: StageNotFound}
}

// IsDirectoryKey reports whether key names a directory: the root or anything
// ending in a slash.
func IsDirectoryKey(key string) bool {
	return key == "" || strings.HasSuffix(key, "/")
}

// PathResolver maps request paths to store keys.
type PathResolver struct {
	Prefix           string
	IndexFile        string
	DirectoryListing bool
}

// Resolve maps a decoded URL path to a store key.
func (r PathResolver) Resolve(urlPath string) ResolvedPath {
	key := r.Prefix + urlPath
	stage := StageDirect

	if strings.HasSuffix(key, "/") {
		if r.IndexFile != "" {
			key += r.IndexFile
			stage = StageIndex
		} else if r.DirectoryListing {
			stage = StageDirectory
		}
	}

	if key != "/" {
		key = strings.TrimPrefix(key, "/")
	}

	return ResolvedPath{Key: key, Stage: stage}
}
