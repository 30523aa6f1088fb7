package stowgate_test

import (
	"testing"

	"github.com/sagarc03/stowgate"
	"github.com/stretchr/testify/assert"
)

func TestPathResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		resolver stowgate.PathResolver
		path     string
		want     stowgate.ResolvedPath
	}{
		{
			name: "direct file",
			path: "/docs/readme.txt",
			want: stowgate.ResolvedPath{Key: "docs/readme.txt", Stage: stowgate.StageDirect},
		},
		{
			name:     "directory with index",
			resolver: stowgate.PathResolver{IndexFile: "index.html"},
			path:     "/docs/",
			want:     stowgate.ResolvedPath{Key: "docs/index.html", Stage: stowgate.StageIndex},
		},
		{
			name:     "root with index",
			resolver: stowgate.PathResolver{IndexFile: "index.html"},
			path:     "/",
			want:     stowgate.ResolvedPath{Key: "index.html", Stage: stowgate.StageIndex},
		},
		{
			name:     "directory listing without index",
			resolver: stowgate.PathResolver{DirectoryListing: true},
			path:     "/docs/",
			want:     stowgate.ResolvedPath{Key: "docs/", Stage: stowgate.StageDirectory},
		},
		{
			name:     "root listing keeps slash",
			resolver: stowgate.PathResolver{DirectoryListing: true},
			path:     "/",
			want:     stowgate.ResolvedPath{Key: "/", Stage: stowgate.StageDirectory},
		},
		{
			name:     "index wins over listing",
			resolver: stowgate.PathResolver{IndexFile: "index.html", DirectoryListing: true},
			path:     "/docs/",
			want:     stowgate.ResolvedPath{Key: "docs/index.html", Stage: stowgate.StageIndex},
		},
		{
			name: "directory without index or listing",
			path: "/docs/",
			want: stowgate.ResolvedPath{Key: "docs/", Stage: stowgate.StageDirect},
		},
		{
			name:     "prefix",
			resolver: stowgate.PathResolver{Prefix: "site"},
			path:     "/a.txt",
			want:     stowgate.ResolvedPath{Key: "site/a.txt", Stage: stowgate.StageDirect},
		},
		{
			name:     "prefix with leading slash",
			resolver: stowgate.PathResolver{Prefix: "/site"},
			path:     "/a.txt",
			want:     stowgate.ResolvedPath{Key: "site/a.txt", Stage: stowgate.StageDirect},
		},
		{
			name: "decoded characters kept",
			path: "/my docs/a b.txt",
			want: stowgate.ResolvedPath{Key: "my docs/a b.txt", Stage: stowgate.StageDirect},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resolver.Resolve(tt.path))
		})
	}
}

func TestResolvedPath_DirectoryKey(t *testing.T) {
	tests := []struct {
		name    string
		path    stowgate.ResolvedPath
		wantKey string
		wantDir bool
	}{
		{name: "index attempt", path: stowgate.ResolvedPath{Key: "docs/index.html", Stage: stowgate.StageIndex}, wantKey: "docs/", wantDir: true},
		{name: "root index attempt", path: stowgate.ResolvedPath{Key: "index.html", Stage: stowgate.StageIndex}, wantKey: "", wantDir: true},
		{name: "direct file", path: stowgate.ResolvedPath{Key: "docs/a.txt", Stage: stowgate.StageDirect}, wantKey: "docs/a.txt", wantDir: false},
		{name: "direct directory", path: stowgate.ResolvedPath{Key: "docs/", Stage: stowgate.StageDirect}, wantKey: "docs/", wantDir: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := tt.path.DirectoryKey("index.html")
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantDir, ok)
		})
	}
}

func TestResolvedPath_NotFound(t *testing.T) {
	p := stowgate.ResolvedPath{Key: "a.txt", Stage: stowgate.StageDirect}.NotFound("404.html")
	assert.Equal(t, stowgate.ResolvedPath{Key: "404.html", Stage: stowgate.StageNotFound}, p)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "direct", stowgate.StageDirect.String())
	assert.Equal(t, "index", stowgate.StageIndex.String())
	assert.Equal(t, "directory", stowgate.StageDirectory.String())
	assert.Equal(t, "not_found", stowgate.StageNotFound.String())
	assert.Equal(t, "unknown", stowgate.Stage(99).String())
}
