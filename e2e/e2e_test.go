package e2e_test

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var siteFiles = map[string]string{
	"hello.txt":         "Hello, World!",
	"index.html":        "<h1>home</h1>",
	"404.html":          "<h1>missing</h1>",
	"docs/index.html":   "<h1>docs</h1>",
	"assets/app.js":     "console.log('app')",
	"assets/style.css":  "body{}",
	"assets/.gitignore": "*",
}

// TestE2E_Gateway_SQLite serves a local store catalogued in SQLite.
func TestE2E_Gateway_SQLite(t *testing.T) {
	storageDir := t.TempDir()
	writeFiles(t, storageDir, siteFiles)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:          getOpenPort(t),
		DBType:        "sqlite",
		DBDSN:         filepath.Join(t.TempDir(), "test.db"),
		StoragePath:   storageDir,
		IndexFile:     "index.html",
		NotFoundFile:  "404.html",
		CacheControl:  "public, max-age=60",
		AllowedOrigin: "*",
		Cache:         true,
	})
	defer cleanup()

	runGatewayTests(t, baseURL)
}

// TestE2E_Gateway_Postgres serves a local store catalogued in PostgreSQL.
func TestE2E_Gateway_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	dsn := getSharedPostgresDatabase(t)
	storageDir := t.TempDir()
	writeFiles(t, storageDir, siteFiles)

	baseURL, cleanup := startServer(t, ServerConfig{
		Port:          getOpenPort(t),
		DBType:        "postgres",
		DBDSN:         dsn,
		StoragePath:   storageDir,
		IndexFile:     "index.html",
		NotFoundFile:  "404.html",
		CacheControl:  "public, max-age=60",
		AllowedOrigin: "*",
	})
	defer cleanup()

	runGatewayTests(t, baseURL)
}

func do(t *testing.T, method, url string, header map[string]string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

// runGatewayTests exercises a server configured with index.html, 404.html
// and an allowed origin of "*".
func runGatewayTests(t *testing.T, baseURL string) {
	t.Helper()

	var etag string

	t.Run("GET returns file content", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/hello.txt", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello, World!", body)
		assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "public, max-age=60", resp.Header.Get("Cache-Control"))
		assert.NotEmpty(t, resp.Header.Get("Last-Modified"))
		etag = resp.Header.Get("ETag")
		assert.True(t, strings.HasPrefix(etag, `"`), "etag is quoted: %s", etag)
	})

	t.Run("GET again is served the same", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/hello.txt", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello, World!", body)
		assert.Equal(t, etag, resp.Header.Get("ETag"))
	})

	t.Run("HEAD returns headers without body", func(t *testing.T) {
		resp, body := do(t, http.MethodHead, baseURL+"/hello.txt", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body)
		assert.Equal(t, "13", resp.Header.Get("Content-Length"))
	})

	t.Run("GET with range returns partial content", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/hello.txt", map[string]string{"Range": "bytes=0-4"})

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "Hello", body)
		assert.Equal(t, "bytes 0-4/13", resp.Header.Get("Content-Range"))
	})

	t.Run("GET with suffix range returns the tail", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/hello.txt", map[string]string{"Range": "bytes=-6"})

		assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "World!", body)
	})

	t.Run("GET with unsatisfiable range returns 416", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, baseURL+"/hello.txt", map[string]string{"Range": "bytes=100-200"})

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	})

	t.Run("GET with matching If-None-Match returns 304", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/hello.txt", map[string]string{"If-None-Match": etag})

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Empty(t, body)
	})

	t.Run("GET with wrong If-Match returns 412", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, baseURL+"/hello.txt", map[string]string{"If-Match": `"nope"`})

		assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	})

	t.Run("GET / returns index file", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<h1>home</h1>", body)
	})

	t.Run("GET /docs/ returns nested index file", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/docs/", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<h1>docs</h1>", body)
	})

	t.Run("GET missing key returns not found page", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/nope.txt", nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "<h1>missing</h1>", body)
		assert.Empty(t, resp.Header.Get("Cache-Control"))
	})

	t.Run("PUT returns 405", func(t *testing.T) {
		resp, _ := do(t, http.MethodPut, baseURL+"/hello.txt", nil)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("OPTIONS lists allowed methods", func(t *testing.T) {
		resp, _ := do(t, http.MethodOptions, baseURL+"/hello.txt", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "GET, HEAD, OPTIONS", resp.Header.Get("Allow"))
	})
}

// TestE2E_DirectoryListing serves listings and exposes metrics.
func TestE2E_DirectoryListing(t *testing.T) {
	storageDir := t.TempDir()
	writeFiles(t, storageDir, siteFiles)

	metricsPort := getOpenPort(t)
	baseURL, cleanup := startServer(t, ServerConfig{
		Port:             getOpenPort(t),
		MetricsPort:      metricsPort,
		DBType:           "sqlite",
		DBDSN:            filepath.Join(t.TempDir(), "test.db"),
		StoragePath:      storageDir,
		DirectoryListing: true,
	})
	defer cleanup()

	t.Run("GET directory returns listing", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/assets/", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Contains(t, body, "app.js")
		assert.Contains(t, body, "style.css")
		assert.Contains(t, body, ".gitignore")
	})

	t.Run("GET root returns listing", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, baseURL+"/", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "assets")
		assert.Contains(t, body, "hello.txt")
	})

	t.Run("GET missing directory returns 404", func(t *testing.T) {
		resp, _ := do(t, http.MethodGet, baseURL+"/nothing/", nil)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("metrics count requests", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, "http://localhost:"+itoa(metricsPort)+"/metrics", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "stowgate_requests_total")
		assert.Contains(t, body, `stowgate_gateway_outcomes_total{kind="listing"}`)
	})
}

// TestE2E_List prints a directory through the ls command.
func TestE2E_List(t *testing.T) {
	storageDir := t.TempDir()
	writeFiles(t, storageDir, siteFiles)

	configPath := createConfigFile(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "test.db"),
		StoragePath: storageDir,
	})
	runCommand(t, configPath, "init")

	out := runCommand(t, configPath, "ls", "assets")
	assert.Contains(t, out, "app.js")
	assert.NotContains(t, out, ".gitignore")

	out = runCommand(t, configPath, "ls", "--all", "assets")
	assert.Contains(t, out, ".gitignore")

	out = runCommand(t, configPath, "ls")
	assert.Contains(t, out, "docs/")
}
