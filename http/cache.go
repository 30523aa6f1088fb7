package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/metrics"
)

// CachedResponse is a complete 200 response to a GET.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ResponseCache stores full responses keyed by request path. GET and HEAD
// share entries. Implementations must be safe for concurrent use.
type ResponseCache interface {
	// Match returns the live entry for key.
	Match(ctx context.Context, key string) (*CachedResponse, bool)

	// Put stores resp under key. It returns ErrNotCacheable when the
	// response directives forbid storing it.
	Put(ctx context.Context, key string, resp *CachedResponse) error
}

// CacheMiddleware answers GET and HEAD from the response cache and stores
// full 200 GET responses after they are written. Range requests always go
// to the store.
func (h *Handler) CacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path

		if r.Header.Get("Range") == "" {
			if cached, ok := h.config.Cache.Match(r.Context(), key); ok && h.serveCached(w, r, cached) {
				h.config.Metrics.ObserveCache(metrics.CacheHit)
				return
			}
		}

		h.config.Metrics.ObserveCache(metrics.CacheMiss)
		slog.Debug("cache miss", "path", key)

		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		cw := &cachingWriter{ResponseWriter: w, limit: h.config.MaxCacheBody}
		next.ServeHTTP(cw, r)

		if cw.status != http.StatusOK || cw.overflow {
			return
		}

		resp := &CachedResponse{
			Status: cw.status,
			Header: w.Header().Clone(),
			Body:   bytes.Clone(cw.buf.Bytes()),
		}
		go h.storeResponse(context.WithoutCancel(r.Context()), key, resp)
	})
}

// serveCached answers r from an entry. It reports false when the request
// carries a precondition the entry does not satisfy, leaving the store to
// produce the 412.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, cached *CachedResponse) bool {
	info := stowgate.ObjectInfo{ETag: strings.Trim(cached.Header.Get("ETag"), `"`)}
	if t, err := http.ParseTime(cached.Header.Get("Last-Modified")); err == nil {
		info.Uploaded = t
	}

	cond := stowgate.ParseConditionals(r.Header)
	if pre, ok := cond.Precondition(); ok && !pre.Evaluate(info) {
		return false
	}

	hdr := w.Header()
	if val, ok := cond.Validation(); ok && !val.Evaluate(info) {
		h.setCommonHeaders(hdr)
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	for k, values := range cached.Header {
		hdr[k] = append([]string(nil), values...)
	}
	w.WriteHeader(cached.Status)

	if r.Method == http.MethodGet {
		if _, err := w.Write(cached.Body); err != nil {
			slog.Debug("write cached response", "path", r.URL.Path, "err", err)
		}
	}
	return true
}

func (h *Handler) storeResponse(ctx context.Context, key string, resp *CachedResponse) {
	timeout := h.config.CacheWriteTimeout
	if timeout <= 0 {
		timeout = defaultCacheWriteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := h.config.Cache.Put(ctx, key, resp)
	switch {
	case err == nil:
		h.config.Metrics.ObserveCache(metrics.CacheStored)
	case errors.Is(err, ErrNotCacheable):
		h.config.Metrics.ObserveCache(metrics.CacheSkipped)
	default:
		h.config.Metrics.ObserveCache(metrics.CacheError)
		slog.Debug("cache write failed", "path", key, "err", err)
	}
}

// cachingWriter tees the body into a buffer until it exceeds limit.
type cachingWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int64
	overflow bool
}

func (w *cachingWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	if err != nil {
		w.overflow = true
		return n, err
	}
	if !w.overflow {
		if w.limit > 0 && int64(w.buf.Len()+n) > w.limit {
			w.overflow = true
			w.buf = bytes.Buffer{}
		} else {
			w.buf.Write(b[:n])
		}
	}
	return n, nil
}
