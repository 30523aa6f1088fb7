// Package http serves a stowgate.Gateway over HTTP.
//
// The router accepts GET, HEAD and OPTIONS on every path. OPTIONS answers
// with an Allow header and no body; any other method gets 405.
//
// # Responses
//
// writeOutcome turns a stowgate.Outcome into a status and headers:
//
//   - 412 and 304 carry no body and no validators
//   - a missing object is a plain text 404
//   - a directory listing is an HTML index marked no-store
//   - the not-found fallback object is served with status 404 and keeps its
//     own cache-control, if any
//   - a negotiated range is a 206 with content-range computed from the size
//     the store reported for the final fetch
//
// Every gateway response carries accept-ranges: bytes and, when configured,
// access-control-allow-origin.
//
// # Caching
//
// When HandlerConfig.Cache is set and the default cache-control is not
// "no-store", CacheMiddleware answers repeat requests from the cache and
// stores full 200 GET responses in a background goroutine after the response
// has been written:
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    CacheControl: "public, max-age=300",
//	    Cache:        memoryCache,
//	}, gateway)
//	srv := &nethttp.Server{Handler: handler.Router()}
//
// # Middleware
//
// RequestLogger writes one slog line per request. Metrics, when configured,
// adds the Prometheus request collectors, and CORSConfig enables full
// preflight handling through go-chi/cors.
package http
