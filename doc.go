// Package stowgate serves objects from a blob store over HTTP with the
// caching semantics of a static web server.
//
// The gateway resolves request paths to store keys, negotiates byte ranges,
// evaluates conditional request headers through predicate-guarded store reads,
// and falls back to directory listings and a configurable not-found object.
//
// # Key Components
//
//   - Gateway: Resolves a GET or HEAD request to a tagged Outcome
//   - ObjectStore: Interface for the backing blob store (S3, local catalog, memory)
//   - CatalogStore: ObjectStore over a CatalogRepo and FileStorage
//   - PathResolver: Maps request paths to keys with index file handling
//   - Lister: Builds directory listings from delimited store listings
//
// # Example Usage
//
//	gw, err := stowgate.NewGateway(store, stowgate.GatewayConfig{
//	    IndexFile:    "index.html",
//	    NotFoundFile: "404.html",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := gw.Serve(ctx, stowgate.Request{Method: "GET", Path: "/docs/", Header: r.Header})
//	defer out.Close()
//
// See the http package for the HTTP handler, and the s3, database and
// filesystem packages for store implementations.
package stowgate
