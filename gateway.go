package stowgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// OutcomeKind tags the result of Gateway.Serve.
type OutcomeKind int

const (
	// OutcomeFound carries the requested object.
	OutcomeFound OutcomeKind = iota
	// OutcomeNotModified means If-None-Match / If-Modified-Since failed.
	OutcomeNotModified
	// OutcomePreconditionFailed means If-Match / If-Unmodified-Since failed.
	OutcomePreconditionFailed
	// OutcomeListing carries a directory listing.
	OutcomeListing
	// OutcomeFallback carries the configured not-found object.
	OutcomeFallback
	// OutcomeAbsent means nothing could be resolved.
	OutcomeAbsent
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNotModified:
		return "not_modified"
	case OutcomePreconditionFailed:
		return "precondition_failed"
	case OutcomeListing:
		return "listing"
	case OutcomeFallback:
		return "fallback"
	case OutcomeAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Outcome is the resolved result of a request, consumed by the HTTP layer.
// Object is set for OutcomeFound and OutcomeFallback; its Body is nil for
// HEAD requests. Range is only set for OutcomeFound.
type Outcome struct {
	Kind    OutcomeKind
	Path    ResolvedPath
	Object  *Object
	Range   *RangeSpec
	Listing *Listing
}

// Close releases the object body held by the outcome.
func (o Outcome) Close() error {
	if o.Object == nil {
		return nil
	}
	return o.Object.Close()
}

// Request is the part of an HTTP request the gateway acts on.
type Request struct {
	Method string
	// Path is the percent-decoded URL path.
	Path   string
	Header http.Header
}

// GatewayConfig holds the path and fallback settings of a Gateway.
type GatewayConfig struct {
	PathPrefix       string
	IndexFile        string
	NotFoundFile     string
	DirectoryListing bool
	HideHiddenFiles  bool
}

// Gateway resolves requests against an ObjectStore. It holds no per-request
// state and is safe for concurrent use.
type Gateway struct {
	store        ObjectStore
	resolver     PathResolver
	lister       *Lister
	notFoundFile string
	listing      bool
}

func NewGateway(store ObjectStore, cfg GatewayConfig) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("new gateway: %w: store is required", ErrInvalidInput)
	}
	return &Gateway{
		store: store,
		resolver: PathResolver{
			Prefix:           cfg.PathPrefix,
			IndexFile:        cfg.IndexFile,
			DirectoryListing: cfg.DirectoryListing,
		},
		lister:       NewLister(store, cfg.HideHiddenFiles),
		notFoundFile: cfg.NotFoundFile,
		listing:      cfg.DirectoryListing,
	}, nil
}

// Serve resolves a GET or HEAD request.
//
// The sequence is: resolve the key, negotiate the range (GET with Range only),
// evaluate If-Match/If-Unmodified-Since then If-None-Match/If-Modified-Since
// through predicate-guarded fetches, fetch the object, and on a miss fall back
// to a directory listing and then the not-found object.
//
// Returns:
//   - Outcome: the tagged result; the caller must Close it
//   - error: ErrRangeNotSatisfiable for unusable Range headers,
//     ErrInvalidInput for other methods, or wrapped store errors
func (g *Gateway) Serve(ctx context.Context, req Request) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("serve: %w", err)
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return Outcome{}, fmt.Errorf("serve: %w: method %s", ErrInvalidInput, req.Method)
	}

	if req.Header == nil {
		req.Header = http.Header{}
	}

	path := g.resolver.Resolve(req.Path)

	if path.Stage == StageDirectory {
		listing, err := g.lister.List(ctx, path.Key)
		if err != nil {
			return Outcome{}, fmt.Errorf("serve: %w", err)
		}
		if listing != nil {
			return Outcome{Kind: OutcomeListing, Path: path, Listing: listing}, nil
		}
	}

	var rng *RangeSpec
	if rangeHeader := req.Header.Get("Range"); req.Method == http.MethodGet && rangeHeader != "" {
		info, err := g.store.Head(ctx, path.Key)
		if errors.Is(err, ErrNotFound) {
			return Outcome{Kind: OutcomeAbsent, Path: path}, nil
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("serve %s: head: %w", path.Key, err)
		}

		rng, err = NegotiateRange(rangeHeader, info.Size)
		if err != nil {
			return Outcome{}, fmt.Errorf("serve %s: %w", path.Key, err)
		}
		rng = ApplyIfRange(rng, req.Header.Get("If-Range"), info)
	}

	obj, kind, err := g.evaluate(ctx, path.Key, rng, ParseConditionals(req.Header))
	if err != nil {
		return Outcome{}, fmt.Errorf("serve %s: %w", path.Key, err)
	}
	if kind != OutcomeFound {
		return Outcome{Kind: kind, Path: path}, nil
	}

	obj, err = g.fetch(ctx, req.Method, path.Key, rng, obj)
	if err != nil {
		return Outcome{}, fmt.Errorf("serve %s: %w", path.Key, err)
	}
	if obj != nil {
		return Outcome{Kind: OutcomeFound, Path: path, Object: obj, Range: rng}, nil
	}

	return g.notFound(ctx, req.Method, path)
}

// evaluate runs the predicate-guarded fetches. It returns the last
// body-bearing object (nil if none, or if the key is absent) and
// OutcomeFound when the request should proceed.
func (g *Gateway) evaluate(ctx context.Context, key string, rng *RangeSpec, cond Conditionals) (*Object, OutcomeKind, error) {
	var obj *Object

	if pre, ok := cond.Precondition(); ok {
		o, err := g.get(ctx, key, GetOptions{Range: rng, OnlyIf: &pre})
		if err != nil {
			return nil, OutcomeFound, err
		}
		if o != nil && !o.HasBody() {
			return nil, OutcomePreconditionFailed, nil
		}
		obj = o
	}

	if val, ok := cond.Validation(); ok {
		o, err := g.get(ctx, key, GetOptions{Range: rng, OnlyIf: &val})
		if err != nil {
			_ = obj.Close()
			return nil, OutcomeFound, err
		}
		_ = obj.Close()
		if o != nil && !o.HasBody() {
			return nil, OutcomeNotModified, nil
		}
		obj = o
	}

	return obj, OutcomeFound, nil
}

// fetch performs the final read, reusing a body-bearing result from the
// conditional checks. HEAD results never carry a body.
func (g *Gateway) fetch(ctx context.Context, method, key string, rng *RangeSpec, prior *Object) (*Object, error) {
	if prior.HasBody() {
		if method == http.MethodHead {
			_ = prior.Close()
			return &Object{ObjectInfo: prior.ObjectInfo}, nil
		}
		return prior, nil
	}

	if method == http.MethodHead {
		return g.head(ctx, key)
	}
	return g.get(ctx, key, GetOptions{Range: rng})
}

func (g *Gateway) notFound(ctx context.Context, method string, path ResolvedPath) (Outcome, error) {
	if g.listing && path.Stage != StageDirectory {
		if dir, ok := path.DirectoryKey(g.resolver.IndexFile); ok {
			listing, err := g.lister.List(ctx, dir)
			if err != nil {
				return Outcome{}, fmt.Errorf("serve: %w", err)
			}
			if listing != nil {
				return Outcome{Kind: OutcomeListing, Path: ResolvedPath{Key: dir, Stage: StageDirectory}, Listing: listing}, nil
			}
		}
	}

	if g.notFoundFile == "" {
		return Outcome{Kind: OutcomeAbsent, Path: path}, nil
	}

	fallback := path.NotFound(g.notFoundFile)

	var obj *Object
	var err error
	if method == http.MethodHead {
		obj, err = g.head(ctx, fallback.Key)
	} else {
		obj, err = g.get(ctx, fallback.Key, GetOptions{})
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("serve not found object %s: %w", fallback.Key, err)
	}
	if obj == nil {
		return Outcome{Kind: OutcomeAbsent, Path: fallback}, nil
	}

	return Outcome{Kind: OutcomeFallback, Path: fallback, Object: obj}, nil
}

// get maps ErrNotFound to a nil object.
func (g *Gateway) get(ctx context.Context, key string, opts GetOptions) (*Object, error) {
	obj, err := g.store.Get(ctx, key, opts)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	return obj, nil
}

func (g *Gateway) head(ctx context.Context, key string) (*Object, error) {
	info, err := g.store.Head(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("head: %w", err)
	}
	return &Object{ObjectInfo: info}, nil
}
