package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/metrics"
)

// Gateway resolves a request into an outcome.
type Gateway interface {
	Serve(ctx context.Context, req stowgate.Request) (stowgate.Outcome, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

// NoStore as the default cache-control disables the response cache.
const NoStore = "no-store"

const defaultCacheWriteTimeout = 5 * time.Second

type HandlerConfig struct {
	// AllowedOrigin is sent as access-control-allow-origin on every
	// gateway response. Empty omits the header.
	AllowedOrigin string
	// CacheControl is applied to found objects that carry none.
	CacheControl string
	CORS         CORSConfig

	// Cache is consulted before the gateway when set.
	Cache ResponseCache
	// MaxCacheBody bounds the bytes buffered for one cache write. Zero
	// means no bound.
	MaxCacheBody int64
	// CacheWriteTimeout bounds the asynchronous cache write.
	CacheWriteTimeout time.Duration

	Metrics *metrics.Metrics
}

// Handler serves GET, HEAD and OPTIONS over a Gateway.
type Handler struct {
	config  HandlerConfig
	gateway Gateway
}

// NewHandler creates a new Handler with the given configuration and gateway.
func NewHandler(config *HandlerConfig, gateway Gateway) *Handler {
	return &Handler{
		config:  *config,
		gateway: gateway,
	}
}

var allowedMethods = "GET, HEAD, OPTIONS"

// Router returns an http.Handler serving every path. Methods other than
// GET, HEAD and OPTIONS get 405.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)
	r.Use(h.config.Metrics.Middleware)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.MethodNotAllowed(handleMethodNotAllowed)
	r.Options("/*", handleOptions)

	r.Group(func(r chi.Router) {
		if h.cachingEnabled() {
			r.Use(h.CacheMiddleware)
		}
		r.Get("/*", h.handleServe)
		r.Head("/*", h.handleServe)
	})

	return r
}

func (h *Handler) cachingEnabled() bool {
	return h.config.Cache != nil && h.config.CacheControl != NoStore
}

func handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", allowedMethods)
	w.WriteHeader(http.StatusOK)
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	h.setCommonHeaders(w.Header())

	out, err := h.gateway.Serve(r.Context(), stowgate.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() { _ = out.Close() }()

	h.config.Metrics.ObserveOutcome(out.Kind.String())
	h.writeOutcome(w, r, out)
}

func (h *Handler) setCommonHeaders(hdr http.Header) {
	hdr.Set("Accept-Ranges", "bytes")
	if hdr.Get("Access-Control-Allow-Origin") == "" {
		hdr.Set("Access-Control-Allow-Origin", h.config.AllowedOrigin)
	}
}
