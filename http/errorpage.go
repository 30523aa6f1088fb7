package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sagarc03/stowgate"
)

// writeText writes a minimal plain text body.
func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// HandleError maps a gateway error to a status. Details only go to the log.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stowgate.ErrRangeNotSatisfiable):
		slog.Debug("range not satisfiable", "path", r.URL.Path, "range", r.Header.Get("Range"), "err", err)
		writeText(w, http.StatusRequestedRangeNotSatisfiable, "Range Not Satisfiable")
	case errors.Is(err, stowgate.ErrInvalidInput):
		slog.Debug("invalid request", "path", r.URL.Path, "err", err)
		writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	case errors.Is(err, context.Canceled):
		slog.Debug("request canceled", "path", r.URL.Path, "err", err)
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		slog.Error("request error", "method", r.Method, "path", r.URL.Path, "err", err)
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
