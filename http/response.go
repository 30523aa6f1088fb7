package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sagarc03/stowgate"
)

const defaultContentType = "application/octet-stream"

// writeOutcome renders an outcome. First match wins:
//
//	precondition failed  412, empty
//	not modified         304, empty
//	absent               404, "File Not Found"
//	listing              200, HTML index
//	fallback object      404, object body
//	range                206, partial body
//	otherwise            200, full body
func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, out stowgate.Outcome) {
	switch out.Kind {
	case stowgate.OutcomePreconditionFailed:
		w.WriteHeader(http.StatusPreconditionFailed)
		return
	case stowgate.OutcomeNotModified:
		w.WriteHeader(http.StatusNotModified)
		return
	case stowgate.OutcomeAbsent:
		writeText(w, http.StatusNotFound, "File Not Found")
		return
	case stowgate.OutcomeListing:
		writeListing(w, r, out.Listing)
		return
	}

	obj := out.Object
	fallback := out.Kind == stowgate.OutcomeFallback
	hdr := w.Header()

	if !fallback {
		hdr.Set("ETag", obj.HTTPETag())
		hdr.Set("Last-Modified", obj.Uploaded.UTC().Format(http.TimeFormat))
	}
	setMetadataHeaders(hdr, obj.HTTPMetadata)

	switch {
	case obj.HTTPMetadata.CacheControl != "":
		hdr.Set("Cache-Control", obj.HTTPMetadata.CacheControl)
	case !fallback && h.config.CacheControl != "":
		hdr.Set("Cache-Control", h.config.CacheControl)
	}

	status := http.StatusOK
	length := obj.Size
	switch {
	case fallback:
		status = http.StatusNotFound
	case out.Range != nil:
		status = http.StatusPartialContent
		_, length = out.Range.Resolve(obj.Size)
		hdr.Set("Content-Range", out.Range.ContentRange(obj.Size))
	}
	hdr.Set("Content-Length", strconv.FormatInt(length, 10))

	w.WriteHeader(status)

	if r.Method == http.MethodHead || !obj.HasBody() || length == 0 {
		return
	}

	if _, err := io.CopyN(w, obj.Body, length); err != nil {
		slog.Debug("write body", "key", obj.Key, "err", err)
	}
}

func setMetadataHeaders(hdr http.Header, meta stowgate.HTTPMetadata) {
	contentType := meta.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	hdr.Set("Content-Type", contentType)

	hdr.Set("Content-Encoding", meta.ContentEncoding)
	hdr.Set("Content-Language", meta.ContentLanguage)
	hdr.Set("Content-Disposition", meta.ContentDisposition)
	if meta.CacheExpiry != nil {
		hdr.Set("Expires", meta.CacheExpiry.UTC().Format(http.TimeFormat))
	}
}
