package stowgate

import (
	"net/http"
	"strings"
	"time"
)

// Conditionals holds the If-* request headers after lenient parsing.
// Weak entity tags and unparsable dates are treated as absent.
type Conditionals struct {
	IfMatch           string
	IfNoneMatch       string
	IfModifiedSince   time.Time
	IfUnmodifiedSince time.Time
}

// ParseConditionals extracts the conditional request headers from h.
func ParseConditionals(h http.Header) Conditionals {
	return Conditionals{
		IfMatch:           normalizeETag(h.Get("If-Match")),
		IfNoneMatch:       normalizeETag(h.Get("If-None-Match")),
		IfModifiedSince:   parseHTTPTime(h.Get("If-Modified-Since")),
		IfUnmodifiedSince: parseHTTPTime(h.Get("If-Unmodified-Since")),
	}
}

// IsZero reports whether the request carries no usable condition.
func (c Conditionals) IsZero() bool {
	return c.IfMatch == "" && c.IfNoneMatch == "" &&
		c.IfModifiedSince.IsZero() && c.IfUnmodifiedSince.IsZero()
}

// Precondition returns the predicate guarding against a 412, if any.
func (c Conditionals) Precondition() (Conditions, bool) {
	if c.IfMatch == "" && c.IfUnmodifiedSince.IsZero() {
		return Conditions{}, false
	}
	return Conditions{
		EtagMatches:    c.IfMatch,
		UploadedBefore: c.IfUnmodifiedSince,
	}, true
}

// Validation returns the predicate that produces a 304 when it fails.
// If-None-Match takes exclusive precedence over If-Modified-Since.
func (c Conditionals) Validation() (Conditions, bool) {
	if c.IfNoneMatch != "" {
		return Conditions{EtagDoesNotMatch: c.IfNoneMatch}, true
	}
	if !c.IfModifiedSince.IsZero() {
		return Conditions{UploadedAfter: c.IfModifiedSince}, true
	}
	return Conditions{}, false
}

// Evaluate reports whether info satisfies every set condition.
// Timestamps are compared at second precision, the resolution of HTTP dates.
func (c Conditions) Evaluate(info ObjectInfo) bool {
	uploaded := info.Uploaded.Truncate(time.Second)

	if c.EtagMatches != "" && c.EtagMatches != "*" && c.EtagMatches != info.ETag {
		return false
	}
	if c.EtagDoesNotMatch != "" && (c.EtagDoesNotMatch == "*" || c.EtagDoesNotMatch == info.ETag) {
		return false
	}
	if !c.UploadedBefore.IsZero() && uploaded.After(c.UploadedBefore) {
		return false
	}
	if !c.UploadedAfter.IsZero() && !uploaded.After(c.UploadedAfter) {
		return false
	}
	return true
}

// normalizeETag trims whitespace and one pair of surrounding quotes.
// Weak validators are not usable for the strong comparison stores perform.
func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "W/") {
		return ""
	}
	if v != "" && (v[0] == '"' || v[0] == '\'') {
		v = v[1:]
	}
	if v != "" && (v[len(v)-1] == '"' || v[len(v)-1] == '\'') {
		v = v[:len(v)-1]
	}
	return v
}

func parseHTTPTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
