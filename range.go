package stowgate

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RangeSpec is a single byte window, either absolute (Offset, Length) or the
// last Suffix bytes of the object.
type RangeSpec struct {
	Offset int64
	Length int64
	Suffix int64
}

// IsSuffix reports whether the range is tail relative.
func (r RangeSpec) IsSuffix() bool {
	return r.Suffix > 0
}

// Resolve returns the absolute start and length of the range for an object
// of the given size. Suffix ranges are recomputed against size, so a size
// that changed since negotiation still yields a window inside the object.
func (r RangeSpec) Resolve(size int64) (start, length int64) {
	if r.IsSuffix() {
		n := min(r.Suffix, size)
		return size - n, n
	}
	if r.Offset >= size {
		return r.Offset, 0
	}
	return r.Offset, min(r.Length, size-r.Offset)
}

// ContentRange formats the Content-Range header value for an object of size bytes.
func (r RangeSpec) ContentRange(size int64) string {
	start, length := r.Resolve(size)
	return fmt.Sprintf("bytes %d-%d/%d", start, start+length-1, size)
}

// HeaderValue formats the range as a Range request header.
func (r RangeSpec) HeaderValue() string {
	if r.IsSuffix() {
		return fmt.Sprintf("bytes=-%d", r.Suffix)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Offset, r.Offset+r.Length-1)
}

// NegotiateRange parses a Range header against an object of size bytes.
// Only a single "bytes" range is serviceable; anything else, including a
// syntactically valid multi-range set, returns ErrRangeNotSatisfiable.
//
// A range that ends on the last byte is normalized to suffix form.
func NegotiateRange(header string, size int64) (*RangeSpec, error) {
	unit, set, ok := strings.Cut(header, "=")
	if !ok || strings.TrimSpace(unit) != "bytes" {
		return nil, fmt.Errorf("negotiate range %q: %w", header, ErrRangeNotSatisfiable)
	}

	specs := strings.Split(set, ",")
	if len(specs) != 1 {
		return nil, fmt.Errorf("negotiate range %q: multiple ranges: %w", header, ErrRangeNotSatisfiable)
	}

	start, end, err := parseByteRange(strings.TrimSpace(specs[0]), size)
	if err != nil {
		return nil, fmt.Errorf("negotiate range %q: %w", header, err)
	}

	if end == size-1 {
		return &RangeSpec{Suffix: size - start}, nil
	}
	return &RangeSpec{Offset: start, Length: end - start + 1}, nil
}

// parseByteRange returns the inclusive bounds of a single byte-range-spec.
func parseByteRange(spec string, size int64) (start, end int64, err error) {
	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, ErrRangeNotSatisfiable
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first == "" {
		n, ok := parseDigits(last)
		if !ok || n == 0 || size == 0 {
			return 0, 0, ErrRangeNotSatisfiable
		}
		n = min(n, size)
		return size - n, size - 1, nil
	}

	start, ok = parseDigits(first)
	if !ok || start >= size {
		return 0, 0, ErrRangeNotSatisfiable
	}

	end = size - 1
	if last != "" {
		end, ok = parseDigits(last)
		if !ok || end < start {
			return 0, 0, ErrRangeNotSatisfiable
		}
		end = min(end, size-1)
	}

	return start, end, nil
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ApplyIfRange returns spec when the If-Range validator still matches info,
// or nil when the client must get the full representation instead.
//
// An HTTP-date keeps the range if it is not earlier than the upload time.
// An entity tag keeps it only when it is strong and equal to the object's.
func ApplyIfRange(spec *RangeSpec, ifRange string, info ObjectInfo) *RangeSpec {
	ifRange = strings.TrimSpace(ifRange)
	if spec == nil || ifRange == "" {
		return spec
	}

	if t, err := http.ParseTime(ifRange); err == nil {
		if t.Before(info.Uploaded.Truncate(time.Second)) {
			return nil
		}
		return spec
	}

	if strings.HasPrefix(ifRange, "W/") || ifRange != info.HTTPETag() {
		return nil
	}
	return spec
}
