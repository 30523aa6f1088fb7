package stowgate

import (
	"io"
	"time"
)

// HTTPMetadata holds the HTTP headers a store keeps alongside an object.
// Empty strings mean the header is not set.
type HTTPMetadata struct {
	CacheControl       string     `json:"cache_control,omitempty"`
	CacheExpiry        *time.Time `json:"cache_expiry,omitempty"`
	ContentEncoding    string     `json:"content_encoding,omitempty"`
	ContentType        string     `json:"content_type,omitempty"`
	ContentLanguage    string     `json:"content_language,omitempty"`
	ContentDisposition string     `json:"content_disposition,omitempty"`
}

// ObjectInfo describes a stored object without its content.
type ObjectInfo struct {
	Key          string       `json:"key"`
	Size         int64        `json:"size"`
	ETag         string       `json:"etag"`
	Uploaded     time.Time    `json:"uploaded"`
	HTTPMetadata HTTPMetadata `json:"http_metadata"`
}

// HTTPETag returns the entity tag in its quoted wire form.
func (o ObjectInfo) HTTPETag() string {
	return `"` + o.ETag + `"`
}

// Object is the result of a Get call. A nil Body means the object exists but
// the predicate passed in GetOptions.OnlyIf was not met.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
	// Range is the window the store served, nil for a full read.
	Range *RangeSpec
}

// HasBody reports whether the store returned content.
func (o *Object) HasBody() bool {
	return o != nil && o.Body != nil
}

// Close releases the body, if any.
func (o *Object) Close() error {
	if !o.HasBody() {
		return nil
	}
	return o.Body.Close()
}

// Conditions is a predicate evaluated by the store against the same snapshot
// it returns. Zero values are unset.
type Conditions struct {
	EtagMatches      string
	EtagDoesNotMatch string
	UploadedBefore   time.Time
	UploadedAfter    time.Time
}

// IsZero reports whether no condition is set.
func (c Conditions) IsZero() bool {
	return c.EtagMatches == "" && c.EtagDoesNotMatch == "" &&
		c.UploadedBefore.IsZero() && c.UploadedAfter.IsZero()
}

// GetOptions configures a Get call.
type GetOptions struct {
	Range  *RangeSpec
	OnlyIf *Conditions
}

// ListQuery selects the immediate children of Prefix when Delimiter is set.
type ListQuery struct {
	Prefix    string
	Delimiter string
}

// ListResult holds the outcome of a delimited listing.
type ListResult struct {
	CommonPrefixes []string     `json:"common_prefixes"`
	Objects        []ObjectInfo `json:"objects"`
}

// ObjectEntry is a catalog row as discovered on disk.
type ObjectEntry struct {
	Key          string
	Size         int64
	ETag         string
	Uploaded     time.Time
	HTTPMetadata HTTPMetadata
}
