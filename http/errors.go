package http

import "errors"

// ErrNotCacheable is returned by a ResponseCache that declines to store a
// response, for example because of its cache-control directives.
var ErrNotCacheable = errors.New("response not cacheable")
