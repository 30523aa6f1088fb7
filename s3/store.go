// Package s3 provides the S3-compatible object store for stowgate.
//
// This adapter supports AWS S3, MinIO, LocalStack, Cloudflare R2,
// and other S3-compatible object stores.
//
// Predicates are sent as conditional request headers on GetObject, so the
// service evaluates them against the same version it returns. A 304 or 412
// response is reported as an Object with a nil Body.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/sagarc03/stowgate"
)

// API defines the subset of the S3 client interface used by the store.
// This enables testing with mock implementations.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds configuration for the S3 store.
type Config struct {
	// Bucket is the S3 bucket name. Required.
	Bucket string
}

// Store implements stowgate.ObjectStore using an S3-compatible backend.
type Store struct {
	client API
	bucket string
}

// New creates a new S3 store with the given client and configuration.
//
// The client must be pre-configured with credentials, region, and endpoint;
// see NewClient.
func New(client API, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3: %w: client is required", stowgate.ErrInvalidInput)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: %w: bucket is required", stowgate.ErrInvalidInput)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Get fetches key, applying the range and predicate of opts.
func (s *Store) Get(ctx context.Context, key string, opts stowgate.GetOptions) (*stowgate.Object, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	if opts.Range != nil {
		input.Range = aws.String(opts.Range.HeaderValue())
	}

	if c := opts.OnlyIf; c != nil {
		if c.EtagMatches != "" {
			input.IfMatch = aws.String(quoteETag(c.EtagMatches))
		}
		if c.EtagDoesNotMatch != "" {
			input.IfNoneMatch = aws.String(quoteETag(c.EtagDoesNotMatch))
		}
		if !c.UploadedBefore.IsZero() {
			input.IfUnmodifiedSince = aws.Time(c.UploadedBefore)
		}
		if !c.UploadedAfter.IsZero() {
			input.IfModifiedSince = aws.Time(c.UploadedAfter)
		}
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return nil, stowgate.ErrNotFound
		}
		if info, ok := predicateFailed(err, key); ok {
			return &stowgate.Object{ObjectInfo: info}, nil
		}
		if isInvalidRange(err) {
			return nil, fmt.Errorf("s3: get %s: %w", key, stowgate.ErrRangeNotSatisfiable)
		}
		return nil, fmt.Errorf("s3: get %s: %w: %w", key, stowgate.ErrInternal, err)
	}

	size := aws.ToInt64(out.ContentLength)
	if total, ok := parseContentRangeSize(aws.ToString(out.ContentRange)); ok {
		size = total
	}

	info := stowgate.ObjectInfo{
		Key:      key,
		Size:     size,
		ETag:     unquoteETag(aws.ToString(out.ETag)),
		Uploaded: aws.ToTime(out.LastModified),
		HTTPMetadata: httpMetadata(
			out.CacheControl, out.ContentType, out.ContentEncoding,
			out.ContentLanguage, out.ContentDisposition, out.ExpiresString,
		),
	}

	obj := &stowgate.Object{ObjectInfo: info, Body: out.Body}
	if opts.Range != nil {
		obj.Range = opts.Range
	}
	return obj, nil
}

// Head fetches metadata for key.
func (s *Store) Head(ctx context.Context, key string) (stowgate.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return stowgate.ObjectInfo{}, stowgate.ErrNotFound
		}
		return stowgate.ObjectInfo{}, fmt.Errorf("s3: head %s: %w: %w", key, stowgate.ErrInternal, err)
	}

	return stowgate.ObjectInfo{
		Key:      key,
		Size:     aws.ToInt64(out.ContentLength),
		ETag:     unquoteETag(aws.ToString(out.ETag)),
		Uploaded: aws.ToTime(out.LastModified),
		HTTPMetadata: httpMetadata(
			out.CacheControl, out.ContentType, out.ContentEncoding,
			out.ContentLanguage, out.ContentDisposition, out.ExpiresString,
		),
	}, nil
}

// List returns every object and common prefix under q.Prefix.
// Pagination is handled automatically.
func (s *Store) List(ctx context.Context, q stowgate.ListQuery) (stowgate.ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(q.Prefix),
	}
	if q.Delimiter != "" {
		input.Delimiter = aws.String(q.Delimiter)
	}

	result := stowgate.ListResult{CommonPrefixes: []string{}, Objects: []stowgate.ObjectInfo{}}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return stowgate.ListResult{}, fmt.Errorf("s3: list objects: %w: %w", stowgate.ErrInternal, err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix != nil {
				result.CommonPrefixes = append(result.CommonPrefixes, *cp.Prefix)
			}
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			result.Objects = append(result.Objects, stowgate.ObjectInfo{
				Key:      *obj.Key,
				Size:     aws.ToInt64(obj.Size),
				ETag:     unquoteETag(aws.ToString(obj.ETag)),
				Uploaded: aws.ToTime(obj.LastModified),
			})
		}
	}

	return result, nil
}

func httpMetadata(cacheControl, contentType, contentEncoding, contentLanguage, contentDisposition, expires *string) stowgate.HTTPMetadata {
	meta := stowgate.HTTPMetadata{
		CacheControl:       aws.ToString(cacheControl),
		ContentType:        aws.ToString(contentType),
		ContentEncoding:    aws.ToString(contentEncoding),
		ContentLanguage:    aws.ToString(contentLanguage),
		ContentDisposition: aws.ToString(contentDisposition),
	}
	if t, err := http.ParseTime(aws.ToString(expires)); err == nil {
		meta.CacheExpiry = &t
	}
	return meta
}

func quoteETag(etag string) string {
	if etag == "*" {
		return etag
	}
	return `"` + etag + `"`
}

func unquoteETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// parseContentRangeSize extracts the complete length from a
// "bytes start-end/size" value.
func parseContentRangeSize(v string) (int64, bool) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isNotFound checks if an error indicates the object was not found.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}

func isInvalidRange(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange"
}

// predicateFailed reports whether err is a 304 or 412 response, recovering
// the validators S3 returns alongside it.
func predicateFailed(err error, key string) (stowgate.ObjectInfo, bool) {
	var re *awshttp.ResponseError
	if !errors.As(err, &re) {
		return stowgate.ObjectInfo{}, false
	}

	status := re.HTTPStatusCode()
	if status != http.StatusNotModified && status != http.StatusPreconditionFailed {
		return stowgate.ObjectInfo{}, false
	}

	info := stowgate.ObjectInfo{Key: key}
	if re.Response != nil && re.Response.Response != nil {
		h := re.Response.Header
		info.ETag = unquoteETag(h.Get("ETag"))
		if t, err := http.ParseTime(h.Get("Last-Modified")); err == nil {
			info.Uploaded = t
		}
	}
	return info, true
}
