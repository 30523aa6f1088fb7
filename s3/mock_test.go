package s3

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

type mockObject struct {
	data         []byte
	etag         string
	lastModified time.Time
	contentType  string
	cacheControl string
	expires      string
}

// MockS3Client is an in-memory API that evaluates conditional headers and
// ranges the way S3 does.
type MockS3Client struct {
	mu      sync.RWMutex
	objects map[string]mockObject

	// PageSize limits keys per ListObjectsV2 page. Zero means unlimited.
	PageSize int

	// Err is returned from every call when set.
	Err error

	LastGetInput       *s3.GetObjectInput
	GetObjectCalls     int
	ListObjectsV2Calls int
}

func NewMockS3Client() *MockS3Client {
	return &MockS3Client{objects: make(map[string]mockObject)}
}

func (m *MockS3Client) put(key string, data []byte, lastModified time.Time, contentType string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := md5.Sum(data)
	etag := hex.EncodeToString(sum[:])
	m.objects[key] = mockObject{data: data, etag: etag, lastModified: lastModified, contentType: contentType}
	return etag
}

func (m *MockS3Client) setMeta(key, cacheControl, expires string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.objects[key]
	o.cacheControl = cacheControl
	o.expires = expires
	m.objects[key] = o
}

func (m *MockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	m.GetObjectCalls++
	m.LastGetInput = params
	obj, ok := m.objects[aws.ToString(params.Key)]
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	quoted := `"` + obj.etag + `"`
	modified := obj.lastModified.Truncate(time.Second)

	if v := aws.ToString(params.IfMatch); v != "" && v != "*" && v != quoted {
		return nil, statusError(http.StatusPreconditionFailed, obj)
	}
	if params.IfMatch == nil && params.IfUnmodifiedSince != nil && modified.After(*params.IfUnmodifiedSince) {
		return nil, statusError(http.StatusPreconditionFailed, obj)
	}
	if v := aws.ToString(params.IfNoneMatch); v != "" && (v == "*" || v == quoted) {
		return nil, statusError(http.StatusNotModified, obj)
	}
	if params.IfNoneMatch == nil && params.IfModifiedSince != nil && !modified.After(*params.IfModifiedSince) {
		return nil, statusError(http.StatusNotModified, obj)
	}

	size := int64(len(obj.data))
	out := &s3.GetObjectOutput{
		ETag:          aws.String(quoted),
		LastModified:  aws.Time(obj.lastModified),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(obj.contentType),
	}
	if obj.cacheControl != "" {
		out.CacheControl = aws.String(obj.cacheControl)
	}
	if obj.expires != "" {
		out.ExpiresString = aws.String(obj.expires)
	}

	data := obj.data
	if r := aws.ToString(params.Range); r != "" {
		start, end, err := parseMockRange(r, size)
		if err != nil {
			return nil, err
		}
		data = data[start : end+1]
		out.ContentLength = aws.Int64(int64(len(data)))
		out.ContentRange = aws.String("bytes " + strconv.FormatInt(start, 10) + "-" +
			strconv.FormatInt(end, 10) + "/" + strconv.FormatInt(size, 10))
	}

	out.Body = io.NopCloser(bytes.NewReader(data))
	return out, nil
}

func (m *MockS3Client) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.RLock()
	obj, ok := m.objects[aws.ToString(params.Key)]
	m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}

	out := &s3.HeadObjectOutput{
		ETag:          aws.String(`"` + obj.etag + `"`),
		LastModified:  aws.Time(obj.lastModified),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
	}
	if obj.cacheControl != "" {
		out.CacheControl = aws.String(obj.cacheControl)
	}
	if obj.expires != "" {
		out.ExpiresString = aws.String(obj.expires)
	}
	return out, nil
}

func (m *MockS3Client) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	m.ListObjectsV2Calls++
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	objects := m.objects
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	sort.Strings(keys)

	prefix := aws.ToString(params.Prefix)
	delimiter := aws.ToString(params.Delimiter)
	after := aws.ToString(params.ContinuationToken)

	out := &s3.ListObjectsV2Output{}
	seen := map[string]bool{}
	n := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || k <= after {
			continue
		}
		if m.PageSize > 0 && n == m.PageSize {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(after)
			break
		}
		after = k
		n++

		rest := k[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}

		o := objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(o.data))),
			ETag:         aws.String(`"` + o.etag + `"`),
			LastModified: aws.Time(o.lastModified),
		})
	}
	return out, nil
}

func parseMockRange(v string, size int64) (int64, int64, error) {
	spec := strings.TrimPrefix(v, "bytes=")
	first, last, _ := strings.Cut(spec, "-")
	if first == "" {
		n, _ := strconv.ParseInt(last, 10, 64)
		n = min(n, size)
		return size - n, size - 1, nil
	}
	start, _ := strconv.ParseInt(first, 10, 64)
	if start >= size {
		return 0, 0, &smithyAPIError{code: "InvalidRange", message: "The requested range is not satisfiable"}
	}
	end := size - 1
	if last != "" {
		end, _ = strconv.ParseInt(last, 10, 64)
		end = min(end, size-1)
	}
	return start, end, nil
}

func statusError(status int, obj mockObject) error {
	h := http.Header{}
	h.Set("ETag", `"`+obj.etag+`"`)
	h.Set("Last-Modified", obj.lastModified.UTC().Format(http.TimeFormat))
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status, Header: h}},
			Err:      errors.New(http.StatusText(status)),
		},
	}
}

// smithyAPIError implements smithy.APIError for testing.
type smithyAPIError struct {
	code    string
	message string
}

func (e *smithyAPIError) Error() string                 { return e.code + ": " + e.message }
func (e *smithyAPIError) ErrorCode() string             { return e.code }
func (e *smithyAPIError) ErrorMessage() string          { return e.message }
func (e *smithyAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }
