// Package memory provides an in-memory object store for stowgate.
// It is intended for tests and small embedded deployments.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sagarc03/stowgate"
)

type entry struct {
	info stowgate.ObjectInfo
	data []byte
}

// Store implements stowgate.ObjectStore using an in-memory map.
//
// Consistency: Immediate. Predicates are evaluated under the same lock that
// snapshots the returned object.
//
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry

	// Call counters for test assertions
	GetCalls  int
	HeadCalls int
	ListCalls int
}

// NewStore creates an empty in-memory Store.
func NewStore() *Store {
	return &Store{objects: make(map[string]entry)}
}

// Put stores data under key, replacing any existing object. The ETag is the
// hex MD5 of data, as S3 computes it for single-part uploads.
func (s *Store) Put(key string, data []byte, uploaded time.Time, meta stowgate.HTTPMetadata) stowgate.ObjectInfo {
	sum := md5.Sum(data)
	info := stowgate.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         hex.EncodeToString(sum[:]),
		Uploaded:     uploaded,
		HTTPMetadata: meta,
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	s.mu.Lock()
	s.objects[key] = entry{info: info, data: dataCopy}
	s.mu.Unlock()

	return info
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
}

func (s *Store) Get(ctx context.Context, key string, opts stowgate.GetOptions) (*stowgate.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.GetCalls++
	e, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, stowgate.ErrNotFound)
	}

	if opts.OnlyIf != nil && !opts.OnlyIf.Evaluate(e.info) {
		return &stowgate.Object{ObjectInfo: e.info}, nil
	}

	data := e.data
	if opts.Range != nil {
		start, length := opts.Range.Resolve(e.info.Size)
		if start > e.info.Size {
			return nil, fmt.Errorf("get %s: %w", key, stowgate.ErrRangeNotSatisfiable)
		}
		data = data[start : start+length]
	}

	return &stowgate.Object{
		ObjectInfo: e.info,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Range:      opts.Range,
	}, nil
}

func (s *Store) Head(ctx context.Context, key string) (stowgate.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return stowgate.ObjectInfo{}, err
	}

	s.mu.Lock()
	s.HeadCalls++
	e, ok := s.objects[key]
	s.mu.Unlock()

	if !ok {
		return stowgate.ObjectInfo{}, fmt.Errorf("head %s: %w", key, stowgate.ErrNotFound)
	}
	return e.info, nil
}

func (s *Store) List(ctx context.Context, q stowgate.ListQuery) (stowgate.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return stowgate.ListResult{}, err
	}

	s.mu.Lock()
	s.ListCalls++
	infos := make([]stowgate.ObjectInfo, 0, len(s.objects))
	for key, e := range s.objects {
		if strings.HasPrefix(key, q.Prefix) {
			infos = append(infos, e.info)
		}
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	return stowgate.Delimit(infos, q.Prefix, q.Delimiter), nil
}

// ResetCounts resets call counters for test isolation.
func (s *Store) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls = 0
	s.HeadCalls = 0
	s.ListCalls = 0
}
