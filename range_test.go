package stowgate_test

import (
	"testing"
	"time"

	"github.com/sagarc03/stowgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   *stowgate.RangeSpec
	}{
		{name: "bounded", header: "bytes=0-4", size: 10, want: &stowgate.RangeSpec{Offset: 0, Length: 5}},
		{name: "middle", header: "bytes=2-5", size: 10, want: &stowgate.RangeSpec{Offset: 2, Length: 4}},
		{name: "open ended becomes suffix", header: "bytes=4-", size: 10, want: &stowgate.RangeSpec{Suffix: 6}},
		{name: "ends on last byte becomes suffix", header: "bytes=3-9", size: 10, want: &stowgate.RangeSpec{Suffix: 7}},
		{name: "end past size is clamped", header: "bytes=3-100", size: 10, want: &stowgate.RangeSpec{Suffix: 7}},
		{name: "suffix", header: "bytes=-3", size: 10, want: &stowgate.RangeSpec{Suffix: 3}},
		{name: "suffix larger than size", header: "bytes=-30", size: 10, want: &stowgate.RangeSpec{Suffix: 10}},
		{name: "whole object", header: "bytes=0-", size: 10, want: &stowgate.RangeSpec{Suffix: 10}},
		{name: "single byte", header: "bytes=0-0", size: 10, want: &stowgate.RangeSpec{Offset: 0, Length: 1}},
		{name: "whitespace tolerated", header: "bytes= 1-2 ", size: 10, want: &stowgate.RangeSpec{Offset: 1, Length: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stowgate.NegotiateRange(tt.header, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateRange_NotSatisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
	}{
		{name: "wrong unit", header: "items=0-4", size: 10},
		{name: "missing equals", header: "bytes 0-4", size: 10},
		{name: "multiple ranges", header: "bytes=0-1,4-5", size: 10},
		{name: "start past end of object", header: "bytes=10-", size: 10},
		{name: "end before start", header: "bytes=5-2", size: 10},
		{name: "zero suffix", header: "bytes=-0", size: 10},
		{name: "empty object", header: "bytes=-5", size: 0},
		{name: "garbage", header: "bytes=abc", size: 10},
		{name: "negative start", header: "bytes=--1", size: 10},
		{name: "no bounds", header: "bytes=-", size: 10},
		{name: "signed digits", header: "bytes=+1-2", size: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stowgate.NegotiateRange(tt.header, tt.size)
			assert.ErrorIs(t, err, stowgate.ErrRangeNotSatisfiable)
			assert.Nil(t, got)
		})
	}
}

func TestRangeSpec_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		spec       stowgate.RangeSpec
		size       int64
		wantStart  int64
		wantLength int64
	}{
		{name: "absolute", spec: stowgate.RangeSpec{Offset: 2, Length: 3}, size: 10, wantStart: 2, wantLength: 3},
		{name: "absolute truncated", spec: stowgate.RangeSpec{Offset: 8, Length: 5}, size: 10, wantStart: 8, wantLength: 2},
		{name: "suffix", spec: stowgate.RangeSpec{Suffix: 4}, size: 10, wantStart: 6, wantLength: 4},
		{name: "suffix recomputed for larger object", spec: stowgate.RangeSpec{Suffix: 4}, size: 20, wantStart: 16, wantLength: 4},
		{name: "suffix clamped to smaller object", spec: stowgate.RangeSpec{Suffix: 8}, size: 5, wantStart: 0, wantLength: 5},
		{name: "offset past size", spec: stowgate.RangeSpec{Offset: 12, Length: 2}, size: 10, wantStart: 12, wantLength: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, length := tt.spec.Resolve(tt.size)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantLength, length)
		})
	}
}

func TestRangeSpec_ContentRange(t *testing.T) {
	assert.Equal(t, "bytes 0-4/10", stowgate.RangeSpec{Offset: 0, Length: 5}.ContentRange(10))
	assert.Equal(t, "bytes 7-9/10", stowgate.RangeSpec{Suffix: 3}.ContentRange(10))
}

func TestRangeSpec_HeaderValue(t *testing.T) {
	assert.Equal(t, "bytes=2-5", stowgate.RangeSpec{Offset: 2, Length: 4}.HeaderValue())
	assert.Equal(t, "bytes=-3", stowgate.RangeSpec{Suffix: 3}.HeaderValue())
}

func TestApplyIfRange(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	info := stowgate.ObjectInfo{ETag: "abc", Uploaded: uploaded}
	spec := &stowgate.RangeSpec{Offset: 0, Length: 5}

	tests := []struct {
		name    string
		ifRange string
		want    *stowgate.RangeSpec
	}{
		{name: "no header", ifRange: "", want: spec},
		{name: "matching etag", ifRange: `"abc"`, want: spec},
		{name: "different etag", ifRange: `"xyz"`, want: nil},
		{name: "unquoted etag", ifRange: "abc", want: nil},
		{name: "weak etag", ifRange: `W/"abc"`, want: nil},
		{name: "date equal to upload second", ifRange: "Fri, 01 Mar 2024 12:00:00 GMT", want: spec},
		{name: "date after upload", ifRange: "Sat, 02 Mar 2024 12:00:00 GMT", want: spec},
		{name: "date before upload", ifRange: "Thu, 29 Feb 2024 12:00:00 GMT", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stowgate.ApplyIfRange(spec, tt.ifRange, info))
		})
	}

	t.Run("nil spec stays nil", func(t *testing.T) {
		assert.Nil(t, stowgate.ApplyIfRange(nil, `"abc"`, info))
	})
}
