package api

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsamtools/xsamtools/internal/cram"
)

type recordingObject struct {
	ObjectHandle

	mu       sync.Mutex
	requests []cram.Range
}

func (r *recordingObject) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	r.mu.Lock()
	end := uint64(cram.EndOfFile)
	if length >= 0 {
		end = uint64(offset + length)
	}
	r.requests = append(r.requests, cram.Range{Start: uint64(offset), End: end})
	r.mu.Unlock()
	return r.ObjectHandle.NewRangeReader(ctx, offset, length)
}

func TestFetch(t *testing.T) {
	data := []byte("0123456789abcdefghij")
	ranges := []cram.Range{{Start: 0, End: 4}, {Start: 4, End: 4}, {Start: 8, End: 12}, {Start: 16, End: cram.EndOfFile}}
	want := []byte("0123\x00\x00\x00\x0089ab\x00\x00\x00\x00ghij")

	for _, parallel := range []bool{false, true} {
		object := &recordingObject{ObjectHandle: memoryObject(data)}
		output := filepath.Join(t.TempDir(), "output")

		require.NoError(t, Fetch(context.Background(), object, ranges, output, FetchOptions{Parallel: parallel}))

		got, err := ioutil.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, want, got, "parallel %v", parallel)
		assert.ElementsMatch(t, []cram.Range{{Start: 0, End: 4}, {Start: 8, End: 12}, {Start: 16, End: cram.EndOfFile}},
			object.requests, "parallel %v", parallel)
	}
}

func TestFetchTruncatesExistingOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "output")
	require.NoError(t, ioutil.WriteFile(output, []byte("a much longer previous file"), 0644))

	require.NoError(t, Fetch(context.Background(), memoryObject("abc"), []cram.Range{{Start: 0, End: cram.EndOfFile}}, output, FetchOptions{}))
	got, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestFetchShortRead(t *testing.T) {
	output := filepath.Join(t.TempDir(), "output")
	err := Fetch(context.Background(), memoryObject("0123456789"), []cram.Range{{Start: 5, End: 20}}, output, FetchOptions{})

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr), "got error %v", err)
	assert.Equal(t, cram.Range{Start: 5, End: 20}, fetchErr.Range)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestFetchBadOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "missing", "output")
	err := Fetch(context.Background(), memoryObject("abc"), []cram.Range{{Start: 0, End: 3}}, output, FetchOptions{})
	assert.Error(t, err)
}
