package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/exascience/pargo/parallel"

	"github.com/xsamtools/xsamtools/internal/cram"
)

// FetchError reports a failure to fetch or store one range of an object.
type FetchError struct {
	Range cram.Range
	Err   error
}

func (err *FetchError) Error() string {
	return fmt.Sprintf("fetching range %s: %v", err.Range, err.Err)
}

func (err *FetchError) Unwrap() error {
	return err.Err
}

// FetchOptions controls how Fetch downloads ranges.
type FetchOptions struct {
	// Parallel fetches ranges concurrently.  Ranges never overlap, so each
	// worker writes to its own region of the output file.
	Parallel bool
}

// Fetch copies every range of object into the file at path, placing each
// range at its own offset.  Bytes not covered by any range are left as zeros.
// Empty ranges are skipped.  The first failure aborts the remaining work and
// is returned as a *FetchError.
func Fetch(ctx context.Context, object ObjectHandle, ranges []cram.Range, path string, opts FetchOptions) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	var pending []cram.Range
	for _, r := range ranges {
		if r.Open() || r.Length() > 0 {
			pending = append(pending, r)
		}
	}

	if opts.Parallel {
		err = fetchParallel(ctx, object, pending, f)
	} else {
		for _, r := range pending {
			if err = fetchRange(ctx, object, r, f); err != nil {
				break
			}
		}
	}

	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	return err
}

func fetchParallel(ctx context.Context, object ObjectHandle, ranges []cram.Range, w io.WriterAt) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		first error
	)
	parallel.Range(0, len(ranges), 0, func(low, high int) {
		for i := low; i < high; i++ {
			if err := fetchRange(ctx, object, ranges[i], w); err != nil {
				mu.Lock()
				if first == nil {
					first = err
					cancel()
				}
				mu.Unlock()
				return
			}
		}
	})
	return first
}

func fetchRange(ctx context.Context, object ObjectHandle, r cram.Range, w io.WriterAt) error {
	length := int64(-1)
	if !r.Open() {
		length = int64(r.Length())
	}

	rc, err := object.NewRangeReader(ctx, int64(r.Start), length)
	if err != nil {
		return &FetchError{r, err}
	}
	defer rc.Close()

	n, err := io.Copy(&offsetWriter{w, int64(r.Start)}, rc)
	if err != nil {
		return &FetchError{r, err}
	}
	if length >= 0 && n != length {
		return &FetchError{r, fmt.Errorf("got %d of %d bytes: %w", n, length, io.ErrUnexpectedEOF)}
	}
	return nil
}

// offsetWriter writes sequentially into an io.WriterAt starting at offset.
type offsetWriter struct {
	w      io.WriterAt
	offset int64
}

func (ow *offsetWriter) Write(p []byte) (int, error) {
	n, err := ow.w.WriteAt(p, ow.offset)
	ow.offset += int64(n)
	return n, err
}
