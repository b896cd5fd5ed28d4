package api

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotExist is returned by object handles that are not backed by GCS
// when the requested object cannot be found.
var ErrObjectNotExist = errors.New("object does not exist")

// Client is an interface to the storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to the actual storage engine in use.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// limit restricts rc to length bytes unless length is negative.
func limit(rc io.ReadCloser, length int64) io.ReadCloser {
	if length < 0 {
		return rc
	}
	return readCloser{io.LimitReader(rc, length), rc}
}
