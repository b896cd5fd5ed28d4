package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileClient is a Client that reads objects from the local file system.
// Buckets are directories below Root.
type FileClient struct {
	Root string
}

// NewObjectHandle returns a handle to the file holding object in bucket.
func (c FileClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return FileObject(filepath.Join(c.Root, bucket, filepath.FromSlash(object)))
}

// FileObject is an ObjectHandle for a local file path.
type FileObject string

// NewRangeReader opens the file and positions it at offset.
func (f FileObject) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(string(f))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("opening %s: %w", f, ErrObjectNotExist)
		}
		return nil, fmt.Errorf("opening %s: %w", f, err)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seeking to %d: %w", offset, err)
	}
	return limit(file, length), nil
}
