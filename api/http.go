package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
)

// HTTPObject is an ObjectHandle for a resource served over HTTP(S).  Ranges
// are requested with a Range header; servers that ignore it are tolerated.
type HTTPObject struct {
	URL    string
	Client *http.Client
}

// NewRangeReader issues a GET request for the requested byte range.
func (h HTTPObject) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if length == 0 {
		return ioutil.NopCloser(bytes.NewReader(nil)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if offset > 0 || length > 0 {
		req.Header.Set("Range", byteRange(offset, length))
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", h.URL, err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return limit(resp.Body, length), nil
	case http.StatusOK:
		if _, err := io.CopyN(ioutil.Discard, resp.Body, offset); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("skipping %d bytes: %w", offset, err)
		}
		return limit(resp.Body, length), nil
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return ioutil.NopCloser(bytes.NewReader(nil)), nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %w", h.URL, ErrObjectNotExist)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %s", h.URL, resp.Status)
	}
}

// byteRange formats an HTTP Range header value.  The end of an HTTP byte
// range is inclusive.
func byteRange(offset, length int64) string {
	if length < 0 {
		return fmt.Sprintf("bytes=%d-", offset)
	}
	return fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
}
