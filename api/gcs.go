package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSClient is a Client for reading CRAM and CRAI objects from Google Cloud
// Storage.
type GCSClient struct {
	*storage.Client
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

// cachedClient lazily creates a single storage client shared by all callers.
type cachedClient struct {
	once   sync.Once
	client *storage.Client
	err    error
}

func (c *cachedClient) get(opts ...option.ClientOption) (Client, http.Header, error) {
	c.once.Do(func() {
		c.client, c.err = storage.NewClient(context.Background(), opts...)
		if c.err != nil {
			log.Printf("Creating storage client: %v", c.err)
		}
	})
	if c.err != nil {
		return nil, nil, fmt.Errorf("creating storage client: %w", c.err)
	}
	return GCSClient{c.client}, nil, nil
}

var defaultClient, publicClient cachedClient

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(_ *http.Request) (Client, http.Header, error) {
	return defaultClient.get()
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects. It caches the storage client for efficiency.
func NewPublicClient(_ *http.Request) (Client, http.Header, error) {
	return publicClient.get(option.WithHTTPClient(http.DefaultClient))
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.  It returns the
// authorization header containing the bearer token as well to allow subsequent
// requests to be authenticated correctly.
func NewClientFromBearerToken(req *http.Request) (Client, http.Header, error) {
	authorization := req.Header.Get("Authorization")

	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, nil, errMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	client, err := storage.NewClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, nil, fmt.Errorf("creating client with token source: %w", err)
	}

	return GCSClient{client}, map[string][]string{
		"Authorization": []string{authorization},
	}, nil
}

// newStorageError maps errors returned by storage clients onto the errors
// defined by the htsget protocol.
func newStorageError(context string, err error) error {
	if errors.Is(err, errMissingOrInvalidToken) {
		return newPermissionDeniedError(context, err)
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, ErrObjectNotExist) {
		return newNotFoundError("object does not exist", err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		}
	}
	return err
}
