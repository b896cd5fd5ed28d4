package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

// Location identifies an object that can be read by byte range.  It is one of
// GCSLocation, FileLocation or HTTPLocation.
type Location interface {
	fmt.Stringer

	// WithSuffix returns the location of the sibling object whose name is
	// the receiver's name followed by suffix.
	WithSuffix(suffix string) Location
}

// GCSLocation is an object in a Google Cloud Storage bucket.
type GCSLocation struct {
	Bucket, Object string
}

func (l GCSLocation) String() string {
	return "gs://" + l.Bucket + "/" + l.Object
}

// WithSuffix implements Location.
func (l GCSLocation) WithSuffix(suffix string) Location {
	return GCSLocation{l.Bucket, l.Object + suffix}
}

// FileLocation is a path on the local file system.
type FileLocation struct {
	Path string
}

func (l FileLocation) String() string {
	return l.Path
}

// WithSuffix implements Location.
func (l FileLocation) WithSuffix(suffix string) Location {
	return FileLocation{l.Path + suffix}
}

// HTTPLocation is a resource served over HTTP or HTTPS.
type HTTPLocation struct {
	URL string
}

func (l HTTPLocation) String() string {
	return l.URL
}

// WithSuffix implements Location.  The suffix is added to the path so that
// any query string is preserved.
func (l HTTPLocation) WithSuffix(suffix string) Location {
	u, err := url.Parse(l.URL)
	if err != nil {
		return HTTPLocation{l.URL + suffix}
	}
	u.Path += suffix
	u.RawPath = ""
	return HTTPLocation{u.String()}
}

var errEmptyLocation = errors.New("empty location")

// ParseLocation classifies s as a GCS, HTTP(S) or local file location.  A
// string without a scheme is a local path.
func ParseLocation(s string) (Location, error) {
	if s == "" {
		return nil, errEmptyLocation
	}

	i := strings.Index(s, "://")
	if i < 0 {
		return FileLocation{filepath.Clean(s)}, nil
	}

	switch scheme := strings.ToLower(s[:i]); scheme {
	case "gs":
		parts := strings.SplitN(s[i+3:], "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid GCS location %q: want gs://bucket/object", s)
		}
		return GCSLocation{parts[0], parts[1]}, nil
	case "file":
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return nil, fmt.Errorf("invalid file location %q: remote hosts are not supported", s)
		}
		if u.Path == "" {
			return nil, fmt.Errorf("invalid file location %q: %w", s, errEmptyLocation)
		}
		return FileLocation{filepath.FromSlash(u.Path)}, nil
	case "http", "https":
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid URL %q: missing host", s)
		}
		return HTTPLocation{s}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q in %q", scheme, s)
	}
}

// Resolver opens Locations.  GCS is only needed for GCSLocations; a nil HTTP
// client means http.DefaultClient.
type Resolver struct {
	GCS  Client
	HTTP *http.Client
}

// Resolve returns a handle for reading loc.
func (r Resolver) Resolve(loc Location) (ObjectHandle, error) {
	switch l := loc.(type) {
	case GCSLocation:
		if r.GCS == nil {
			return nil, fmt.Errorf("resolving %s: no storage client configured", l)
		}
		return r.GCS.NewObjectHandle(l.Bucket, l.Object), nil
	case FileLocation:
		return FileObject(l.Path), nil
	case HTTPLocation:
		return HTTPObject{URL: l.URL, Client: r.HTTP}, nil
	default:
		return nil, fmt.Errorf("unsupported location type %T", loc)
	}
}
