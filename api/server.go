// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api slices CRAM files held in cloud or local storage.
//
// It resolves object locations, plans the byte ranges covering a set of
// sequences with the help of the CRAI index, and either fetches those ranges
// into a local file or hands them out as an htsget style ticket.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xsamtools/xsamtools/internal/binary"
	"github.com/xsamtools/xsamtools/internal/cram"
	"github.com/xsamtools/xsamtools/internal/genomics"
)

const (
	readsPath = "/reads/:bucket/*object"

	// DefaultStorageEndpoint serves GCS objects by path.
	DefaultStorageEndpoint = "https://storage.googleapis.com"
)

var (
	errInvalidOrUnspecifiedID = errors.New("invalid or unspecified ID")
	errMissingReferenceName   = errors.New("no reference name specified")
	errMissingOrInvalidToken  = errors.New("missing or invalid token")
)

// NewStorageClientFunc is the type of function that constructs the appropriate
// storage.Client to satisfy the incoming request. Any headers that caused this
// particular client to be created are returned so that they can be forwarded
// with every URL of the ticket.
type NewStorageClientFunc func(*http.Request) (Client, http.Header, error)

// Server hands out tickets listing the byte ranges of a CRAM object that hold
// the requested sequences.  Must be created with NewServer.
type Server struct {
	newStorageClient NewStorageClientFunc
	endpoint         string
	whitelist        map[string]bool
}

// NewServer returns a new Server that calls newStorageClient on each request
// to determine which storage client to use.
func NewServer(newStorageClient NewStorageClientFunc) *Server {
	return &Server{newStorageClient, DefaultStorageEndpoint, make(map[string]bool)}
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// access. If Whitelist is never called for a given Server then reads from any
// bucket are allowed.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// UseEndpoint sets the base URL used to build the data URLs of tickets.
func (server *Server) UseEndpoint(endpoint string) {
	server.endpoint = strings.TrimSuffix(endpoint, "/")
}

// Export registers the ticket endpoint with router.
func (server *Server) Export(router gin.IRoutes) {
	router.GET(readsPath, forwardOrigin, server.serveReads)
}

type ticket struct {
	Htsget struct {
		Format string      `json:"format"`
		URLs   []ticketURL `json:"urls"`
	} `json:"htsget"`
}

type ticketURL struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (server *Server) serveReads(c *gin.Context) {
	ctx := c.Request.Context()

	if err := parseFormat(c.Query("format")); err != nil {
		writeError(c, newUnsupportedFormatError(err))
		return
	}

	bucket, object, err := parseID(c.Param("bucket"), c.Param("object"))
	if err != nil {
		writeError(c, newInvalidInputError("parsing readset ID", err))
		return
	}

	if err := server.checkWhitelist(bucket); err != nil {
		writeError(c, newPermissionDeniedError("checking whitelist", err))
		return
	}

	regions, err := parseRegions(c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}

	gcs, headers, err := server.newStorageClient(c.Request)
	if err != nil {
		writeError(c, newStorageError("creating client", err))
		return
	}

	data := gcs.NewObjectHandle(bucket, object)
	ranges := []cram.Range{{Start: 0, End: cram.EndOfFile}}
	if len(regions) > 0 {
		index := gcs.NewObjectHandle(bucket, object+".crai")
		if ranges, err = PlanSlice(ctx, data, index, regions); err != nil {
			writeError(c, newPlanningError(err))
			return
		}
	} else if err := checkMagic(c, data); err != nil {
		writeError(c, err)
		return
	}

	var t ticket
	t.Htsget.Format = "CRAM"
	base := server.objectURL(bucket, object)
	for _, r := range ranges {
		if !r.Open() && r.Length() == 0 {
			continue
		}
		length := int64(-1)
		if !r.Open() {
			length = int64(r.Length())
		}

		// The htsget specification does not support multiple values for a
		// single header.
		flattened := map[string]string{"Range": byteRange(int64(r.Start), length)}
		for k, v := range headers {
			flattened[k] = v[0]
		}
		t.Htsget.URLs = append(t.Htsget.URLs, ticketURL{URL: base, Headers: flattened})
	}

	writeJSON(c, http.StatusOK, &t)
}

func checkMagic(c *gin.Context, data ObjectHandle) error {
	rc, err := data.NewRangeReader(c.Request.Context(), 0, int64(len(cram.Magic)))
	if err != nil {
		return newStorageError("opening data", err)
	}
	defer rc.Close()

	if err := binary.ExpectBytes(rc, cram.Magic); err != nil {
		return newInvalidInputError("checking CRAM magic", err)
	}
	return nil
}

// newPlanningError reports a CRAM or index that cannot be sliced as invalid
// input.  Anything else is treated as a storage failure.
func newPlanningError(err error) error {
	var mismatch *cram.SeqMapError
	if errors.Is(err, cram.ErrInvalidMagic) || errors.Is(err, cram.ErrHeaderMarkerNotFound) ||
		errors.Is(err, cram.ErrDuplicateSequenceTag) || errors.As(err, &mismatch) {
		return newInvalidInputError("reading CRAM header", err)
	}
	return newStorageError("planning ranges", err)
}

func (server *Server) objectURL(bucket, object string) string {
	u, err := url.Parse(server.endpoint)
	if err != nil {
		u = &url.URL{Scheme: "https", Host: "storage.googleapis.com"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + bucket + "/" + object
	return u.String()
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", bucket)
}

// parseID returns the GCS bucket and object named by the route parameters.
// The object parameter of a wildcard route keeps its leading slash.
func parseID(bucket, object string) (string, string, error) {
	object = strings.TrimPrefix(object, "/")
	if bucket == "" || object == "" {
		return "", "", errInvalidOrUnspecifiedID
	}
	return bucket, object, nil
}

func parseFormat(format string) error {
	if format != "" && format != "CRAM" {
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// parseRegions collects the regions named by the regions parameter and the
// htsget referenceName, start and end parameters.
func parseRegions(query url.Values) ([]genomics.Region, error) {
	regions := genomics.ParseRegions(query.Get("regions"))

	var (
		name  = query.Get("referenceName")
		start = query.Get("start")
		end   = query.Get("end")
	)
	if name == "" && start == "" && end == "" {
		return regions, nil
	}
	if name == "" {
		return nil, newInvalidInputError("parsing region", errMissingReferenceName)
	}

	region := genomics.Region{Name: name}
	if start != "" {
		n, err := strconv.ParseUint(start, 10, 64)
		if err != nil {
			return nil, newInvalidInputError("parsing start", err)
		}
		region.Start = n
	}
	if end != "" {
		n, err := strconv.ParseUint(end, 10, 64)
		if err != nil {
			return nil, newInvalidInputError("parsing end", err)
		}
		region.End = n
	}
	if region.End > 0 && region.Start > region.End {
		return nil, newInvalidRangeError(fmt.Errorf("%s: start > end", region))
	}
	return append(regions, region), nil
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newAPIError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(err error) error {
	return &apiError{"InvalidRange", http.StatusBadRequest, err}
}

func newPermissionDeniedError(context string, err error) error {
	return newAPIError("PermissionDenied", http.StatusForbidden, context, err)
}

func newUnsupportedFormatError(err error) error {
	return &apiError{"UnsupportedFormat", http.StatusBadRequest, err}
}

func newNotFoundError(context string, err error) error {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

// writeError writes either a JSON object or bare HTTP error describing err.
// A JSON object is written only when the error has a name and code defined
// by the htsget specification.
func writeError(c *gin.Context, err error) {
	var aerr *apiError
	if errors.As(err, &aerr) {
		writeJSON(c, aerr.code, map[string]interface{}{
			"htsget": map[string]interface{}{
				"error":   aerr.name,
				"message": fmt.Sprintf("%s: %v", http.StatusText(aerr.code), aerr.cause),
			}})
		return
	}

	code := http.StatusInternalServerError
	c.String(code, "%s: %v", http.StatusText(code), err)
}

func writeJSON(c *gin.Context, code int, v interface{}) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	enc := json.NewEncoder(c.Writer)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}
