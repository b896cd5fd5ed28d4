package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	testCases := []struct {
		input string
		want  Location
	}{
		{"gs://bucket/path/to/sample.cram", GCSLocation{"bucket", "path/to/sample.cram"}},
		{"GS://bucket/sample.cram", GCSLocation{"bucket", "sample.cram"}},
		{"file:///data/sample.cram", FileLocation{"/data/sample.cram"}},
		{"file://localhost/data/sample.cram", FileLocation{"/data/sample.cram"}},
		{"/data/sample.cram", FileLocation{"/data/sample.cram"}},
		{"data/../sample.cram", FileLocation{"sample.cram"}},
		{"https://example.com/sample.cram?sig=1", HTTPLocation{"https://example.com/sample.cram?sig=1"}},
		{"http://example.com/sample.cram", HTTPLocation{"http://example.com/sample.cram"}},
	}

	for _, tc := range testCases {
		got, err := ParseLocation(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestParseLocationErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"gs://bucket",
		"gs://bucket/",
		"gs:///object",
		"drs://example.com/object",
		"s3://bucket/object",
		"file://remote/data/sample.cram",
		"https:///sample.cram",
	} {
		_, err := ParseLocation(input)
		assert.Error(t, err, input)
	}
}

func TestWithSuffix(t *testing.T) {
	testCases := []struct {
		input Location
		want  Location
	}{
		{GCSLocation{"bucket", "sample.cram"}, GCSLocation{"bucket", "sample.cram.crai"}},
		{FileLocation{"/data/sample.cram"}, FileLocation{"/data/sample.cram.crai"}},
		{HTTPLocation{"https://example.com/sample.cram?sig=1"}, HTTPLocation{"https://example.com/sample.cram.crai?sig=1"}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.input.WithSuffix(".crai"))
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "gs://bucket/sample.cram", GCSLocation{"bucket", "sample.cram"}.String())
	assert.Equal(t, "/data/sample.cram", FileLocation{"/data/sample.cram"}.String())
}

type fakeClient struct {
	objects map[string]ObjectHandle
}

func (c fakeClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return c.objects[bucket+"/"+object]
}

func TestResolve(t *testing.T) {
	object := memoryObject("data")
	client := &http.Client{}
	resolver := Resolver{
		GCS:  fakeClient{map[string]ObjectHandle{"bucket/sample.cram": object}},
		HTTP: client,
	}

	handle, err := resolver.Resolve(GCSLocation{"bucket", "sample.cram"})
	require.NoError(t, err)
	assert.Equal(t, object, handle)

	handle, err = resolver.Resolve(FileLocation{"/data/sample.cram"})
	require.NoError(t, err)
	assert.Equal(t, FileObject("/data/sample.cram"), handle)

	handle, err = resolver.Resolve(HTTPLocation{"https://example.com/sample.cram"})
	require.NoError(t, err)
	assert.Equal(t, HTTPObject{URL: "https://example.com/sample.cram", Client: client}, handle)

	_, err = Resolver{}.Resolve(GCSLocation{"bucket", "sample.cram"})
	assert.Error(t, err, "no storage client")
}
