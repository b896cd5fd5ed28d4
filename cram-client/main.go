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

// This binary requests a ticket from a CRAM ticket server and concatenates
// the ranges it lists.  Tickets cover whole containers, so the result is a
// CRAM file holding only the requested sequences.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	scope = "https://www.googleapis.com/auth/devstorage.read_only"
)

var (
	regions   = flag.String("regions", "", "comma-separated list of regions")
	output    = flag.String("o", "", "output filename")
	anonymous = flag.Bool("anonymous", false, "send requests without Google credentials")
)

type ticket struct {
	Container struct {
		Format string `json:"format"`
		URLs   []struct {
			URL     string            `json:"url"`
			Headers map[string]string `json:"headers"`
		} `json:"urls"`
	} `json:"htsget"`
}

func main() {
	flag.Parse()

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to open output file: %v", err)
		}
		defer f.Close()

		w = f
	}

	ctx := context.Background()

	// For compatibility with other tools, read the standard cURL certificate
	// authority override from the environment.
	if bundle := os.Getenv("CURL_CA_BUNDLE"); bundle != "" {
		pem, err := ioutil.ReadFile(bundle)
		if err != nil {
			log.Fatalf("Failed to read CA override file %q: %v", bundle, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			log.Fatalf("Failed to initialize system certificate pool: %v", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			log.Fatalf("Failed to add certificates from bundle %q", bundle)
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: pool,
				}},
		})
		log.Printf("Using CA override bundle from %q", bundle)
	}

	client := http.DefaultClient
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		client = c
	}
	if !*anonymous {
		var err error
		if client, err = google.DefaultClient(ctx, scope); err != nil {
			log.Fatalf("Failed to create client: %v", err)
		}
	}

	for _, target := range flag.Args() {
		if *regions != "" {
			target = addParameter(target, "regions", *regions)
		}
		log.Printf("Fetching %q", target)

		t, err := fetchTicket(ctx, client, target)
		if err != nil {
			log.Fatalf("Failed to fetch ticket: %v", err)
		}
		log.Printf("Received %s ticket with %d URLs", t.Container.Format, len(t.Container.URLs))

		n, err := writeBlobs(ctx, client, t, w)
		if err != nil {
			log.Fatalf("Failed to copy data: %v", err)
		}
		log.Printf("Wrote %s", humanSize(n))
	}
}

func addParameter(input, name, value string) string {
	values := url.Values{}
	values.Set(name, value)
	if strings.Contains(input, "?") {
		return input + "&" + values.Encode()
	}
	return input + "?" + values.Encode()
}

func humanSize(n int64) string {
	kb := n / 1024
	mb := kb / 1024
	gb := mb / 1024
	if gb > 1 {
		return fmt.Sprintf("%d GB", gb)
	}
	if mb > 1 {
		return fmt.Sprintf("%d MB", mb)
	}
	if kb > 1 {
		return fmt.Sprintf("%d KB", kb)
	}
	return fmt.Sprintf("%d bytes", n)
}

func fetchTicket(ctx context.Context, client *http.Client, target string) (*ticket, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var t ticket
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding ticket: %w", err)
	}
	return &t, nil
}

// writeBlobs copies the data behind every URL of t to w in order.
func writeBlobs(ctx context.Context, client *http.Client, t *ticket, w io.Writer) (int64, error) {
	var total int64
	for i, blob := range t.Container.URLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, blob.URL, nil)
		if err != nil {
			return total, fmt.Errorf("blob %d: creating request: %w", i, err)
		}
		for name, value := range blob.Headers {
			req.Header.Set(name, value)
		}

		resp, err := client.Do(req)
		if err != nil {
			return total, fmt.Errorf("blob %d: fetching data: %w", i, err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
			resp.Body.Close()
			return total, fmt.Errorf("blob %d: unexpected response status: %q", i, resp.Status)
		}

		n, err := io.Copy(w, resp.Body)
		resp.Body.Close()
		total += n
		if err != nil {
			return total, fmt.Errorf("blob %d: copying data: %w", i, err)
		}
	}
	return total, nil
}

func errorFromResponse(resp *http.Response) error {
	var v struct {
		Htsget struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"htsget"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err == nil && v.Htsget.Message != "" {
		return fmt.Errorf("%s: %s", v.Htsget.Error, v.Htsget.Message)
	}
	return fmt.Errorf("unexpected response status: %q", resp.Status)
}
