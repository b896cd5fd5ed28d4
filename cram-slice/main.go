// This binary downloads the parts of a CRAM file that hold a set of
// sequences.  Bytes belonging to other sequences are left as zeros, so the
// output keeps the byte layout of the source file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/profile"

	"github.com/xsamtools/xsamtools/api"
)

var (
	cramPath   = flag.String("cram", "", "CRAM location (gs://, http(s)://, file:// or a local path)")
	craiPath   = flag.String("crai", "", "CRAI location; without one the whole CRAM is downloaded")
	regions    = flag.String("regions", "", "comma-separated list of regions, for example chr1,chr2:100-200")
	output     = flag.String("output", "", "local output file (default: a timestamped name in the working directory)")
	parallel   = flag.Bool("parallel", false, "fetch ranges concurrently")
	slicing    = flag.Bool("slicing", true, "download only the ranges covering the regions")
	anonymous  = flag.Bool("anonymous", false, "read GCS objects without credentials")
	stagingDir = flag.String("staging_dir", "", "directory for temporary files (default: system temporary directory)")
	profileDir = flag.String("profile", "", "if set, write a CPU profile to this directory")
)

func main() {
	flag.Parse()

	var p interface{ Stop() }
	if *profileDir != "" {
		p = profile.Start(profile.CPUProfile, profile.ProfilePath(*profileDir), profile.NoShutdownHook)
	}
	path, err := run(context.Background())
	if p != nil {
		p.Stop()
	}
	if err != nil {
		log.Fatalf("Failed to slice CRAM: %v", err)
	}
	log.Printf("Output CRAM successfully generated at: %s", path)
}

func run(ctx context.Context) (string, error) {
	if *cramPath == "" {
		return "", errors.New("no CRAM specified (use -cram)")
	}

	dest, err := outputPath(*output, time.Now())
	if err != nil {
		return "", err
	}

	data, err := api.ParseLocation(*cramPath)
	if err != nil {
		return "", fmt.Errorf("parsing -cram: %w", err)
	}
	var index api.Location
	if *craiPath != "" {
		if index, err = api.ParseLocation(*craiPath); err != nil {
			return "", fmt.Errorf("parsing -crai: %w", err)
		}
	} else {
		log.Printf("No crai file specified, the whole CRAM will be downloaded")
	}

	resolver, err := newResolver(data, index)
	if err != nil {
		return "", err
	}
	dataHandle, err := resolver.Resolve(data)
	if err != nil {
		return "", err
	}
	var indexHandle api.ObjectHandle
	if index != nil {
		if indexHandle, err = resolver.Resolve(index); err != nil {
			return "", err
		}
	}

	expr := *regions
	if index == nil || !*slicing {
		expr = ""
	}

	staging, err := api.NewStaging(*stagingDir)
	if err != nil {
		return "", err
	}
	defer staging.Close()

	staged := staging.Path(".cram")
	opts := api.FetchOptions{Parallel: *parallel}
	if err := api.SliceCRAM(ctx, dataHandle, indexHandle, expr, staged, opts); err != nil {
		return "", err
	}
	if err := api.Keep(staged, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// newResolver only creates a GCS client when one of the locations needs it.
func newResolver(locations ...api.Location) (api.Resolver, error) {
	var resolver api.Resolver
	for _, loc := range locations {
		if _, ok := loc.(api.GCSLocation); !ok {
			continue
		}
		newClient := api.NewDefaultClient
		if *anonymous {
			newClient = api.NewPublicClient
		}
		client, _, err := newClient(nil)
		if err != nil {
			return resolver, err
		}
		resolver.GCS = client
		break
	}
	return resolver, nil
}

// outputPath returns the local file the result is written to.  Only local
// outputs are supported.
func outputPath(output string, now time.Time) (string, error) {
	if output == "" {
		output = now.Format("2006-01-02-150405") + ".output.cram"
	}
	output = strings.TrimPrefix(output, "file://")
	if strings.Contains(output, "://") {
		return "", fmt.Errorf("unsupported output %q: only local files are supported", output)
	}
	return filepath.Abs(output)
}
