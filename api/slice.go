package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/xsamtools/xsamtools/internal/cram"
	"github.com/xsamtools/xsamtools/internal/genomics"
)

var errEmptyIndex = errors.New("index has no records")

// PlanSlice reads the CRAI index and the CRAM header and returns the byte
// ranges of data needed to serve regions.
func PlanSlice(ctx context.Context, data, index ObjectHandle, regions []genomics.Region) ([]cram.Range, error) {
	records, err := readIndex(ctx, index)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errEmptyIndex
	}

	header, err := data.NewRangeReader(ctx, 0, int64(records[0].ContainerOffset))
	if err != nil {
		return nil, fmt.Errorf("opening header: %w", err)
	}
	defer header.Close()

	seqs, err := cram.ReadSequenceMap(header, records)
	if err != nil {
		return nil, fmt.Errorf("reading sequence map: %w", err)
	}
	return cram.PlanRanges(cram.SequenceIDs(regions, seqs), records), nil
}

func readIndex(ctx context.Context, index ObjectHandle) ([]cram.Record, error) {
	if index == nil {
		return nil, errors.New("no index available")
	}
	rc, err := index.NewRangeReader(ctx, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer rc.Close()

	records, err := cram.ReadIndex(rc)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return records, nil
}

// SliceCRAM writes the parts of data that cover the sequences named by the
// region expression to path.  An empty expression fetches the whole object,
// in which case index may be nil.  The output is removed on failure.
func SliceCRAM(ctx context.Context, data, index ObjectHandle, regions string, path string, opts FetchOptions) error {
	parsed := genomics.ParseRegions(regions)

	ranges := []cram.Range{{Start: 0, End: cram.EndOfFile}}
	if len(parsed) > 0 {
		var err error
		if ranges, err = PlanSlice(ctx, data, index, parsed); err != nil {
			return err
		}
	}

	if err := Fetch(ctx, data, ranges, path, opts); err != nil {
		os.Remove(path)
		return err
	}
	log.Printf("Fetched %d ranges for %d regions into %s", len(ranges), len(parsed), path)
	return nil
}
