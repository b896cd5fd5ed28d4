package cram

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is a single line of a CRAM index file (.crai), describing one slice.
type Record struct {
	SequenceID     int32
	AlignmentStart int64
	AlignmentSpan  int64
	// ContainerOffset is the absolute file offset of the slice's container.
	ContainerOffset uint64
	// SliceOffset is relative to the end of the container header.
	SliceOffset uint64
	SliceSize   uint64
}

// ReadIndex parses a gzip compressed CRAM index.  Records are returned in file
// order, which is also container offset order; they are neither sorted nor
// validated.
func ReadIndex(r io.Reader) ([]Record, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ungzipping index: %w", err)
	}
	defer gz.Close()

	var records []Record
	scanner := bufio.NewScanner(gz)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 6 {
			return nil, fmt.Errorf("line %d: wrong number of columns.  Got: %d, want: 6", line, len(fields))
		}

		record, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return records, nil
}

func parseRecord(fields []string) (Record, error) {
	var record Record

	id, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return record, fmt.Errorf("parsing sequence ID: %w", err)
	}
	record.SequenceID = int32(id)

	if record.AlignmentStart, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return record, fmt.Errorf("parsing alignment start: %w", err)
	}
	if record.AlignmentSpan, err = strconv.ParseInt(fields[2], 10, 64); err != nil {
		return record, fmt.Errorf("parsing alignment span: %w", err)
	}
	if record.ContainerOffset, err = strconv.ParseUint(fields[3], 10, 64); err != nil {
		return record, fmt.Errorf("parsing container offset: %w", err)
	}
	if record.SliceOffset, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
		return record, fmt.Errorf("parsing slice offset: %w", err)
	}
	if record.SliceSize, err = strconv.ParseUint(fields[5], 10, 64); err != nil {
		return record, fmt.Errorf("parsing slice size: %w", err)
	}
	return record, nil
}
