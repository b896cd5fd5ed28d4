// Package cram provides support for locating data inside CRAM files without
// decoding their records.
//
// The format is described at http://samtools.github.io/hts-specs/CRAMv3.pdf.
// Only the file definition, the first container header and the embedded SAM
// header are read; everything else is addressed through the CRAI index.
package cram

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xsamtools/xsamtools/internal/binary"
)

// Magic holds the four bytes that begin every CRAM file.
var Magic = []byte("CRAM")

// FileDefinition is the fixed 26 byte structure at the start of a CRAM file.
type FileDefinition struct {
	Magic        [4]byte
	MajorVersion uint8
	MinorVersion uint8
	ID           [20]byte
}

// IsCRAM reports whether the definition carries the CRAM magic bytes.
func (def *FileDefinition) IsCRAM() bool {
	return bytes.Equal(def.Magic[:], Magic)
}

// ContainerHeader holds the fields that precede the blocks of a container.
type ContainerHeader struct {
	// Length is the byte length of the container minus this header.
	Length int32
	// ReferenceSequenceID is -1 for unmapped reads and -2 for containers that
	// span multiple references.
	ReferenceSequenceID int32
	StartingPosition    int32
	AlignmentSpan       int32
	NumberOfRecords     int32
	RecordCounter       int64
	Bases               int64
	NumberOfBlocks      int32
	// Landmarks are the slice offsets relative to the end of this header.
	Landmarks []int32
	// CRC is only present in CRAM 3 and later.
	CRC [4]byte
}

// ReadFileDefinition reads the 26 byte file definition from r.  The magic
// bytes are returned as found; see FileDefinition.IsCRAM.
func ReadFileDefinition(r io.Reader) (*FileDefinition, error) {
	var def FileDefinition
	if err := binary.Read(r, &def); err != nil {
		return nil, fmt.Errorf("reading file definition: %w", err)
	}
	return &def, nil
}

// ReadContainerHeader reads a container header from r.  The major version of
// the file decides the width of the record counter (ITF-8 before CRAM 3,
// LTF-8 after) and whether the trailing CRC32 is present.  On success r is
// positioned at the first block of the container.
func ReadContainerHeader(r io.Reader, majorVersion uint8) (*ContainerHeader, error) {
	var h ContainerHeader
	if err := binary.Read(r, &h.Length); err != nil {
		return nil, fmt.Errorf("reading length: %w", err)
	}

	fields := []struct {
		name string
		v    *int32
	}{
		{"reference sequence id", &h.ReferenceSequenceID},
		{"starting position", &h.StartingPosition},
		{"alignment span", &h.AlignmentSpan},
		{"number of records", &h.NumberOfRecords},
	}
	for _, f := range fields {
		v, err := ReadITF8(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.name, err)
		}
		*f.v = int32(v)
	}

	counter, err := readRecordCounter(r, majorVersion)
	if err != nil {
		return nil, fmt.Errorf("reading record counter: %w", err)
	}
	h.RecordCounter = counter

	bases, err := ReadLTF8(r)
	if err != nil {
		return nil, fmt.Errorf("reading bases: %w", err)
	}
	h.Bases = int64(bases)

	blocks, err := ReadITF8(r)
	if err != nil {
		return nil, fmt.Errorf("reading number of blocks: %w", err)
	}
	h.NumberOfBlocks = int32(blocks)

	landmarks, err := ReadITF8Array(r, -1)
	if err != nil {
		return nil, fmt.Errorf("reading landmarks: %w", err)
	}
	for _, l := range landmarks {
		h.Landmarks = append(h.Landmarks, int32(l))
	}

	if majorVersion >= 3 {
		if _, err := io.ReadFull(r, h.CRC[:]); err != nil {
			return nil, fmt.Errorf("reading CRC: %w", err)
		}
	}
	return &h, nil
}

func readRecordCounter(r io.Reader, majorVersion uint8) (int64, error) {
	if majorVersion >= 3 {
		v, err := ReadLTF8(r)
		return int64(v), err
	}
	v, err := ReadITF8(r)
	return int64(v), err
}
