// Package cramtest builds small, structurally valid CRAM files and their
// indexes for tests.  Record data is opaque filler; only the file layout is
// meaningful.
package cramtest

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/xsamtools/xsamtools/internal/cram"
)

// eofContainer is the CRAM 3 end of file marker container.
var eofContainer = []byte{
	0x0f, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0x0f, 0xe0, 0x45, 0x4f, 0x46, 0x00, 0x00, 0x00,
	0x00, 0x01, 0x00, 0x05, 0xbd, 0xd9, 0x4f, 0x00, 0x01, 0x00, 0x06, 0x06, 0x01, 0x00, 0x01, 0x00,
	0x01, 0x00, 0xee, 0x63, 0x01, 0x4b,
}

// Options controls the layout of a generated file.
type Options struct {
	MajorVersion uint8
	// Compressed stores the SAM header block gzip compressed.
	Compressed bool
	// Sequences are declared in the SAM header in order; each one gets a
	// single data container.
	Sequences []string
}

// File is a generated CRAM file.
type File struct {
	Data []byte
	// Index is the gzip compressed CRAI.
	Index   []byte
	Records []cram.Record
	// Header covers the file definition and the SAM header container.
	Header cram.Range
	// Containers holds the span of the data container of each sequence.
	Containers []cram.Range
	// EOF covers the end of file marker container.
	EOF cram.Range
}

// New generates a CRAM file laid out according to opts.
func New(opts Options) (*File, error) {
	var data bytes.Buffer
	data.WriteString("CRAM")
	data.WriteByte(opts.MajorVersion)
	data.WriteByte(0)
	id := [20]byte{'-'}
	data.Write(id[:])

	header, err := headerContainer(opts)
	if err != nil {
		return nil, fmt.Errorf("building header container: %v", err)
	}
	data.Write(header)

	f := &File{Header: cram.Range{Start: 0, End: uint64(data.Len())}}

	var index bytes.Buffer
	for i := range opts.Sequences {
		payload := bytes.Repeat([]byte{byte('a' + i)}, 50+10*i)
		h, err := EncodeContainerHeader(&cram.ContainerHeader{
			Length:              int32(len(payload)),
			ReferenceSequenceID: int32(i),
			StartingPosition:    1,
			AlignmentSpan:       100,
			NumberOfRecords:     1,
			RecordCounter:       int64(i),
			Bases:               100,
			NumberOfBlocks:      1,
			Landmarks:           []int32{0},
		}, opts.MajorVersion)
		if err != nil {
			return nil, fmt.Errorf("building container %d: %v", i, err)
		}

		record := cram.Record{
			SequenceID:      int32(i),
			AlignmentStart:  1,
			AlignmentSpan:   100,
			ContainerOffset: uint64(data.Len()),
			SliceOffset:     uint64(len(h)),
			SliceSize:       uint64(len(payload)),
		}
		f.Records = append(f.Records, record)
		fmt.Fprintf(&index, "%d\t%d\t%d\t%d\t%d\t%d\n", record.SequenceID, record.AlignmentStart,
			record.AlignmentSpan, record.ContainerOffset, record.SliceOffset, record.SliceSize)

		data.Write(h)
		data.Write(payload)
		f.Containers = append(f.Containers, cram.Range{Start: record.ContainerOffset, End: uint64(data.Len())})
	}

	f.EOF = cram.Range{Start: uint64(data.Len()), End: uint64(data.Len() + len(eofContainer))}
	data.Write(eofContainer)

	f.Data = data.Bytes()
	if f.Index, err = Compress(index.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing index: %v", err)
	}
	return f, nil
}

// SAMHeader returns the SAM header text declaring names.
func SAMHeader(names []string) string {
	var text bytes.Buffer
	text.WriteString("@HD\tVN:1.0\tSO:coordinate\n")
	for i, name := range names {
		fmt.Fprintf(&text, "@SQ\tSN:%s\tLN:%d\n", name, 1000*(i+1))
	}
	text.WriteString("@PG\tID:cramtest\tPN:cramtest\n")
	return text.String()
}

func headerContainer(opts Options) ([]byte, error) {
	text := SAMHeader(opts.Sequences)
	content := make([]byte, 4, 4+len(text))
	binary.LittleEndian.PutUint32(content, uint32(len(text)))
	content = append(content, text...)

	rawSize := len(content)
	method := byte(0)
	if opts.Compressed {
		gz, err := Compress(content)
		if err != nil {
			return nil, err
		}
		content = gz
		method = 1
	}

	// Block header: method, content type (FILE_HEADER), content id, sizes.
	block := []byte{method, 0, 0}
	for _, n := range []int{len(content), rawSize} {
		v, err := cram.EncodeITF8(uint64(n))
		if err != nil {
			return nil, err
		}
		block = append(block, v...)
	}
	block = append(block, content...)
	if opts.MajorVersion >= 3 {
		block = appendCRC(block, block)
	}
	// Writers leave room for the header to grow.
	block = append(block, make([]byte, 64)...)

	h, err := EncodeContainerHeader(&cram.ContainerHeader{
		Length:         int32(len(block)),
		NumberOfBlocks: 1,
		Landmarks:      []int32{0},
	}, opts.MajorVersion)
	if err != nil {
		return nil, err
	}
	return append(h, block...), nil
}

// EncodeContainerHeader encodes h.  For major versions 3 and later the record
// counter is LTF-8 and a CRC32 of the preceding header bytes is appended;
// earlier versions use ITF-8 for the counter.
func EncodeContainerHeader(h *cram.ContainerHeader, majorVersion uint8) ([]byte, error) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(h.Length))

	itf8 := []uint32{
		uint32(h.ReferenceSequenceID),
		uint32(h.StartingPosition),
		uint32(h.AlignmentSpan),
		uint32(h.NumberOfRecords),
	}
	for _, v := range itf8 {
		encoded, err := cram.EncodeITF8(uint64(v))
		if err != nil {
			return nil, err
		}
		b = append(b, encoded...)
	}
	if majorVersion >= 3 {
		b = append(b, cram.EncodeLTF8(uint64(h.RecordCounter))...)
	} else {
		counter, err := cram.EncodeITF8(uint64(h.RecordCounter))
		if err != nil {
			return nil, err
		}
		b = append(b, counter...)
	}
	b = append(b, cram.EncodeLTF8(uint64(h.Bases))...)

	tail := []uint32{uint32(h.NumberOfBlocks), uint32(len(h.Landmarks))}
	for _, l := range h.Landmarks {
		tail = append(tail, uint32(l))
	}
	for _, v := range tail {
		encoded, err := cram.EncodeITF8(uint64(v))
		if err != nil {
			return nil, err
		}
		b = append(b, encoded...)
	}

	if majorVersion >= 3 {
		b = appendCRC(b, b)
	}
	return b, nil
}

// Compress returns data as a single gzip member.
func Compress(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	w := gzip.NewWriter(&buffer)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func appendCRC(dst, data []byte) []byte {
	var crc [4]byte
	binary.LittleEndian.PutUint32(crc[:], crc32.ChecksumIEEE(data))
	return append(dst, crc[:]...)
}
