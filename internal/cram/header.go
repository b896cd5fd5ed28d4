package cram

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/xsamtools/xsamtools/internal/sam"
)

var (
	// ErrHeaderMarkerNotFound is returned when neither a gzip member nor raw
	// @SQ lines appear in the SAM header search window.
	ErrHeaderMarkerNotFound = errors.New("SAM header block markers not found")

	// ErrDuplicateSequenceTag is returned when a SN or AN value is declared
	// twice in the SAM header.
	ErrDuplicateSequenceTag = sam.ErrDuplicateName

	// ErrInvalidMagic is returned when a file does not start with the CRAM
	// magic bytes.
	ErrInvalidMagic = errors.New("invalid CRAM magic")

	gzipMagic = []byte{0x1f, 0x8b}
	sqMarker  = []byte("@SQ")
)

// HeaderLocator finds the SAM header embedded in the first container of a
// CRAM file.  The header block may be stored raw or gzip compressed, which
// can only be told apart by looking for the first marker of either kind.
type HeaderLocator struct {
	// Window is the maximum number of bytes searched.
	Window int
}

// Locate reads at most locator.Window bytes from r and returns the sequence
// map of the SAM header found in them.
func (locator HeaderLocator) Locate(r io.Reader) (*sam.SequenceMap, error) {
	window, err := ioutil.ReadAll(io.LimitReader(r, int64(locator.Window)))
	if err != nil {
		return nil, fmt.Errorf("reading header window: %w", err)
	}

	header, compressed, err := findHeader(window)
	if err != nil {
		return nil, err
	}

	text := io.Reader(bytes.NewReader(header))
	if compressed {
		gz, err := gzip.NewReader(text)
		if err != nil {
			return nil, fmt.Errorf("reading gzipped header: %w", err)
		}
		// Without this, the gzip reader may read past the end of the header archive.
		gz.Multistream(false)
		text = gz
	}

	seqs, err := sam.ReadSequenceMap(text)
	if err != nil {
		return nil, fmt.Errorf("reading sequence names: %w", err)
	}
	return seqs, nil
}

// LocateSAMHeader is shorthand for HeaderLocator{Window: window}.Locate(r).
func LocateSAMHeader(r io.Reader, window int) (*sam.SequenceMap, error) {
	return HeaderLocator{Window: window}.Locate(r)
}

// findHeader returns the suffix of window that starts at the earliest header
// marker and whether that marker was the gzip magic.
func findHeader(window []byte) ([]byte, bool, error) {
	gz := bytes.Index(window, gzipMagic)
	raw := bytes.Index(window, sqMarker)
	switch {
	case gz >= 0 && (raw < 0 || gz < raw):
		return window[gz:], true, nil
	case raw >= 0:
		return window[raw:], false, nil
	}
	return nil, false, ErrHeaderMarkerNotFound
}

// SeqMapError is returned when the number of sequences declared in the SAM
// header does not match the number of sequences referenced by the index.  It
// means the header was not located correctly and any slice would be wrong.
type SeqMapError struct {
	Declared, Indexed int
}

func (err *SeqMapError) Error() string {
	return fmt.Sprintf("SAM header declares %d sequences but the index references %d", err.Declared, err.Indexed)
}

// ReadSequenceMap reads the start of a CRAM file from r and returns the map
// of its sequence names.  The header is searched for up to the offset of the
// first indexed container.
func ReadSequenceMap(r io.Reader, records []Record) (*sam.SequenceMap, error) {
	if len(records) == 0 {
		return nil, errors.New("empty index")
	}
	limit := int64(records[0].ContainerOffset)

	counter := &countingReader{r: io.LimitReader(r, limit)}
	def, err := ReadFileDefinition(counter)
	if err != nil {
		return nil, err
	}
	if !def.IsCRAM() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, def.Magic[:])
	}
	if _, err := ReadContainerHeader(counter, def.MajorVersion); err != nil {
		return nil, fmt.Errorf("reading container header: %w", err)
	}

	seqs, err := LocateSAMHeader(counter, int(limit-counter.n))
	if err != nil {
		return nil, fmt.Errorf("locating SAM header: %w", err)
	}

	if indexed := countSequences(records); seqs.Len() != indexed {
		return nil, &SeqMapError{Declared: seqs.Len(), Indexed: indexed}
	}
	return seqs, nil
}

func countSequences(records []Record) int {
	seen := make(map[int32]bool)
	for _, r := range records {
		if r.SequenceID >= 0 {
			seen[r.SequenceID] = true
		}
	}
	return len(seen)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
