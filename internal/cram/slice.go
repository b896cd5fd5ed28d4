package cram

import (
	"fmt"
	"math"

	"github.com/xsamtools/xsamtools/internal/genomics"
	"github.com/xsamtools/xsamtools/internal/sam"
)

// EndOfFile is used as the End of a Range that extends to the end of the file.
const EndOfFile = math.MaxUint64

// Range specifies a region from Start to End (exclusive) inside a CRAM file.
type Range struct {
	Start, End uint64
}

// Open reports whether the range extends to the end of the file.
func (r Range) Open() bool {
	return r.End == EndOfFile
}

// Length returns the length of a closed Range.
func (r Range) Length() uint64 {
	return r.End - r.Start
}

// String returns a human readable description of the receiver.
func (r Range) String() string {
	if r.Open() {
		return fmt.Sprintf("[%d-EOF]", r.Start)
	}
	return fmt.Sprintf("[%d-%d]", r.Start, r.End)
}

// SequenceIDs resolves the names of regions to sequence identifiers.  The
// first of a region's candidate names found in seqs wins.  Unknown names are
// dropped; downstream viewers report nothing for them either.
func SequenceIDs(regions []genomics.Region, seqs *sam.SequenceMap) []int32 {
	var ids []int32
	for _, region := range regions {
		for _, name := range region.Names() {
			if id, ok := seqs.ID(name); ok {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

// PlanRanges walks the index once and returns the ordered ranges to fetch for
// the sequences in ids.  A range ending at a record's container is emitted
// for the first record and for every record whose sequence is wanted; the
// final range, which holds the end of file marker, is always emitted.  Ranges
// are not merged.
func PlanRanges(ids []int32, records []Record) []Range {
	wanted := make(map[int32]bool)
	for _, id := range ids {
		wanted[id] = true
	}

	var ranges []Range
	var start uint64
	for _, record := range records {
		if len(ranges) == 0 || wanted[record.SequenceID] {
			ranges = append(ranges, Range{start, record.ContainerOffset})
		}
		start = record.ContainerOffset
	}
	return append(ranges, Range{start, EndOfFile})
}
