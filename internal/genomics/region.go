// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"fmt"
	"strconv"
	"strings"
)

// Region defines a region of genomic interest.
type Region struct {
	// Name is the reference sequence name.
	Name string
	// Start and End specify the range (in base pairs) relative to the
	// reference.  If End is zero, it is treated as though it was set to the last
	// possible read position.
	Start, End uint64
	// Text is the region as it was written, if it was parsed.
	Text string
}

func (region Region) String() string {
	switch {
	case region.Start == 0 && region.End == 0:
		return region.Name
	case region.End == 0:
		return fmt.Sprintf("%s:%d", region.Name, region.Start)
	}
	return fmt.Sprintf("%s:%d-%d", region.Name, region.Start, region.End)
}

// Names returns the sequence names the region may refer to, most specific
// first.  Sequence names may themselves contain ':' (HLA-A*01:01:01:01), so
// the text as written is tried before the name split from it.
func (region Region) Names() []string {
	if region.Text != "" && region.Text != region.Name {
		return []string{region.Text, region.Name}
	}
	return []string{region.Name}
}

// ParseRegions parses a comma separated list of regions of the form
// name[:start[-end]].  Empty entries are skipped.
func ParseRegions(expr string) []Region {
	var regions []Region
	for _, field := range strings.Split(expr, ",") {
		if field = strings.TrimSpace(field); field != "" {
			regions = append(regions, ParseRegion(field))
		}
	}
	return regions
}

// ParseRegion splits text at its last ':' into a name and a range.  Parsing
// never fails: a suffix that is not a valid start[-end] range leaves Start
// and End zero, and text without a usable name is taken as a name whole.
func ParseRegion(text string) Region {
	region := Region{Name: text, Text: text}
	i := strings.LastIndex(text, ":")
	if i <= 0 {
		return region
	}
	region.Name = text[:i]
	region.Start, region.End = parseBounds(text[i+1:])
	return region
}

func parseBounds(s string) (uint64, uint64) {
	bounds := strings.SplitN(s, "-", 2)
	start, err := strconv.ParseUint(bounds[0], 10, 64)
	if err != nil {
		return 0, 0
	}
	if len(bounds) == 1 {
		return start, 0
	}
	end, err := strconv.ParseUint(bounds[1], 10, 64)
	if err != nil || end < start {
		return 0, 0
	}
	return start, end
}
