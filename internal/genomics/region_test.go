package genomics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRegions(t *testing.T) {
	testCases := []struct {
		name string
		expr string
		want []Region
	}{
		{"empty", "", nil},
		{"single name", "chr1", []Region{{Name: "chr1", Text: "chr1"}}},
		{"start only", "CHROMOSOME_III:1", []Region{{Name: "CHROMOSOME_III", Start: 1, Text: "CHROMOSOME_III:1"}}},
		{"start and end", "CHROMOSOME_IV:10-1000", []Region{{Name: "CHROMOSOME_IV", Start: 10, End: 1000, Text: "CHROMOSOME_IV:10-1000"}}},
		{
			"several",
			"CHROMOSOME_I,CHROMOSOME_III:1,CHROMOSOME_IV",
			[]Region{
				{Name: "CHROMOSOME_I", Text: "CHROMOSOME_I"},
				{Name: "CHROMOSOME_III", Start: 1, Text: "CHROMOSOME_III:1"},
				{Name: "CHROMOSOME_IV", Text: "CHROMOSOME_IV"},
			},
		},
		{"blank entries", "chr1,, chr2 ,", []Region{{Name: "chr1", Text: "chr1"}, {Name: "chr2", Text: "chr2"}}},
		{"trailing colon", "chr1:", []Region{{Name: "chr1", Text: "chr1:"}}},
		{"colons in the name", "HLA-A*01:01:01:01", []Region{{Name: "HLA-A*01:01:01", Start: 1, Text: "HLA-A*01:01:01:01"}}},
		{"non-numeric range", "chr1:x", []Region{{Name: "chr1", Text: "chr1:x"}}},
		{"malformed end", "chr1:1-y", []Region{{Name: "chr1", Text: "chr1:1-y"}}},
		{"start after end", "chr1:10-5", []Region{{Name: "chr1", Text: "chr1:10-5"}}},
		{"leading colon", ":1-2", []Region{{Name: ":1-2", Text: ":1-2"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRegions(tc.expr))
		})
	}
}

func TestRegionNames(t *testing.T) {
	assert.Equal(t, []string{"chr1"}, Region{Name: "chr1"}.Names())
	assert.Equal(t, []string{"chr1"}, ParseRegion("chr1").Names())
	assert.Equal(t, []string{"chr1:", "chr1"}, ParseRegion("chr1:").Names())
	assert.Equal(t, []string{"HLA-A*01:01:01:01", "HLA-A*01:01:01"}, ParseRegion("HLA-A*01:01:01:01").Names())
}

func TestRegionString(t *testing.T) {
	assert.Equal(t, "chr1", Region{Name: "chr1"}.String())
	assert.Equal(t, "chr1:5", Region{Name: "chr1", Start: 5}.String())
	assert.Equal(t, "chr1:5-10", Region{Name: "chr1", Start: 5, End: 10}.String())
}
