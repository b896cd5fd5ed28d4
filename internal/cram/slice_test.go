package cram

import (
	"reflect"
	"strings"
	"testing"

	"github.com/xsamtools/xsamtools/internal/genomics"
	"github.com/xsamtools/xsamtools/internal/sam"
)

// fiveBlockIndex mirrors a file holding one container for each of five
// sequences, with the SAM header container ending at offset 1000.
var fiveBlockIndex = []Record{
	{0, 2, 100, 1000, 250, 4000},
	{1, 2, 100, 5000, 250, 4000},
	{2, 2, 100, 9000, 250, 4000},
	{3, 2, 100, 13000, 250, 4000},
	{4, 2, 100, 17000, 250, 4000},
}

func testSequenceMap(t *testing.T) *sam.SequenceMap {
	var header strings.Builder
	for _, name := range []string{"CHROMOSOME_I", "CHROMOSOME_II", "CHROMOSOME_III", "CHROMOSOME_IV", "CHROMOSOME_V"} {
		header.WriteString("@SQ\tSN:" + name + "\tLN:1000\n")
	}
	seqs, err := sam.ReadSequenceMap(strings.NewReader(header.String()))
	if err != nil {
		t.Fatalf("reading sequence map: %v", err)
	}
	return seqs
}

func plan(expr string, seqs *sam.SequenceMap, records []Record) []Range {
	return PlanRanges(SequenceIDs(genomics.ParseRegions(expr), seqs), records)
}

func TestPlanRanges(t *testing.T) {
	testCases := []struct {
		name string
		ids  []int32
		want []Range
	}{
		{
			"no sequences",
			nil,
			[]Range{{0, 1000}, {17000, EndOfFile}},
		},
		{
			"first sequence",
			[]int32{1},
			[]Range{{0, 1000}, {1000, 5000}, {17000, EndOfFile}},
		},
		{
			"last sequence is covered by the trailing range",
			[]int32{5},
			[]Range{{0, 1000}, {17000, EndOfFile}},
		},
		{
			"several sequences, unordered",
			[]int32{4, 1, 3},
			[]Range{{0, 1000}, {1000, 5000}, {9000, 13000}, {13000, 17000}, {17000, EndOfFile}},
		},
		{
			"every sequence",
			[]int32{1, 2, 3, 4, 5},
			[]Range{{0, 1000}, {1000, 5000}, {5000, 9000}, {9000, 13000}, {13000, 17000}, {17000, EndOfFile}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlanRanges(tc.ids, fiveBlockIndex)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("PlanRanges(%v): got %v, want %v", tc.ids, got, tc.want)
			}
		})
	}
}

func TestPlanRangesEmptyIndex(t *testing.T) {
	got := PlanRanges([]int32{1}, nil)
	if want := []Range{{0, EndOfFile}}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPlanRegions(t *testing.T) {
	seqs := testSequenceMap(t)

	unknown := plan("CHROMOSOME_VI", seqs, fiveBlockIndex)
	if want := []Range{{0, 1000}, {17000, EndOfFile}}; !reflect.DeepEqual(unknown, want) {
		t.Errorf("unknown sequence: got %v, want only the leading and trailing ranges %v", unknown, want)
	}

	plain := plan("CHROMOSOME_I,CHROMOSOME_III,CHROMOSOME_IV", seqs, fiveBlockIndex)
	for _, expr := range []string{
		"CHROMOSOME_I,CHROMOSOME_III:1,CHROMOSOME_IV",
		"CHROMOSOME_I,CHROMOSOME_III,CHROMOSOME_IV:10-1000",
		"CHROMOSOME_I:3-100,CHROMOSOME_VI,CHROMOSOME_III,CHROMOSOME_IV",
		"CHROMOSOME_I:,CHROMOSOME_III:x,CHROMOSOME_IV:10-5",
	} {
		if got := plan(expr, seqs, fiveBlockIndex); !reflect.DeepEqual(got, plain) {
			t.Errorf("plan(%q): got %v, want %v", expr, got, plain)
		}
	}
}

func TestSequenceIDsColonNames(t *testing.T) {
	var header strings.Builder
	for _, name := range []string{"chr6", "HLA-A*01:01:01:01", "HLA-A*01:01:01", "HLA-B*07:02"} {
		header.WriteString("@SQ\tSN:" + name + "\tLN:1000\n")
	}
	seqs, err := sam.ReadSequenceMap(strings.NewReader(header.String()))
	if err != nil {
		t.Fatalf("reading sequence map: %v", err)
	}

	testCases := []struct {
		expr string
		want []int32
	}{
		{"HLA-A*01:01:01:01", []int32{2}},
		{"HLA-A*01:01:01:01:100-200", []int32{2}},
		{"HLA-A*01:01:01", []int32{3}},
		{"HLA-B*07:02", []int32{4}},
		{"HLA-B*07:02:5", []int32{4}},
		{"chr6:", []int32{1}},
		{"HLA-C*01:02", nil},
	}

	for _, tc := range testCases {
		if got := SequenceIDs(genomics.ParseRegions(tc.expr), seqs); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SequenceIDs(%q): got %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestRange(t *testing.T) {
	closed := Range{10, 30}
	if closed.Open() || closed.Length() != 20 || closed.String() != "[10-30]" {
		t.Errorf("unexpected closed range behaviour: %v %d", closed, closed.Length())
	}
	open := Range{30, EndOfFile}
	if !open.Open() || open.String() != "[30-EOF]" {
		t.Errorf("unexpected open range behaviour: %v", open)
	}
}
