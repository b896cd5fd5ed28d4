// Package sam provides support for reading the sequence dictionary of a SAM
// header.
package sam

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrDuplicateName is returned when the same sequence name or alternative
// name is declared by more than one @SQ line.
var ErrDuplicateName = errors.New("duplicate sequence name")

// SequenceMap maps the names declared by @SQ header lines to 1-based sequence
// identifiers, assigned in declaration order.
type SequenceMap struct {
	ids   map[string]int32
	count int32
}

// ID returns the identifier of the named sequence.
func (m *SequenceMap) ID(name string) (int32, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Len returns the number of @SQ lines that were read.
func (m *SequenceMap) Len() int {
	return int(m.count)
}

// Names returns every known name ordered by identifier.
func (m *SequenceMap) Names() []string {
	names := make([]string, 0, len(m.ids))
	for name := range m.ids {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if a, b := m.ids[names[i]], m.ids[names[j]]; a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}

// ReadSequenceMap reads SAM header text from r and returns the names of every
// @SQ line.  Both the SN tag and the comma separated AN tag values map to the
// line's identifier.  Input that ends abruptly, mid-line or mid-stream, ends
// the scan without an error.
func ReadSequenceMap(r io.Reader) (*SequenceMap, error) {
	m := &SequenceMap{ids: make(map[string]int32)}

	// @SQ	SN:foo	LN:5	AN:bar,baz ...
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			if err := m.add(bytes.TrimRight(line, "\r\n")); err != nil {
				return nil, err
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return m, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
}

func (m *SequenceMap) add(line []byte) error {
	fields := strings.Split(string(line), "\t")
	if fields[0] != "@SQ" {
		return nil
	}

	m.count++
	for _, tag := range fields[1:] {
		if len(tag) < 3 || tag[2] != ':' {
			continue
		}
		switch tag[:2] {
		case "SN":
			if err := m.set(tag[3:]); err != nil {
				return err
			}
		case "AN":
			for _, name := range strings.Split(tag[3:], ",") {
				if err := m.set(name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (m *SequenceMap) set(name string) error {
	if _, ok := m.ids[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	m.ids[name] = m.count
	return nil
}
