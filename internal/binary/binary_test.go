// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binary

import (
	"bytes"
	"testing"
)

func TestExpectBytes(t *testing.T) {
	testCases := []struct {
		want  []byte
		input []byte
		match bool
	}{
		{[]byte("CRAM"), []byte("CRAM"), true},
		{[]byte("CRAM"), []byte("CRAM\x03\x00"), true},
		{[]byte("CRAM"), []byte("CRAN"), false},
		{[]byte("CRAM"), []byte("CRA"), false},
		{[]byte("CRAM"), []byte(""), false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.input), func(t *testing.T) {
			err := ExpectBytes(bytes.NewReader(tc.input), tc.want)
			if err != nil && tc.match {
				t.Fatalf("ExpectBytes returned unexpected error: %v", err)
			} else if err == nil && !tc.match {
				t.Fatalf("ExpectBytes accepted mismatched input %q", tc.input)
			}
		})
	}
}

func TestRead(t *testing.T) {
	var got int32
	if err := Read(bytes.NewReader([]byte{0x10, 0x27, 0, 0}), &got); err != nil {
		t.Fatalf("Read returned unexpected error: %v", err)
	}
	if got != 10000 {
		t.Errorf("Wrong value: got %d, want 10000", got)
	}

	var negative int32
	if err := Read(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}), &negative); err != nil {
		t.Fatalf("Read returned unexpected error: %v", err)
	}
	if negative != -1 {
		t.Errorf("Wrong value: got %d, want -1", negative)
	}
}

func TestReadUint8(t *testing.T) {
	r := bytes.NewReader([]byte{0x03})
	got, err := ReadUint8(r)
	if err != nil {
		t.Fatalf("ReadUint8 returned unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("Wrong value: got %d, want 3", got)
	}
	if _, err := ReadUint8(r); err == nil {
		t.Errorf("ReadUint8 succeeded on an exhausted reader")
	}
}
