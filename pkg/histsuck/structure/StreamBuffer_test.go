// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package structure

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestStreamBufferLines(t *testing.T) {
	b := NewStreamBuffer(strings.NewReader("one\r\ntwo\n\n  \nthree"), 16, 0)
	window, err := b.Window()
	if err != nil || string(window) != "one\r\ntwo\n\n  \nthree" {
		t.Fatalf("got unexpected window=%q err=%v", window, err)
	}
	line, err := b.SkipLine()
	if err != nil || line != "one" {
		t.Fatalf("got unexpected line, expected 'one' but got %q err=%v", line, err)
	}
	if b.Line() != 2 {
		t.Fatalf("got unexpected line number, expected 2 but got %v", b.Line())
	}
	if _, err := b.SkipLine(); err != nil {
		t.Fatalf("got error: %v", err)
	}
	if err := b.SkipBlankLines(); err != nil {
		t.Fatalf("got error: %v", err)
	}
	if b.Line() != 5 {
		t.Fatalf("got unexpected line number after skipping blank lines, expected 5 but got %v", b.Line())
	}
	line, err = b.SkipLine()
	if err != nil || line != "three" {
		t.Fatalf("got unexpected last line, expected 'three' but got %q err=%v", line, err)
	}
	if !b.Exhausted() {
		t.Fatalf("expected buffer to be exhausted")
	}
}

func TestStreamBufferStripsByteOrderMark(t *testing.T) {
	b := NewStreamBuffer(strings.NewReader("\xEF\xBB\xBFabc\n"), 0, 0)
	line, err := b.SkipLine()
	if err != nil || line != "abc" {
		t.Fatalf("got unexpected line, expected 'abc' but got %q err=%v", line, err)
	}
}

func TestStreamBufferGrowsInDoublingSteps(t *testing.T) {
	input := strings.Repeat("x", 1000)
	b := NewStreamBuffer(strings.NewReader(input), 16, 0)
	grows := 0
	for !b.Complete() {
		if err := b.Grow(); err != nil {
			t.Fatalf("got error: %v", err)
		}
		grows++
	}
	if grows != 7 {
		t.Fatalf("got unexpected number of reads, expected 7 but got %v", grows)
	}
	if b.Remaining() != input {
		t.Fatalf("got unexpected remaining text of length %v, expected %v", len(b.Remaining()), len(input))
	}
	if err := b.Grow(); !errors.Is(err, io.EOF) {
		t.Fatalf("got unexpected error, expected io.EOF but got %v", err)
	}
}

func TestStreamBufferStopsAtMaxRecordSize(t *testing.T) {
	b := NewStreamBuffer(strings.NewReader(strings.Repeat("x", 1000)), 16, 100)
	var err error
	for err == nil {
		err = b.Grow()
	}
	if !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("got unexpected error, expected record too large but got %v", err)
	}
	if len(b.Remaining()) != 100 {
		t.Fatalf("got unexpected buffered length, expected 100 but got %v", len(b.Remaining()))
	}
}

func TestStreamBufferLinesAt(t *testing.T) {
	b := NewStreamBuffer(strings.NewReader("a\nb\nc\nd\n"), 0, 0)
	if err := b.Grow(); err != nil {
		t.Fatalf("got error: %v", err)
	}
	got := b.LinesAt([]int{0, 2, 6, 4})
	expected := []int{1, 2, 4, 3}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("got unexpected lines, expected %v but got %v", expected, got)
		}
	}
}

func TestPosixSeconds(t *testing.T) {
	cases := []struct {
		value    string
		expected time.Time
	}{
		{"1600000000", time.Date(2020, 9, 13, 12, 26, 40, 0, time.UTC)},
		{" 1600000000\r", time.Date(2020, 9, 13, 12, 26, 40, 0, time.UTC)},
		{"0", time.Unix(0, 0).UTC()},
	}
	for _, c := range cases {
		got, err := PosixSeconds(c.value)
		if err != nil {
			t.Fatalf("got error parsing value=%q: %v", c.value, err)
		}
		if !got.Equal(c.expected) || got.Location() != time.UTC {
			t.Fatalf("got unexpected time for value=%q, expected %v but got %v", c.value, c.expected, got)
		}
	}
	for _, bad := range []string{"12ab", "", "1600000000.5"} {
		if _, err := PosixSeconds(bad); err == nil {
			t.Fatalf("expected error for value=%q", bad)
		}
	}
}
