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

package bashhistory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
)

func TestParseBashHistory(t *testing.T) {
	input := "#1613779200\nls -la\n#1613779210\ncd /tmp && grep -r '#1' .\n#16137792\nbroken\n#1613779220\nexit\n"
	var got []events.Event
	s := structure.NewSession(New(), "test", strings.NewReader(input), structure.Options{}, nil)
	report, err := s.Run(context.Background(), events.PublisherFunc(func(evt events.Event) {
		got = append(got, evt)
	}))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	expected := []string{"ls -la", "cd /tmp && grep -r '#1' .", "exit"}
	if len(got) != len(expected) {
		t.Fatalf("got unexpected number of events, expected %v but got %v", len(expected), len(got))
	}
	for i, e := range expected {
		if *got[i].HistoryValue != e || got[i].ItemNumber != i || got[i].HistoryType != HistoryType || got[i].DataType != DataType {
			t.Fatalf("got unexpected event at index %v, expected value %q but got %+v", i, e, got[i])
		}
	}
	if got[2].RecordedTime.Unix() != 1613779220 {
		t.Fatalf("got unexpected recorded time, expected 1613779220 but got %v", got[2].RecordedTime.Unix())
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Kind != structure.MalformedField || report.Warnings[0].Line != 5 {
		t.Fatalf("got unexpected warnings, expected one malformed field on line 5 but got %v", report.Warnings)
	}
}

func TestVerifyBashHistory(t *testing.T) {
	if !structure.Verify(New(), []byte("#1613779200\nls\n")) {
		t.Fatalf("expected timestamped history to verify")
	}
	if structure.Verify(New(), []byte("ls\n#1613779200\n")) {
		t.Fatalf("expected history without leading timestamp to fail verification")
	}
	if structure.Verify(New(), []byte("# This viminfo file was generated by Vim 8.2.\n")) {
		t.Fatalf("expected viminfo file to fail verification")
	}
}

func TestParseLargeHistoryInLinearTime(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large history in short mode")
	}
	var sb strings.Builder
	n := 0
	for sb.Len() < 8*1024*1024 {
		fmt.Fprintf(&sb, "#%d\necho command number %d\n", 1613779200+n, n)
		n++
	}
	count := 0
	s := structure.NewSession(New(), "large", strings.NewReader(sb.String()), structure.Options{}, nil)
	start := time.Now()
	report, err := s.Run(context.Background(), events.PublisherFunc(func(evt events.Event) {
		count++
	}))
	took := time.Since(start)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if count != n || report.Records != n || len(report.Warnings) != 0 {
		t.Fatalf("got unexpected result, expected %v events and no warnings but got events=%v report=%v", n, count, report)
	}
	if took > 15*time.Second {
		t.Fatalf("got unexpected parse time for %v bytes, expected less than 15s but took %v", sb.Len(), took)
	}
}
