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

package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackbister/histsuck/internal/config"
	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/formats"
	"github.com/jackbister/histsuck/internal/formats/bashhistory"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"go.uber.org/zap"
)

const bashHistory = "#1613779200\nls -la\n#1613779210\ncd /tmp\n#1613779220\nexit\n"

func newService(t *testing.T, format string) (*Service, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.HostName = "host1"
	cfg.Engine.Format = format
	var buf bytes.Buffer
	return NewService(ServiceParams{
		Cfg:      cfg,
		Registry: formats.DefaultRegistry(),
		Output:   events.JsonLinesOutput(&buf, zap.NewNop()),
		Logger:   zap.NewNop(),
	}), &buf
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("got error writing file: %v", err)
	}
	return path
}

func TestIngestFileDetectsFormat(t *testing.T) {
	s, buf := newService(t, "")
	path := writeFile(t, bashHistory)
	report, err := s.IngestFile(context.Background(), path, Window{})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if report.Format != bashhistory.Name || report.Records != 3 {
		t.Fatalf("got unexpected report %+v", report)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got unexpected number of output lines, expected 3 but got %v", len(lines))
	}
	var first events.JsonEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("got error decoding output: %v", err)
	}
	if first.Host != "host1" || first.Source != path || first.SourceId == "" || *first.HistoryValue != "ls -la" {
		t.Fatalf("got unexpected event %+v", first)
	}
}

func TestIngestFileWithWindow(t *testing.T) {
	s, buf := newService(t, "")
	path := writeFile(t, bashHistory)
	start := time.Unix(1613779205, 0)
	report, err := s.IngestFile(context.Background(), path, Window{StartTime: &start})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if report.Records != 3 {
		t.Fatalf("expected the report to count every extracted record but got %v", report.Records)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Fatalf("got unexpected number of published events, expected 2 but got %v", n)
	}
}

func TestIngestFileUnknownFormat(t *testing.T) {
	s, _ := newService(t, "")
	path := writeFile(t, "just some text\n")
	_, err := s.IngestFile(context.Background(), path, Window{})
	if !errors.Is(err, structure.ErrVerificationMismatch) {
		t.Fatalf("got unexpected error, expected verification mismatch but got %v", err)
	}
}

func TestIngestFileForcedFormat(t *testing.T) {
	s, _ := newService(t, "viminfo")
	path := writeFile(t, bashHistory)
	_, err := s.IngestFile(context.Background(), path, Window{})
	if !errors.Is(err, structure.ErrVerificationMismatch) {
		t.Fatalf("got unexpected error, expected verification mismatch but got %v", err)
	}

	s, _ = newService(t, "zsh")
	if _, err := s.IngestFile(context.Background(), path, Window{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestIngestFileMissing(t *testing.T) {
	s, _ := newService(t, "")
	if _, err := s.IngestFile(context.Background(), filepath.Join(t.TempDir(), "nope"), Window{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
