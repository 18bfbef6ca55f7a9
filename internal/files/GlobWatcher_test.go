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

package files

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"go.uber.org/zap"
)

type testIngester struct {
	mu    sync.Mutex
	paths []string
	calls chan string
}

func newTestIngester() *testIngester {
	return &testIngester{calls: make(chan string, 10)}
}

func (ti *testIngester) IngestFile(ctx context.Context, path string, window ingest.Window) (*structure.Report, error) {
	ti.mu.Lock()
	ti.paths = append(ti.paths, path)
	ti.mu.Unlock()
	ti.calls <- path
	return &structure.Report{Source: path}, nil
}

func (ti *testIngester) count() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return len(ti.paths)
}

func waitForCall(t *testing.T, ti *testIngester) string {
	t.Helper()
	select {
	case path := <-ti.calls:
		return path
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for file to be ingested")
		return ""
	}
}

func TestGlobWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	ti := newTestIngester()
	gw, err := NewGlobWatcher([]string{filepath.Join(dir, "*.viminfo")}, 20*time.Millisecond, ingest.Window{}, ti, zap.NewNop())
	if err != nil {
		t.Fatalf("got error creating GlobWatcher: %v", err)
	}
	path := filepath.Join(dir, "user.viminfo")
	for i := 0; i < 5; i++ {
		gw.handle(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Write})
	}
	gw.handle(context.Background(), fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write})
	gw.handle(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Remove})

	if got := waitForCall(t, ti); got != path {
		t.Fatalf("got unexpected path, expected %v but got %v", path, got)
	}
	time.Sleep(100 * time.Millisecond)
	if ti.count() != 1 {
		t.Fatalf("got unexpected number of ingests, expected 1 but got %v", ti.count())
	}
}

func TestGlobWatcher_IngestsExistingFilesOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".viminfo")
	if err := os.WriteFile(path, []byte("# This viminfo file was generated by Vim 8.2.\n"), 0o644); err != nil {
		t.Fatalf("got error writing file: %v", err)
	}
	ti := newTestIngester()
	gw, err := NewGlobWatcher([]string{filepath.Join(dir, ".viminfo")}, time.Millisecond, ingest.Window{}, ti, zap.NewNop())
	if err != nil {
		t.Fatalf("got error creating GlobWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- gw.Run(ctx)
	}()
	if got := waitForCall(t, ti); got != path {
		t.Fatalf("got unexpected path, expected %v but got %v", path, got)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
}

type slowIngester struct {
	started  chan struct{}
	finished atomic.Bool
}

func (si *slowIngester) IngestFile(ctx context.Context, path string, window ingest.Window) (*structure.Report, error) {
	close(si.started)
	time.Sleep(300 * time.Millisecond)
	si.finished.Store(true)
	return &structure.Report{Source: path}, nil
}

func TestGlobWatcher_RunWaitsForRunningIngest(t *testing.T) {
	dir := t.TempDir()
	si := &slowIngester{started: make(chan struct{})}
	gw, err := NewGlobWatcher([]string{filepath.Join(dir, "*.viminfo")}, time.Millisecond, ingest.Window{}, si, zap.NewNop())
	if err != nil {
		t.Fatalf("got error creating GlobWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() {
		done <- gw.Run(ctx)
	}()
	gw.handle(ctx, fsnotify.Event{Name: filepath.Join(dir, "user.viminfo"), Op: fsnotify.Write})
	select {
	case <-si.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for ingest to start")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("got error from Run: %v", err)
	}
	if !si.finished.Load() {
		t.Fatalf("expected Run to return only after the running ingest finished")
	}
}

func TestGlobWatcher_StoppedTimersDoNotBlockRun(t *testing.T) {
	dir := t.TempDir()
	ti := newTestIngester()
	gw, err := NewGlobWatcher([]string{filepath.Join(dir, "*.viminfo")}, time.Hour, ingest.Window{}, ti, zap.NewNop())
	if err != nil {
		t.Fatalf("got error creating GlobWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- gw.Run(ctx)
	}()
	gw.handle(ctx, fsnotify.Event{Name: filepath.Join(dir, "user.viminfo"), Op: fsnotify.Write})
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("got error from Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for Run to return")
	}
	if ti.count() != 0 {
		t.Fatalf("got unexpected number of ingests, expected 0 but got %v", ti.count())
	}
}

func TestNewGlobWatcher_InvalidGlob(t *testing.T) {
	if _, err := NewGlobWatcher([]string{"/tmp/[a-"}, time.Millisecond, ingest.Window{}, newTestIngester(), zap.NewNop()); err == nil {
		t.Fatalf("expected error for malformed glob")
	}
}
