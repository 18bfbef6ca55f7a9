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
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"go.uber.org/zap"
)

type Ingester interface {
	IngestFile(ctx context.Context, path string, window ingest.Window) (*structure.Report, error)
}

// GlobWatcher parses every file matching one of its globs when it starts, and then again
// every time one of them is written or replaced.
type GlobWatcher struct {
	globs    []string
	debounce time.Duration
	window   ingest.Window
	ingester Ingester

	timersLock sync.Mutex
	timers     map[string]*time.Timer
	// inFlight counts scheduled and running debounced ingests.
	inFlight sync.WaitGroup

	logger *zap.Logger
}

func NewGlobWatcher(globs []string, debounce time.Duration, window ingest.Window, ingester Ingester, logger *zap.Logger) (*GlobWatcher, error) {
	absGlobs := make([]string, len(globs))
	for i, glob := range globs {
		absGlob, err := filepath.Abs(glob)
		if err != nil {
			return nil, fmt.Errorf("error getting absGlob for glob=%s: %w", glob, err)
		}
		if _, err := filepath.Match(absGlob, ""); err != nil {
			return nil, fmt.Errorf("error in glob=%s: %w", glob, err)
		}
		absGlobs[i] = absGlob
	}
	return &GlobWatcher{
		globs:    absGlobs,
		debounce: debounce,
		window:   window,
		ingester: ingester,
		timers:   map[string]*time.Timer{},
		logger:   logger.Named("GlobWatcher"),
	}, nil
}

// Run blocks until ctx is cancelled. It does not return before ingests started by file changes have finished.
func (gw *GlobWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	dirs := map[string]struct{}{}
	for _, glob := range gw.globs {
		dir := filepath.Dir(glob)
		if _, ok := dirs[dir]; ok {
			continue
		}
		dirs[dir] = struct{}{}
		err = watcher.Add(dir)
		if err != nil {
			return fmt.Errorf("error adding dir=%s to watcher for glob=%s: %w", dir, glob, err)
		}
	}

	for _, glob := range gw.globs {
		initial, err := filepath.Glob(glob)
		if err != nil {
			return fmt.Errorf("got error when globbing using glob=%s: %w", glob, err)
		}
		for _, file := range initial {
			gw.ingest(ctx, file)
		}
	}

	defer gw.inFlight.Wait()
	defer gw.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			gw.handle(ctx, evt)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			gw.logger.Warn("got error from fsnotify watcher", zap.Error(err))
		}
	}
}

func (gw *GlobWatcher) handle(ctx context.Context, evt fsnotify.Event) {
	// Vim replaces .viminfo by renaming a temporary file, which shows up as Create.
	if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	absPath, err := filepath.Abs(evt.Name)
	if err != nil {
		gw.logger.Warn("got error when performing filepath.Abs after receiving fsnotify event",
			zap.String("fileName", evt.Name),
			zap.Error(err))
		return
	}
	if !gw.matches(absPath) {
		return
	}
	gw.timersLock.Lock()
	defer gw.timersLock.Unlock()
	if t, ok := gw.timers[absPath]; ok && t.Stop() {
		t.Reset(gw.debounce)
		return
	}
	gw.inFlight.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(gw.debounce, func() {
		defer gw.inFlight.Done()
		gw.timersLock.Lock()
		if gw.timers[absPath] == timer {
			delete(gw.timers, absPath)
		}
		gw.timersLock.Unlock()
		if ctx.Err() != nil {
			return
		}
		gw.ingest(ctx, absPath)
	})
	gw.timers[absPath] = timer
}

func (gw *GlobWatcher) matches(path string) bool {
	for _, glob := range gw.globs {
		if ok, _ := filepath.Match(glob, path); ok {
			return true
		}
	}
	return false
}

func (gw *GlobWatcher) ingest(ctx context.Context, path string) {
	report, err := gw.ingester.IngestFile(ctx, path, gw.window)
	if err != nil {
		gw.logger.Warn("failed to parse file", zap.String("fileName", path), zap.Error(err))
		return
	}
	gw.logger.Info("parsed file after change", zap.String("fileName", path), zap.Stringer("report", report))
}

func (gw *GlobWatcher) stopTimers() {
	gw.timersLock.Lock()
	defer gw.timersLock.Unlock()
	for k, t := range gw.timers {
		if t.Stop() {
			gw.inFlight.Done()
		}
		delete(gw.timers, k)
	}
}
