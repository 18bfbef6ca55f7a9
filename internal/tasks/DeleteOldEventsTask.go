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

package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/config"
	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// DeleteOldEventsTask removes stored events that were recorded more than MinAge ago.
type DeleteOldEventsTask struct {
	Repo   events.Repository
	MinAge time.Duration
	Now    func() time.Time

	Logger *zap.Logger
}

type DeleteOldEventsTaskParams struct {
	dig.In

	Cfg    *config.Config
	Repo   events.Repository
	Logger *zap.Logger
}

func NewDeleteOldEventsTask(p DeleteOldEventsTaskParams) *DeleteOldEventsTask {
	return &DeleteOldEventsTask{
		Repo:   p.Repo,
		MinAge: p.Cfg.Retention.MinAge,
		Now:    time.Now,
		Logger: p.Logger.Named("DeleteOldEventsTask"),
	}
}

func (t *DeleteOldEventsTask) Name() string {
	return "@histsuck/DeleteOldEventsTask"
}

func (t *DeleteOldEventsTask) Run(ctx context.Context) error {
	if t.MinAge <= 0 {
		t.Logger.Warn("minAge is not positive. Will not do anything.", zap.Duration("minAge", t.MinAge))
		return nil
	}
	before := t.Now().Add(-t.MinAge)
	n, err := t.Repo.DeleteBefore(ctx, before)
	if err != nil {
		return fmt.Errorf("error deleting events recorded before time=%v: %w", before, err)
	}
	t.Logger.Info("deleted old events", zap.Int64("numEvents", n), zap.Time("before", before))
	return nil
}

// RunPeriodically runs the task immediately and then every interval until ctx is cancelled.
func (t *DeleteOldEventsTask) RunPeriodically(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := t.Run(ctx); err != nil {
			t.Logger.Error("failed to delete old events", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

var durationRegexp = regexp.MustCompile(`^(\d+)(s|m|h|d|M|y)$`)

// ParseDuration parses a positive number followed by one of s, m, h, d, M or y. For example 7d.
// Months are 30 days and years are 365 days.
func ParseDuration(str string) (time.Duration, error) {
	match := durationRegexp.FindStringSubmatch(str)
	if len(match) < 3 {
		return 0, fmt.Errorf("str='%s' does not match the duration pattern. A duration must be a positive number followed by one of s, m, h, d, M, or y. For example 7d", str)
	}
	count, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("str='%s' could not be converted to a duration. Failed to convert '%s' to a number: %w", str, match[1], err)
	}
	d := time.Duration(count)
	switch match[2] {
	case "s":
		return d * time.Second, nil
	case "m":
		return d * time.Minute, nil
	case "h":
		return d * time.Hour, nil
	case "d":
		return d * 24 * time.Hour, nil
	case "M":
		return d * 30 * 24 * time.Hour, nil
	case "y":
		return d * 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("str='%s' could not be converted to a duration. Unknown duration type='%s'", str, match[2])
	}
}
