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
	"testing"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/zap"
)

type deletingRepository struct {
	deletedBefore []time.Time
}

func (r *deletingRepository) AddBatch(ctx context.Context, evts []events.StoredEvent) error {
	return nil
}

func (r *deletingRepository) Filter(ctx context.Context, f events.Filter) ([]events.StoredEvent, error) {
	return nil, nil
}

func (r *deletingRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	r.deletedBefore = append(r.deletedBefore, t)
	return 1, nil
}

func TestDeleteOldEventsTaskDeletesOldEvents(t *testing.T) {
	repo := &deletingRepository{}
	task := &DeleteOldEventsTask{
		Repo:   repo,
		MinAge: 7 * 24 * time.Hour,
		Now: func() time.Time {
			return time.Date(2022, 1, 27, 20, 0, 0, 0, time.UTC)
		},
		Logger: zap.NewNop(),
	}
	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("got error when running task: %v", err)
	}
	expected := time.Date(2022, 1, 20, 20, 0, 0, 0, time.UTC)
	if len(repo.deletedBefore) != 1 || !repo.deletedBefore[0].Equal(expected) {
		t.Fatalf("got unexpected deletes, expected one before %v but got %v", expected, repo.deletedBefore)
	}
}

func TestDeleteOldEventsTaskInvalidMinAgeDoesNotDelete(t *testing.T) {
	repo := &deletingRepository{}
	task := &DeleteOldEventsTask{
		Repo:   repo,
		Now:    time.Now,
		Logger: zap.NewNop(),
	}
	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("got error when running task: %v", err)
	}
	if len(repo.deletedBefore) != 0 {
		t.Fatalf("expected no deletes but got %v", repo.deletedBefore)
	}
}

func TestDeleteOldEventsTaskRunPeriodicallyStopsOnCancel(t *testing.T) {
	repo := &deletingRepository{}
	task := &DeleteOldEventsTask{
		Repo:   repo,
		MinAge: time.Hour,
		Now:    time.Now,
		Logger: zap.NewNop(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := task.RunPeriodically(ctx, time.Hour); err != nil {
		t.Fatalf("got error from RunPeriodically: %v", err)
	}
	if len(repo.deletedBefore) != 1 {
		t.Fatalf("expected the task to run once before stopping but it ran %v times", len(repo.deletedBefore))
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		input    string
		expected time.Duration
		ok       bool
	}{
		{"30s", 30 * time.Second, true},
		{"15m", 15 * time.Minute, true},
		{"2h", 2 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"1M", 30 * 24 * time.Hour, true},
		{"1y", 365 * 24 * time.Hour, true},
		{"", 0, false},
		{"123x", 0, false},
		{"-1d", 0, false},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.input)
		if c.ok && err != nil {
			t.Fatalf("got unexpected error for input=%s: %v", c.input, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("expected error for input=%s but got %v", c.input, got)
		}
		if got != c.expected {
			t.Fatalf("got unexpected duration for input=%s, expected %v but got %v", c.input, c.expected, got)
		}
	}
}
