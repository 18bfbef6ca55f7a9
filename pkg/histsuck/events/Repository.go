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

package events

import (
	"context"
	"time"
)

type Filter struct {
	Source      string
	HistoryType string
	StartTime   *time.Time
	EndTime     *time.Time
	// Limit of 0 means no limit.
	Limit int
}

type Repository interface {
	// AddBatch stores the events. Events that are already stored are skipped.
	AddBatch(ctx context.Context, events []StoredEvent) error
	// Filter returns stored events ordered by recorded time, newest first.
	Filter(ctx context.Context, f Filter) ([]StoredEvent, error)
	// DeleteBefore removes events recorded before t and returns how many were removed.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
