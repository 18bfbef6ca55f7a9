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

package sqlite_events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

func createRepo(t *testing.T) events.Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("got error when opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	repo, err := NewSqliteEventRepository(SqliteEventRepositoryParams{
		Db:     db,
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("got error when creating repository: %v", err)
	}
	return repo
}

func command(sourceId string, value string, itemNumber int, ts int64) events.StoredEvent {
	return events.StoredEvent{
		Host:     "localhost",
		Source:   "/home/user/.viminfo",
		SourceId: sourceId,
		Event: events.Event{
			DataType:     "viminfo:history",
			HistoryType:  "Command Line History",
			HistoryValue: &value,
			ItemNumber:   itemNumber,
			RecordedTime: time.Unix(ts, 0).UTC(),
		},
	}
}

func fileMark(sourceId string, filename string, ts int64) events.StoredEvent {
	return events.StoredEvent{
		Host:     "localhost",
		Source:   "/home/user/.viminfo",
		SourceId: sourceId,
		Event: events.Event{
			DataType:     "viminfo:history",
			HistoryType:  "File mark",
			Filename:     &filename,
			RecordedTime: time.Unix(ts, 0).UTC(),
		},
	}
}

func TestAddBatchAndFilter(t *testing.T) {
	repo := createRepo(t)
	err := repo.AddBatch(context.Background(), []events.StoredEvent{
		command("a", "ls", 0, 1613779200),
		command("a", "wq", 1, 1613779100),
		fileMark("a", "~/notes.txt", 1613779300),
	})
	if err != nil {
		t.Fatalf("got error when adding events: %v", err)
	}
	evts, err := repo.Filter(context.Background(), events.Filter{})
	if err != nil {
		t.Fatalf("got error when filtering: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("got unexpected number of events, expected 3 but got %v", len(evts))
	}
	if evts[0].Filename == nil || *evts[0].Filename != "~/notes.txt" || evts[0].HistoryValue != nil {
		t.Fatalf("expected newest event to be the file mark but got %+v", evts[0])
	}
	if *evts[1].HistoryValue != "ls" || evts[1].RecordedTime.Unix() != 1613779200 || evts[1].SourceId != "a" {
		t.Fatalf("got unexpected second event %+v", evts[1])
	}
}

func TestAddBatchSkipsDuplicates(t *testing.T) {
	repo := createRepo(t)
	first := []events.StoredEvent{command("a", "ls", 0, 1613779200), fileMark("a", "~/notes.txt", 1613779300)}
	second := []events.StoredEvent{command("b", "vim", 0, 1613779400), command("b", "ls", 1, 1613779200), fileMark("b", "~/notes.txt", 1613779300)}
	if err := repo.AddBatch(context.Background(), first); err != nil {
		t.Fatalf("got error when adding first batch: %v", err)
	}
	if err := repo.AddBatch(context.Background(), second); err != nil {
		t.Fatalf("got error when adding second batch: %v", err)
	}
	evts, err := repo.Filter(context.Background(), events.Filter{})
	if err != nil {
		t.Fatalf("got error when filtering: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("got unexpected number of events, expected 3 but got %v", len(evts))
	}
}

func TestFilter(t *testing.T) {
	repo := createRepo(t)
	var batch []events.StoredEvent
	for i := 0; i < 10; i++ {
		batch = append(batch, command("a", "cmd", i, 1613779200+int64(i)))
	}
	batch = append(batch, fileMark("a", "~/notes.txt", 1613779205))
	if err := repo.AddBatch(context.Background(), batch); err != nil {
		t.Fatalf("got error when adding events: %v", err)
	}
	start := time.Unix(1613779202, 0)
	end := time.Unix(1613779206, 0)
	cases := []struct {
		name     string
		filter   events.Filter
		expected int
	}{
		{"all", events.Filter{}, 11},
		{"history type", events.Filter{HistoryType: "File mark"}, 1},
		{"source", events.Filter{Source: "/home/other/.viminfo"}, 0},
		{"window", events.Filter{StartTime: &start, EndTime: &end}, 5},
		{"limit", events.Filter{Limit: 3}, 3},
	}
	for _, c := range cases {
		evts, err := repo.Filter(context.Background(), c.filter)
		if err != nil {
			t.Fatalf("got error when filtering for case=%s: %v", c.name, err)
		}
		if len(evts) != c.expected {
			t.Fatalf("got unexpected number of events for case=%s, expected %v but got %v", c.name, c.expected, len(evts))
		}
	}
}

func TestDeleteBefore(t *testing.T) {
	repo := createRepo(t)
	batch := []events.StoredEvent{
		command("a", "old", 0, 1613779200),
		command("a", "older", 1, 1613779100),
		command("a", "new", 2, 1613779300),
	}
	if err := repo.AddBatch(context.Background(), batch); err != nil {
		t.Fatalf("got error when adding events: %v", err)
	}
	n, err := repo.DeleteBefore(context.Background(), time.Unix(1613779300, 0))
	if err != nil {
		t.Fatalf("got error when deleting events: %v", err)
	}
	if n != 2 {
		t.Fatalf("got unexpected number of deleted events, expected 2 but got %v", n)
	}
	evts, err := repo.Filter(context.Background(), events.Filter{})
	if err != nil {
		t.Fatalf("got error when filtering: %v", err)
	}
	if len(evts) != 1 || *evts[0].HistoryValue != "new" {
		t.Fatalf("got unexpected remaining events: %v", evts)
	}
}
