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

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackbister/histsuck/internal/config"
	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/formats"
	"github.com/jackbister/histsuck/internal/ingest"
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/zap"
)

type filterRecordingRepository struct {
	filters []api.Filter
	result  []api.StoredEvent
}

func (r *filterRecordingRepository) AddBatch(ctx context.Context, evts []api.StoredEvent) error {
	return nil
}

func (r *filterRecordingRepository) Filter(ctx context.Context, f api.Filter) ([]api.StoredEvent, error) {
	r.filters = append(r.filters, f)
	return r.result, nil
}

func (r *filterRecordingRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	return 0, nil
}

func newTestWeb(t *testing.T, repo api.Repository) *Web {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.HostName = "host1"
	svc := ingest.NewService(ingest.ServiceParams{
		Cfg:      cfg,
		Registry: formats.DefaultRegistry(),
		Output:   &discardOutput{},
		Logger:   zap.NewNop(),
	})
	return NewWeb(WebParams{
		Cfg:    cfg,
		Repo:   repo,
		Ingest: svc,
		Logger: zap.NewNop(),
	})
}

type discardOutput struct{}

func (o *discardOutput) ForSource(src api.Source) api.Publisher {
	return api.PublisherFunc(func(evt api.Event) {})
}

func (o *discardOutput) Close() error {
	return nil
}

func do(t *testing.T, w *Web, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetEvents(t *testing.T) {
	value := "wq"
	repo := &filterRecordingRepository{
		result: []api.StoredEvent{
			{
				Id:       1,
				Host:     "host1",
				Source:   "/home/user/.viminfo",
				SourceId: "abc",
				Event: api.Event{
					DataType:     "viminfo:history",
					HistoryType:  "Command Line History",
					HistoryValue: &value,
					RecordedTime: time.Unix(1613779250, 0).UTC(),
				},
			},
		},
	}
	w := newTestWeb(t, repo)

	rec := do(t, w, http.MethodGet, "/api/v1/events?source=/home/user/.viminfo&historyType=Command+Line+History&startTime=2021-02-01&endTime=2021-03-01T00:00:00Z&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got unexpected status code, expected 200 but got %v: %v", rec.Code, rec.Body.String())
	}
	var res EventsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("got error when unmarshalling response: %v", err)
	}
	if len(res.Events) != 1 || *res.Events[0].HistoryValue != "wq" {
		t.Fatalf("got unexpected events: %v", res.Events)
	}

	if len(repo.filters) != 1 {
		t.Fatalf("expected repository to be called once but got %v calls", len(repo.filters))
	}
	f := repo.filters[0]
	if f.Source != "/home/user/.viminfo" || f.HistoryType != "Command Line History" || f.Limit != 10 {
		t.Fatalf("got unexpected filter: %+v", f)
	}
	if f.StartTime == nil || !f.StartTime.Equal(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got unexpected startTime: %v", f.StartTime)
	}
	if f.EndTime == nil || !f.EndTime.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got unexpected endTime: %v", f.EndTime)
	}
}

func TestGetEvents_DefaultLimit(t *testing.T) {
	repo := &filterRecordingRepository{}
	w := newTestWeb(t, repo)
	rec := do(t, w, http.MethodGet, "/api/v1/events", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got unexpected status code, expected 200 but got %v", rec.Code)
	}
	if repo.filters[0].Limit != defaultLimit || repo.filters[0].StartTime != nil {
		t.Fatalf("got unexpected filter: %+v", repo.filters[0])
	}
}

func TestGetEvents_BadParameters(t *testing.T) {
	tests := []string{
		"/api/v1/events?startTime=notatime",
		"/api/v1/events?endTime=yesterday-ish",
		"/api/v1/events?limit=-1",
		"/api/v1/events?limit=ten",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			w := newTestWeb(t, &filterRecordingRepository{})
			rec := do(t, w, http.MethodGet, target, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("got unexpected status code, expected 400 but got %v", rec.Code)
			}
		})
	}
}

func TestGetEvents_NoRepository(t *testing.T) {
	w := newTestWeb(t, nil)
	rec := do(t, w, http.MethodGet, "/api/v1/events", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got unexpected status code, expected 404 but got %v", rec.Code)
	}
}

func TestPostParse(t *testing.T) {
	w := newTestWeb(t, nil)
	body := "#1613779200\nls -la\n#16137792\ncd /tmp\n#1613779220\nexit\n"
	rec := do(t, w, http.MethodPost, "/api/v1/parse?name=.bash_history", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("got unexpected status code, expected 200 but got %v: %v", rec.Code, rec.Body.String())
	}
	var res ParseResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("got error when unmarshalling response: %v", err)
	}
	if res.Format != "bashhistory" {
		t.Fatalf("got unexpected format, expected bashhistory but got %v", res.Format)
	}
	if res.Records != 2 || len(res.Events) != 2 {
		t.Fatalf("got unexpected number of records, expected 2 but got %v (%v events)", res.Records, len(res.Events))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("got unexpected warnings, expected 1 but got %v", res.Warnings)
	}
	if res.Events[0].Source != ".bash_history" || res.Events[0].Host != "host1" {
		t.Fatalf("got unexpected event: %+v", res.Events[0])
	}
	if *res.Events[1].HistoryValue != "exit" {
		t.Fatalf("got unexpected value, expected exit but got %v", *res.Events[1].HistoryValue)
	}
}

func TestPostParse_UnknownFormat(t *testing.T) {
	w := newTestWeb(t, nil)
	rec := do(t, w, http.MethodPost, "/api/v1/parse", "this is not a history file\n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got unexpected status code, expected 422 but got %v", rec.Code)
	}
}

var _ events.Output = &discardOutput{}
