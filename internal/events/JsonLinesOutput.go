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
	"encoding/json"
	"io"
	"sync"
	"time"

	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/zap"
)

type JsonEvent struct {
	Id           int64     `json:"id,omitempty"`
	Host         string    `json:"host"`
	Source       string    `json:"source"`
	SourceId     string    `json:"sourceId"`
	DataType     string    `json:"dataType"`
	HistoryType  string    `json:"historyType"`
	HistoryValue *string   `json:"historyValue"`
	Filename     *string   `json:"filename"`
	ItemNumber   int       `json:"itemNumber"`
	RecordedTime time.Time `json:"recordedTime"`
}

func ToJson(evt api.StoredEvent) JsonEvent {
	return JsonEvent{
		Id:           evt.Id,
		Host:         evt.Host,
		Source:       evt.Source,
		SourceId:     evt.SourceId,
		DataType:     evt.DataType,
		HistoryType:  evt.HistoryType,
		HistoryValue: evt.HistoryValue,
		Filename:     evt.Filename,
		ItemNumber:   evt.ItemNumber,
		RecordedTime: evt.RecordedTime,
	}
}

type jsonLinesOutput struct {
	mu  sync.Mutex
	enc *json.Encoder

	logger *zap.Logger
}

// JsonLinesOutput writes every event to w as one line of JSON. It is safe to publish from several goroutines.
func JsonLinesOutput(w io.Writer, logger *zap.Logger) Output {
	return &jsonLinesOutput{
		enc:    json.NewEncoder(w),
		logger: logger.Named("jsonLinesOutput"),
	}
}

func (o *jsonLinesOutput) ForSource(src api.Source) api.Publisher {
	return api.PublisherFunc(func(evt api.Event) {
		o.mu.Lock()
		defer o.mu.Unlock()
		err := o.enc.Encode(ToJson(api.StoredEvent{
			Host:     src.Host,
			Source:   src.Name,
			SourceId: src.Id,
			Event:    evt,
		}))
		if err != nil {
			o.logger.Error("error writing event", zap.String("source", src.Name), zap.Error(err))
		}
	})
}

func (o *jsonLinesOutput) Close() error {
	return nil
}
