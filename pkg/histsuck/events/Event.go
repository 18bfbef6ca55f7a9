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

import "time"

// Event is one timestamped record extracted from a history artifact.
// HistoryValue and Filename are nil when the record type does not carry them.
type Event struct {
	DataType     string
	HistoryType  string
	HistoryValue *string
	Filename     *string
	ItemNumber   int
	RecordedTime time.Time
}

// Source describes the artifact a set of events was extracted from.
type Source struct {
	Host string
	Name string
	// Id is unique per parse of an artifact.
	Id string
}

// StoredEvent is an Event together with the artifact it came from, as kept by a Repository.
type StoredEvent struct {
	Id       int64
	Host     string
	Source   string
	SourceId string
	Event
}

// Publisher receives events in document order. It is the sink of the parsing engine.
type Publisher interface {
	PublishEvent(evt Event)
}

type PublisherFunc func(evt Event)

func (f PublisherFunc) PublishEvent(evt Event) {
	f(evt)
}
