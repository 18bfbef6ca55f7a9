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
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
)

// Output is where the events of every parsed artifact end up.
type Output interface {
	// ForSource returns a Publisher that tags every event with src.
	ForSource(src api.Source) api.Publisher
	// Close flushes buffered events. Publishers returned by ForSource must not be used after Close.
	Close() error
}

// CollectingPublisher keeps every published event in memory.
type CollectingPublisher struct {
	Events []api.Event
}

func (p *CollectingPublisher) PublishEvent(evt api.Event) {
	p.Events = append(p.Events, evt)
}
