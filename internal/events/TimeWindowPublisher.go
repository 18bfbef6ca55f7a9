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
	"time"

	api "github.com/jackbister/histsuck/pkg/histsuck/events"
)

type timeWindowPublisher struct {
	wrapped   api.Publisher
	startTime *time.Time
	endTime   *time.Time
}

// TimeWindowPublisher only forwards events recorded at or after startTime and before endTime.
// A nil bound is not checked.
func TimeWindowPublisher(wrapped api.Publisher, startTime, endTime *time.Time) api.Publisher {
	if startTime == nil && endTime == nil {
		return wrapped
	}
	return &timeWindowPublisher{
		wrapped:   wrapped,
		startTime: startTime,
		endTime:   endTime,
	}
}

func (p *timeWindowPublisher) PublishEvent(evt api.Event) {
	if p.startTime != nil && evt.RecordedTime.Before(*p.startTime) {
		return
	}
	if p.endTime != nil && !evt.RecordedTime.Before(*p.endTime) {
		return
	}
	p.wrapped.PublishEvent(evt)
}
