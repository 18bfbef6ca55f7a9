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
	"sync"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/config"
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

type batchedRepositoryOutput struct {
	adder     chan api.StoredEvent
	done      chan struct{}
	closeOnce sync.Once

	logger *zap.Logger
}

type BatchedRepositoryOutputParams struct {
	dig.In

	Cfg    *config.Config
	Repo   api.Repository
	Logger *zap.Logger
}

// BatchedRepositoryOutput adds events to the repository in batches of Output.BatchSize, or
// every Output.FlushInterval if fewer events than that have arrived.
func BatchedRepositoryOutput(p BatchedRepositoryOutputParams) Output {
	batchSize := p.Cfg.Output.BatchSize
	flushInterval := p.Cfg.Output.FlushInterval
	o := &batchedRepositoryOutput{
		adder:  make(chan api.StoredEvent, batchSize),
		done:   make(chan struct{}),
		logger: p.Logger.Named("batchedRepositoryOutput"),
	}

	go func() {
		defer close(o.done)
		accumulated := make([]api.StoredEvent, 0, batchSize)
		flush := func() {
			if len(accumulated) == 0 {
				return
			}
			err := p.Repo.AddBatch(context.Background(), accumulated)
			if err != nil {
				o.logger.Error("error when adding events",
					zap.Int("numEvents", len(accumulated)),
					zap.Error(err))
			}
			accumulated = accumulated[:0]
		}
		timeout := time.After(flushInterval)
		for {
			select {
			case <-timeout:
				flush()
				timeout = time.After(flushInterval)
			case evt, ok := <-o.adder:
				if !ok {
					flush()
					return
				}
				accumulated = append(accumulated, evt)
				if len(accumulated) >= batchSize {
					flush()
					timeout = time.After(flushInterval)
				}
			}
		}
	}()

	return o
}

func (o *batchedRepositoryOutput) ForSource(src api.Source) api.Publisher {
	return api.PublisherFunc(func(evt api.Event) {
		o.adder <- api.StoredEvent{
			Host:     src.Host,
			Source:   src.Name,
			SourceId: src.Id,
			Event:    evt,
		}
	})
}

func (o *batchedRepositoryOutput) Close() error {
	o.closeOnce.Do(func() {
		close(o.adder)
	})
	<-o.done
	return nil
}
