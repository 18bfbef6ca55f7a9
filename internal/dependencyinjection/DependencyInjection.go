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

package dependencyinjection

import (
	"os"

	internalEvents "github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/files"
	"github.com/jackbister/histsuck/internal/formats"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/internal/tasks"
	"github.com/jackbister/histsuck/internal/web"

	"github.com/jackbister/histsuck/pkg/histsuck/config"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

// InjectionContextFromConfig provides everything the commands need. Only events recorded
// within window are published.
func InjectionContextFromConfig(cfg *config.Config, window ingest.Window, logger *zap.Logger) (*dig.Container, error) {
	c := dig.New()
	err := provideBasics(c, cfg, window, logger)
	if err != nil {
		return nil, err
	}

	for _, p := range GetUsedPlugins(cfg) {
		logger.Info("Loading plugin", zap.String("pluginName", p.Name))
		err = p.Provide(c, logger)
		if err != nil {
			return nil, err
		}
	}

	err = provideOutput(c, cfg)
	if err != nil {
		return nil, err
	}
	err = c.Provide(ingest.NewService)
	if err != nil {
		return nil, err
	}
	err = c.Provide(func(cfg *config.Config, window ingest.Window, svc *ingest.Service, logger *zap.Logger) (*files.GlobWatcher, error) {
		return files.NewGlobWatcher(cfg.Watch.Globs, cfg.Watch.Debounce, window, svc, logger)
	})
	if err != nil {
		return nil, err
	}
	err = c.Provide(web.NewWeb)
	if err != nil {
		return nil, err
	}
	if cfg.Retention != nil {
		err = c.Provide(tasks.NewDeleteOldEventsTask)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func provideBasics(c *dig.Container, cfg *config.Config, window ingest.Window, logger *zap.Logger) error {
	err := c.Provide(func() *zap.Logger {
		return logger
	})
	if err != nil {
		return err
	}
	err = c.Provide(func() *config.Config {
		return cfg
	})
	if err != nil {
		return err
	}
	err = c.Provide(func() ingest.Window {
		return window
	})
	if err != nil {
		return err
	}
	return c.Provide(formats.DefaultRegistry)
}

func provideOutput(c *dig.Container, cfg *config.Config) error {
	if cfg.Output.Type == config.OutputTypeStdout {
		return c.Provide(func(logger *zap.Logger) internalEvents.Output {
			return internalEvents.JsonLinesOutput(os.Stdout, logger)
		})
	}
	return c.Provide(internalEvents.BatchedRepositoryOutput)
}
