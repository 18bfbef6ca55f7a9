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

package postgres_events

import (
	"context"

	"github.com/jackbister/histsuck/pkg/histsuck"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

const pluginName = "@histsuck/postgres_events"

var Plugin = histsuck.Plugin{
	Name: pluginName,
	Provide: func(c *dig.Container, logger *zap.Logger) error {
		err := c.Provide(func(cfg *config.Config) (*pgxpool.Pool, error) {
			pool, err := pgxpool.New(context.Background(), cfg.Postgres.ConnectionString)
			if err != nil {
				return nil, err
			}
			return pool, nil
		})
		if err != nil {
			return err
		}
		return c.Provide(NewPostgresEventRepository)
	},
}
