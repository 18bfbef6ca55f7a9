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
	"database/sql"

	"github.com/jackbister/histsuck/pkg/histsuck"
	"github.com/jackbister/histsuck/pkg/histsuck/config"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const pluginName = "@histsuck/sqlite_events"

func dataSourceName(fileName string) string {
	additionalSqliteParameters := "?_journal_mode=WAL"
	if fileName == ":memory:" {
		additionalSqliteParameters += "&cache=shared"
	}
	return "file:" + fileName + additionalSqliteParameters
}

var Plugin = histsuck.Plugin{
	Name: pluginName,
	Provide: func(c *dig.Container, logger *zap.Logger) error {
		err := c.Provide(func(cfg *config.Config) (*sql.DB, error) {
			db, err := sql.Open("sqlite3", dataSourceName(cfg.SQLite.DatabaseFile))
			if err != nil {
				return nil, err
			}
			return db, nil
		})
		if err != nil {
			return err
		}
		return c.Provide(NewSqliteEventRepository)
	},
}
