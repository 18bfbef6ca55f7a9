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
	"github.com/jackbister/histsuck/pkg/histsuck"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	"github.com/jackbister/histsuck/plugins/postgres_events"
	"github.com/jackbister/histsuck/plugins/sqlite_events"
)

// GetUsedPlugins returns the plugins providing the events.Repository for the configured output.
// The stdout output does not store events and uses no plugins.
func GetUsedPlugins(cfg *config.Config) []histsuck.Plugin {
	switch cfg.Output.Type {
	case config.OutputTypeSqlite:
		return []histsuck.Plugin{sqlite_events.Plugin}
	case config.OutputTypePostgres:
		return []histsuck.Plugin{postgres_events.Plugin}
	default:
		return nil
	}
}
