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

package config

import "time"

type Config struct {
	// HostName is stored with every event. Defaults to the host name reported by the operating system.
	HostName string `validate:"required"`

	Engine   *EngineConfig `validate:"required"`
	Output   *OutputConfig `validate:"required"`
	SQLite   *SqliteConfig
	Postgres *PostgresConfig
	Watch    *WatchConfig `validate:"required"`
	Web      *WebConfig   `validate:"required"`
	// Retention is nil when stored events are kept forever.
	Retention *RetentionConfig
}

type EngineConfig struct {
	// Format forces every file to be parsed as the given format. If empty the format is detected from the start of the file.
	Format string
	// BufferSize is the number of bytes read at a time. The default is 16384.
	BufferSize int `validate:"gte=16"`
	// MaxRecordSize is the largest number of bytes a single structure may span before parsing is aborted.
	MaxRecordSize int `validate:"gtefield=BufferSize"`
	// Strict aborts parsing on the first line that no structure matches.
	Strict bool
	// Encoding is the text encoding of the parsed files, or "auto" to use the encoding declared in the file.
	Encoding string
}

const (
	OutputTypeStdout   = "stdout"
	OutputTypeSqlite   = "sqlite"
	OutputTypePostgres = "postgres"
)

type OutputConfig struct {
	Type          string        `validate:"oneof=stdout sqlite postgres"`
	BatchSize     int           `validate:"gte=1"`
	FlushInterval time.Duration `validate:"gt=0"`
}

type SqliteConfig struct {
	DatabaseFile string `validate:"required"`
}

type PostgresConfig struct {
	ConnectionString string `validate:"required"`
}

type WatchConfig struct {
	Globs []string `validate:"dive,required"`
	// Debounce is how long a file must be left alone after a write before it is parsed again.
	Debounce time.Duration `validate:"gte=0"`
}

type WebConfig struct {
	Enabled bool
	Address string `validate:"required_if=Enabled true"`
}

type RetentionConfig struct {
	// MinAge is how long ago an event must have been recorded before it is deleted.
	MinAge   time.Duration `validate:"gt=0"`
	Interval time.Duration `validate:"gt=0"`
}
