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

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackbister/histsuck/internal/tasks"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"go.uber.org/zap"
)

type jsonEngineConfig struct {
	Format        string `json:"format"`
	BufferSize    *int   `json:"bufferSize"`
	MaxRecordSize *int   `json:"maxRecordSize"`
	Strict        *bool  `json:"strict"`
	Encoding      string `json:"encoding"`
}

type jsonOutputConfig struct {
	Type          string `json:"type"`
	BatchSize     *int   `json:"batchSize"`
	FlushInterval string `json:"flushInterval"`
}

type jsonSqliteConfig struct {
	FileName string `json:"fileName"`
}

type jsonPostgresConfig struct {
	ConnectionString string `json:"connectionString"`
}

type jsonWatchConfig struct {
	Globs    []string `json:"globs"`
	Debounce string   `json:"debounce"`
}

type jsonWebConfig struct {
	Enabled *bool  `json:"enabled"`
	Address string `json:"address"`
}

type jsonRetentionConfig struct {
	MinAge   string `json:"minAge"`
	Interval string `json:"interval"`
}

type jsonConfig struct {
	HostName string `json:"hostName"`

	Engine   *jsonEngineConfig   `json:"engine"`
	Output   *jsonOutputConfig   `json:"output"`
	Sqlite   *jsonSqliteConfig   `json:"sqlite"`
	Postgres *jsonPostgresConfig `json:"postgres"`
	Watch    *jsonWatchConfig    `json:"watch"`
	Web      *jsonWebConfig      `json:"web"`

	Retention *jsonRetentionConfig `json:"retention"`
}

var validate = validator.New()

// Default returns the configuration used when there is no configuration file.
func Default() *config.Config {
	return &config.Config{
		Engine: &config.EngineConfig{
			BufferSize:    structure.DefaultBufferSize,
			MaxRecordSize: structure.DefaultMaxRecordSize,
		},
		Output: &config.OutputConfig{
			Type:          config.OutputTypeStdout,
			BatchSize:     5000,
			FlushInterval: 1 * time.Second,
		},
		SQLite: &config.SqliteConfig{
			DatabaseFile: "histsuck.db",
		},
		Watch: &config.WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Web: &config.WebConfig{
			Enabled: false,
			Address: ":8080",
		},
	}
}

func FromJSON(r io.Reader, logger *zap.Logger) (*config.Config, error) {
	var cfg jsonConfig
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("error decoding config JSON: %w", err)
	}
	ret := Default()

	if cfg.HostName != "" {
		ret.HostName = cfg.HostName
	}

	if cfg.Engine == nil {
		logger.Info("using default engine configuration")
	} else {
		ret.Engine.Format = cfg.Engine.Format
		ret.Engine.Encoding = cfg.Engine.Encoding
		if cfg.Engine.BufferSize != nil {
			ret.Engine.BufferSize = *cfg.Engine.BufferSize
		}
		if cfg.Engine.MaxRecordSize != nil {
			ret.Engine.MaxRecordSize = *cfg.Engine.MaxRecordSize
		}
		if cfg.Engine.Strict != nil {
			ret.Engine.Strict = *cfg.Engine.Strict
		}
	}

	if cfg.Output == nil {
		logger.Info("using default output configuration", zap.String("type", ret.Output.Type))
	} else {
		if cfg.Output.Type != "" {
			ret.Output.Type = cfg.Output.Type
		}
		if cfg.Output.BatchSize != nil {
			ret.Output.BatchSize = *cfg.Output.BatchSize
		}
		if cfg.Output.FlushInterval != "" {
			fi, err := time.ParseDuration(cfg.Output.FlushInterval)
			if err != nil {
				return nil, fmt.Errorf("error reading config at output.flushInterval: %w", err)
			}
			ret.Output.FlushInterval = fi
		}
	}

	if cfg.Sqlite != nil && cfg.Sqlite.FileName != "" {
		ret.SQLite.DatabaseFile = cfg.Sqlite.FileName
	}

	if cfg.Postgres != nil {
		ret.Postgres = &config.PostgresConfig{
			ConnectionString: cfg.Postgres.ConnectionString,
		}
	}

	if cfg.Watch != nil {
		ret.Watch.Globs = cfg.Watch.Globs
		if cfg.Watch.Debounce != "" {
			d, err := time.ParseDuration(cfg.Watch.Debounce)
			if err != nil {
				return nil, fmt.Errorf("error reading config at watch.debounce: %w", err)
			}
			ret.Watch.Debounce = d
		}
	}

	if cfg.Web != nil {
		if cfg.Web.Enabled != nil {
			ret.Web.Enabled = *cfg.Web.Enabled
		}
		if cfg.Web.Address != "" {
			ret.Web.Address = cfg.Web.Address
		}
	}

	if cfg.Retention != nil {
		minAge, err := tasks.ParseDuration(cfg.Retention.MinAge)
		if err != nil {
			return nil, fmt.Errorf("error reading config at retention.minAge: %w", err)
		}
		ret.Retention = &config.RetentionConfig{
			MinAge:   minAge,
			Interval: 1 * time.Hour,
		}
		if cfg.Retention.Interval != "" {
			interval, err := time.ParseDuration(cfg.Retention.Interval)
			if err != nil {
				return nil, fmt.Errorf("error reading config at retention.interval: %w", err)
			}
			ret.Retention.Interval = interval
		}
	}

	return ret, nil
}

// Finalize fills in the values that can only be known at runtime and validates the result.
func Finalize(cfg *config.Config, logger *zap.Logger) error {
	if cfg.HostName == "" {
		hostName, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("error getting host name: %w", err)
		}
		logger.Info("no hostName in configuration, using host name from operating system", zap.String("hostName", hostName))
		cfg.HostName = hostName
	}
	return Validate(cfg)
}

func Validate(cfg *config.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch cfg.Output.Type {
	case config.OutputTypeSqlite:
		if cfg.SQLite == nil {
			return fmt.Errorf("invalid configuration: output.type=%s requires sqlite configuration", cfg.Output.Type)
		}
	case config.OutputTypePostgres:
		if cfg.Postgres == nil {
			return fmt.Errorf("invalid configuration: output.type=%s requires postgres configuration", cfg.Output.Type)
		}
	}
	if cfg.Retention != nil && cfg.Output.Type == config.OutputTypeStdout {
		return fmt.Errorf("invalid configuration: retention requires events to be stored, but output.type=%s", cfg.Output.Type)
	}
	if cfg.Engine.Encoding != "" && cfg.Engine.Encoding != structure.EncodingAuto {
		if _, err := structure.LookupEncoding(cfg.Engine.Encoding); err != nil {
			return fmt.Errorf("invalid configuration at engine.encoding: %w", err)
		}
	}
	return nil
}
