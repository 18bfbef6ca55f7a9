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

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	internalConfig "github.com/jackbister/histsuck/internal/config"
	"github.com/jackbister/histsuck/internal/dependencyinjection"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
)

var versionString string // This must be set using -ldflags "-X main.versionString=<version>" when building for --version to work

var rootCmd = struct {
	cobra.Command
	configFile   string
	hostName     string
	format       string
	encoding     string
	bufferSize   int
	strict       bool
	output       string
	databaseFile string
	postgres     string
	since        string
	until        string
	verbose      bool
}{
	Command: cobra.Command{
		Use:          "histsuck",
		Short:        "Extract timestamped history records from viminfo and shell history files",
		SilenceUsage: true,
	},
}

func init() {
	rootCmd.Version = versionString
	if rootCmd.Version == "" {
		rootCmd.Version = "(unknown version)"
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootCmd.configFile, "config", "histsuck.json", "The name of the file containing the configuration for histsuck. If the file does not exist the default configuration is used. Flags override values from the file.")
	pf.StringVar(&rootCmd.hostName, "host", "", "The host name stored with every event. Defaults to the host name of this machine.")
	pf.StringVar(&rootCmd.format, "format", "", "Parse every file as the given format instead of detecting the format from the start of the file.")
	pf.StringVar(&rootCmd.encoding, "encoding", "", "The text encoding of the parsed files, or 'auto' to use the encoding declared in the file.")
	pf.IntVar(&rootCmd.bufferSize, "buffer-size", 0, "The number of bytes read at a time.")
	pf.BoolVar(&rootCmd.strict, "strict", false, "Stop parsing a file at the first line that is not recognized instead of skipping it.")
	pf.StringVar(&rootCmd.output, "output", "", "Where parsed events are written. One of stdout, sqlite or postgres.")
	pf.StringVar(&rootCmd.databaseFile, "dbfile", "", "The name of the file in which events are stored when the output is sqlite. If the name ':memory:' is used, no file will be created.")
	pf.StringVar(&rootCmd.postgres, "postgres", "", "The connection string used when the output is postgres.")
	pf.StringVar(&rootCmd.since, "since", "", "Only publish events recorded at or after this time.")
	pf.StringVar(&rootCmd.until, "until", "", "Only publish events recorded before this time.")
	pf.BoolVarP(&rootCmd.verbose, "verbose", "v", false, "Log at debug level.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if rootCmd.verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zapCfg.Build()
}

// loadConfig reads the configuration file if it exists and applies the flags that were set on cmd.
func loadConfig(cmd *cobra.Command, logger *zap.Logger) (*config.Config, error) {
	cfg := internalConfig.Default()
	cfgFile, err := os.Open(rootCmd.configFile)
	if err == nil {
		defer cfgFile.Close()
		cfg, err = internalConfig.FromJSON(cfgFile, logger)
		if err != nil {
			return nil, fmt.Errorf("error reading configuration from file=%s: %w", rootCmd.configFile, err)
		}
		logger.Info("using configuration from file", zap.String("fileName", rootCmd.configFile))
	} else if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("could not find configuration file, will use default configuration", zap.String("fileName", rootCmd.configFile))
	} else {
		return nil, fmt.Errorf("error opening configuration file=%s: %w", rootCmd.configFile, err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.HostName = rootCmd.hostName
	}
	if flags.Changed("format") {
		cfg.Engine.Format = rootCmd.format
	}
	if flags.Changed("encoding") {
		cfg.Engine.Encoding = rootCmd.encoding
	}
	if flags.Changed("buffer-size") {
		cfg.Engine.BufferSize = rootCmd.bufferSize
	}
	if flags.Changed("strict") {
		cfg.Engine.Strict = rootCmd.strict
	}
	if flags.Changed("output") {
		cfg.Output.Type = rootCmd.output
	}
	if flags.Changed("dbfile") {
		cfg.SQLite = &config.SqliteConfig{DatabaseFile: rootCmd.databaseFile}
	}
	if flags.Changed("postgres") {
		cfg.Postgres = &config.PostgresConfig{ConnectionString: rootCmd.postgres}
	}
	return cfg, nil
}

func parseWindow() (ingest.Window, error) {
	var w ingest.Window
	parse := func(name, s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := dateparse.ParseStrict(s)
		if err != nil {
			return nil, fmt.Errorf("error parsing --%s=%s: %w", name, s, err)
		}
		return &t, nil
	}
	var err error
	if w.StartTime, err = parse("since", rootCmd.since); err != nil {
		return w, err
	}
	if w.EndTime, err = parse("until", rootCmd.until); err != nil {
		return w, err
	}
	if w.StartTime != nil && w.EndTime != nil && !w.StartTime.Before(*w.EndTime) {
		return w, fmt.Errorf("--since=%s must be before --until=%s", rootCmd.since, rootCmd.until)
	}
	return w, nil
}

// setup loads the configuration, lets modify adjust it and creates the injection context.
func setup(cmd *cobra.Command, modify func(cfg *config.Config)) (*dig.Container, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("error creating logger: %w", err)
	}
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return nil, nil, err
	}
	if modify != nil {
		modify(cfg)
	}
	err = internalConfig.Finalize(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	window, err := parseWindow()
	if err != nil {
		return nil, nil, err
	}
	c, err := dependencyinjection.InjectionContextFromConfig(cfg, window, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating injection context: %w", err)
	}
	return c, logger, nil
}
