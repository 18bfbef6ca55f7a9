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
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/ingest"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse history files and write the extracted events to the configured output",
		Long:  "Parse history files and write the extracted events to the configured output. If no files are given, standard input is parsed.",
		RunE:  runParse,
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	c, logger, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Invoke(func(cfg *config.Config, window ingest.Window, svc *ingest.Service, out events.Output) error {
		defer func() {
			if err := out.Close(); err != nil {
				logger.Error("got error when closing output", zap.Error(err))
			}
		}()
		if len(args) == 0 {
			src := api.Source{Host: cfg.HostName, Name: "stdin", Id: uuid.NewString()}
			pub := events.TimeWindowPublisher(out.ForSource(src), window.StartTime, window.EndTime)
			report, err := svc.Parse(ctx, src.Name, os.Stdin, pub)
			if err != nil {
				return err
			}
			logReport(logger, report)
			return nil
		}
		failed := 0
		for _, file := range args {
			report, err := svc.IngestFile(ctx, file, window)
			if err != nil {
				logger.Error("failed to parse file", zap.String("fileName", file), zap.Error(err))
				failed++
				continue
			}
			logReport(logger, report)
		}
		if failed > 0 {
			return fmt.Errorf("failed to parse %d of %d files", failed, len(args))
		}
		return nil
	})
}

func logReport(logger *zap.Logger, report *structure.Report) {
	for _, w := range report.Warnings {
		logger.Warn("recovered from malformed input",
			zap.String("fileName", report.Source),
			zap.Stringer("warning", w))
	}
	logger.Info(report.String(), zap.String("fileName", report.Source), zap.String("format", report.Format))
}
