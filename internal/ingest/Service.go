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

package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackbister/histsuck/internal/events"
	"github.com/jackbister/histsuck/internal/formats"
	"github.com/jackbister/histsuck/pkg/histsuck/config"
	api "github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// Window limits the published events to those recorded within [StartTime, EndTime).
type Window struct {
	StartTime *time.Time
	EndTime   *time.Time
}

type Service struct {
	cfg      *config.Config
	registry *formats.Registry
	output   events.Output

	logger *zap.Logger
}

type ServiceParams struct {
	dig.In

	Cfg      *config.Config
	Registry *formats.Registry
	Output   events.Output
	Logger   *zap.Logger
}

func NewService(p ServiceParams) *Service {
	return &Service{
		cfg:      p.Cfg,
		registry: p.Registry,
		output:   p.Output,
		logger:   p.Logger.Named("ingest"),
	}
}

// IngestFile parses the file at path and publishes its events to the output. Every call
// gets a new source id.
func (s *Service) IngestFile(ctx context.Context, path string, window Window) (*structure.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file=%s: %w", path, err)
	}
	defer f.Close()
	src := api.Source{
		Host: s.cfg.HostName,
		Name: path,
		Id:   uuid.NewString(),
	}
	pub := events.TimeWindowPublisher(s.output.ForSource(src), window.StartTime, window.EndTime)
	return s.Parse(ctx, path, f, pub)
}

// Parse parses r with the configured format, or the detected format if none is configured,
// and publishes the events to pub.
func (s *Service) Parse(ctx context.Context, name string, r io.Reader, pub api.Publisher) (*structure.Report, error) {
	br := bufio.NewReaderSize(r, s.windowSize())
	format, err := s.selectFormat(br)
	if err != nil {
		return nil, fmt.Errorf("error selecting format for file=%s: %w", name, err)
	}
	session := structure.NewSession(format, name, br, structure.Options{
		BufferSize:    s.cfg.Engine.BufferSize,
		MaxRecordSize: s.cfg.Engine.MaxRecordSize,
		Strict:        s.cfg.Engine.Strict,
		Encoding:      s.cfg.Engine.Encoding,
	}, s.logger)
	report, err := session.Run(ctx, pub)
	if err != nil {
		return nil, fmt.Errorf("error parsing file=%s as format=%s: %w", name, format.Name(), err)
	}
	s.logger.Info("parsed file",
		zap.String("fileName", name),
		zap.String("format", format.Name()),
		zap.Int("records", report.Records),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}

// Detect returns the format of r without parsing it.
func (s *Service) Detect(r io.Reader) (formats.Format, error) {
	return s.selectFormat(bufio.NewReaderSize(r, s.windowSize()))
}

func (s *Service) selectFormat(br *bufio.Reader) (formats.Format, error) {
	if s.cfg.Engine.Format != "" {
		f, ok := s.registry.Get(s.cfg.Engine.Format)
		if !ok {
			return nil, fmt.Errorf("unknown format=%s, known formats are %v", s.cfg.Engine.Format, s.registry.Names())
		}
		return f, nil
	}
	window, err := br.Peek(s.windowSize())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("error reading start of file: %w", err)
	}
	f, ok := s.registry.Detect(window)
	if !ok {
		return nil, &structure.ParseError{
			Kind: structure.VerificationMismatch,
			Msg:  fmt.Sprintf("the input does not match any of the formats %v", s.registry.Names()),
		}
	}
	return f, nil
}

func (s *Service) windowSize() int {
	if s.cfg.Engine.BufferSize > structure.DefaultBufferSize {
		return s.cfg.Engine.BufferSize
	}
	return structure.DefaultBufferSize
}
