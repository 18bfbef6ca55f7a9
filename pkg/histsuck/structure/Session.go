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

package structure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/zap"
)

type State int

const (
	StateSniffing State = iota
	StateScanning
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateSniffing:
		return "Sniffing"
	case StateScanning:
		return "Scanning"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Options struct {
	// BufferSize is the size of the verification window and of the smallest read. Defaults to DefaultBufferSize.
	BufferSize int
	// MaxRecordSize is the largest amount of text a single structure may span. Defaults to DefaultMaxRecordSize.
	MaxRecordSize int
	// Strict makes the session abort on the first unrecognized line instead of skipping it.
	Strict bool
	// Encoding is the name of the text encoding of the artifact, or EncodingAuto. Empty means UTF-8.
	Encoding string
}

// Session parses one artifact with one format. A Session is used by a single goroutine
// and cannot be reused once it is Done or Aborted.
type Session struct {
	format  Format
	buf     *StreamBuffer
	matcher *Matcher
	opts    Options
	logger  *zap.Logger

	state             State
	encodingAttempted bool
	report            Report
}

func NewSession(f Format, sourceName string, r io.Reader, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		format:  f,
		buf:     NewStreamBuffer(r, opts.BufferSize, opts.MaxRecordSize),
		matcher: NewMatcher(f.Catalog()),
		opts:    opts,
		logger:  logger.With(zap.String("format", f.Name()), zap.String("source", sourceName)),
		state:   StateSniffing,
		report: Report{
			Source: sourceName,
			Format: f.Name(),
		},
	}
}

func (s *Session) State() State {
	return s.state
}

// Verify checks that the artifact starts with the preamble of the format without consuming
// any input. A session that fails verification stays in StateSniffing and must not be scanned.
func (s *Session) Verify() (bool, error) {
	if s.state != StateSniffing {
		return false, fmt.Errorf("error verifying: session is in state=%v", s.state)
	}
	window, err := s.buf.Window()
	if err != nil {
		s.state = StateAborted
		return false, err
	}
	if !Verify(s.format, window) {
		s.logger.Debug("verification failed", zap.Int("windowSize", len(window)))
		return false, nil
	}
	if err := s.configureEncoding(window); err != nil {
		s.state = StateAborted
		return false, err
	}
	return true, nil
}

// Run verifies the artifact and then scans it.
func (s *Session) Run(ctx context.Context, pub events.Publisher) (*Report, error) {
	ok, err := s.Verify()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ParseError{
			Kind: VerificationMismatch,
			Msg:  fmt.Sprintf("the input does not start with a %s preamble", s.format.Name()),
		}
	}
	return s.Scan(ctx, pub)
}

// Scan reads structures until the input is exhausted and publishes the records built from
// them. On failure the partial report is discarded, but records that were already published
// are not retracted.
func (s *Session) Scan(ctx context.Context, pub events.Publisher) (*Report, error) {
	if s.state != StateSniffing {
		return nil, fmt.Errorf("error scanning: session is in state=%v", s.state)
	}
	if !s.encodingAttempted {
		window, err := s.buf.Window()
		if err != nil {
			return s.abort(err)
		}
		if err := s.configureEncoding(window); err != nil {
			return s.abort(err)
		}
	}
	s.state = StateScanning
	for {
		if err := ctx.Err(); err != nil {
			return s.abort(err)
		}
		if err := s.buf.SkipBlankLines(); err != nil {
			return s.abort(err)
		}
		if s.buf.Exhausted() {
			break
		}
		line := s.buf.Line()
		m, err := s.matcher.MatchNext(s.buf)
		if errors.Is(err, ErrNoMatch) {
			skipped, err := s.buf.SkipLine()
			if err != nil {
				return s.abort(err)
			}
			pe := &ParseError{
				Kind: UnrecognizedLine,
				Line: line,
				Msg:  fmt.Sprintf("no structure matched line=%q", truncate(skipped, 80)),
			}
			if s.opts.Strict {
				return s.abort(pe)
			}
			s.warn(Warning{Kind: UnrecognizedLine, Line: line, Message: pe.Msg})
			continue
		} else if err != nil {
			return s.abort(err)
		}
		offsets := make([]int, len(m.Warnings))
		for i, w := range m.Warnings {
			offsets[i] = w.Offset
		}
		lines := s.buf.LinesAt(offsets)
		for i, w := range m.Warnings {
			s.warn(Warning{
				Kind:      MalformedField,
				Line:      lines[i],
				Structure: m.Structure,
				Message:   w.Message,
			})
		}
		built, err := s.format.Dispatch(m.Kind, m.Tree)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) && pe.Line == 0 {
				pe.Line = line
			}
			return s.abort(fmt.Errorf("error building records for structure=%s at line=%d: %w", m.Structure, line, err))
		}
		for _, msg := range built.Malformed {
			s.warn(Warning{Kind: MalformedField, Line: line, Structure: m.Structure, Message: msg})
		}
		for _, evt := range built.Events {
			pub.PublishEvent(evt)
		}
		s.report.Records += len(built.Events)
		s.logger.Debug("matched structure",
			zap.String("structure", m.Structure),
			zap.Int("line", line),
			zap.Int("records", len(built.Events)))
		s.buf.Advance(m.Consumed)
	}
	s.state = StateDone
	s.logger.Info("finished scanning",
		zap.Int("records", s.report.Records),
		zap.Int("warnings", len(s.report.Warnings)))
	report := s.report
	return &report, nil
}

func (s *Session) configureEncoding(window []byte) error {
	s.encodingAttempted = true
	name := s.opts.Encoding
	if strings.EqualFold(name, EncodingAuto) {
		name = ""
		if d, ok := s.format.(EncodingDeclarer); ok {
			name = d.DeclaredEncoding(window)
		}
		enc, err := LookupEncoding(name)
		if err != nil {
			s.logger.Warn("declared encoding is not supported, falling back to utf-8",
				zap.String("encoding", name), zap.Error(err))
			return nil
		}
		return s.buf.SetEncoding(enc)
	}
	enc, err := LookupEncoding(name)
	if err != nil {
		return fmt.Errorf("error configuring encoding: %w", err)
	}
	return s.buf.SetEncoding(enc)
}

func (s *Session) warn(w Warning) {
	s.report.Warnings = append(s.report.Warnings, w)
	s.logger.Warn("recovered from parse problem", zap.Stringer("warning", w))
}

func (s *Session) abort(err error) (*Report, error) {
	s.state = StateAborted
	s.logger.Warn("aborted scanning", zap.Int("line", s.buf.Line()), zap.Error(err))
	return nil, err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
