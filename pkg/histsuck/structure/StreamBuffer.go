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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	DefaultBufferSize    = 16384
	DefaultMaxRecordSize = 64 * 1024 * 1024
)

// StreamBuffer holds the decoded text between the read cursor and the furthest point
// that has been read from the underlying reader. Input is only read in Grow, and the
// cursor only moves forward.
type StreamBuffer struct {
	raw        *bufio.Reader
	windowSize int
	decoded    io.Reader
	enc        encoding.Encoding

	chunk         []byte
	maxRecordSize int

	text   string
	cursor int
	line   int
	eof    bool
}

func NewStreamBuffer(r io.Reader, bufferSize int, maxRecordSize int) *StreamBuffer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if maxRecordSize <= 0 {
		maxRecordSize = DefaultMaxRecordSize
	}
	windowSize := bufferSize
	if windowSize < DefaultBufferSize {
		windowSize = DefaultBufferSize
	}
	return &StreamBuffer{
		raw:           bufio.NewReaderSize(r, windowSize),
		windowSize:    windowSize,
		chunk:         make([]byte, bufferSize),
		maxRecordSize: maxRecordSize,
		line:          1,
	}
}

// Window returns the start of the raw input without consuming it. The window is one
// chunk, but never smaller than DefaultBufferSize. It must only be called before the first call to Grow.
func (b *StreamBuffer) Window() ([]byte, error) {
	if b.decoded != nil {
		return nil, errors.New("error peeking window: reading has already started")
	}
	w, err := b.raw.Peek(b.windowSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("error peeking window: %w", err)
	}
	return w, nil
}

// SetEncoding sets the encoding used to decode the input. It must be called before the first call to Grow.
func (b *StreamBuffer) SetEncoding(enc encoding.Encoding) error {
	if b.decoded != nil {
		return errors.New("error setting encoding: reading has already started")
	}
	b.enc = enc
	return nil
}

// Grow reads more input. A read is one chunk, or as much text as is already pending if
// that is more, so a structure spanning many chunks is read in doubling steps. Grow returns
// io.EOF if the input was already exhausted.
func (b *StreamBuffer) Grow() error {
	if b.eof {
		return io.EOF
	}
	if b.decoded == nil {
		enc := b.enc
		if enc == nil {
			enc = unicode.UTF8BOM
		}
		b.decoded = transform.NewReader(b.raw, enc.NewDecoder())
	}
	pending := len(b.text) - b.cursor
	if pending >= b.maxRecordSize {
		return &ParseError{
			Kind: RecordTooLarge,
			Line: b.line,
			Msg:  fmt.Sprintf("a single structure would need more than maxRecordSize=%d bytes", b.maxRecordSize),
		}
	}
	readBuf := b.chunk
	if size := min(max(pending, len(b.chunk)), b.maxRecordSize-pending); size != len(b.chunk) {
		readBuf = make([]byte, size)
	}
	n, err := io.ReadFull(b.decoded, readBuf)
	if n > 0 {
		b.text = b.text[b.cursor:] + string(readBuf[:n])
		b.cursor = 0
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		b.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// Remaining returns the buffered text that has not been consumed yet.
func (b *StreamBuffer) Remaining() string {
	return b.text[b.cursor:]
}

// Complete reports whether Remaining contains everything that is left of the input.
func (b *StreamBuffer) Complete() bool {
	return b.eof
}

// Exhausted reports whether all of the input has been read and consumed.
func (b *StreamBuffer) Exhausted() bool {
	return b.eof && b.cursor == len(b.text)
}

// Line returns the 1-based line number of the cursor.
func (b *StreamBuffer) Line() int {
	return b.line
}

// LineAt returns the line number of the given byte offset into Remaining.
func (b *StreamBuffer) LineAt(offset int) int {
	return b.LinesAt([]int{offset})[0]
}

// LinesAt is LineAt for several offsets. Offsets in ascending order are counted in a single pass.
func (b *StreamBuffer) LinesAt(offsets []int) []int {
	rem := b.Remaining()
	ret := make([]int, len(offsets))
	line, counted := b.line, 0
	for i, offset := range offsets {
		offset = min(offset, len(rem))
		if offset < counted {
			line, counted = b.line, 0
		}
		line += strings.Count(rem[counted:offset], "\n")
		counted = offset
		ret[i] = line
	}
	return ret
}

// Advance consumes n bytes.
func (b *StreamBuffer) Advance(n int) {
	rem := b.Remaining()
	if n > len(rem) {
		n = len(rem)
	}
	b.line += strings.Count(rem[:n], "\n")
	b.cursor += n
}

// ensureLine grows the buffer until it holds a complete line or the input is exhausted.
func (b *StreamBuffer) ensureLine() error {
	for !b.eof && strings.IndexByte(b.Remaining(), '\n') < 0 {
		if err := b.Grow(); err != nil {
			return err
		}
	}
	return nil
}

// SkipLine consumes the current line including its line terminator and returns it without the terminator.
func (b *StreamBuffer) SkipLine() (string, error) {
	if err := b.ensureLine(); err != nil {
		return "", err
	}
	rem := b.Remaining()
	idx := strings.IndexByte(rem, '\n')
	if idx < 0 {
		b.Advance(len(rem))
		return strings.TrimSuffix(rem, "\r"), nil
	}
	b.Advance(idx + 1)
	return strings.TrimSuffix(rem[:idx], "\r"), nil
}

// SkipBlankLines consumes lines that contain nothing but whitespace.
func (b *StreamBuffer) SkipBlankLines() error {
	for {
		if err := b.ensureLine(); err != nil {
			return err
		}
		rem := b.Remaining()
		if rem == "" {
			return nil
		}
		idx := strings.IndexByte(rem, '\n')
		line := rem
		if idx >= 0 {
			line = rem[:idx+1]
		}
		if strings.TrimSpace(line) != "" {
			return nil
		}
		b.Advance(len(line))
	}
}
