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

// Package grammar is a small combinator library for line oriented text formats.
//
// A Grammar is matched against a prefix of a text and produces a flat list of tokens,
// where Group and Named produce nested tokens. Literal, Word and LineEnd skip spaces and
// tabs before matching. Newlines are never skipped implicitly, they have to be matched
// by LineEnd or BlankLines.
//
// Matching is done against a text that may only be a prefix of the whole input. Whenever
// a grammar needs to look past the end of an incomplete text the match is reported as
// ErrNeedMore so that the caller can buffer more input and try again.
package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Nums      = "0123456789"
	Alphas    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Alphanums = Alphas + Nums
)

// Printables contains every printable, non whitespace ASCII character.
var Printables = func() string {
	var sb strings.Builder
	for c := byte(33); c < 127; c++ {
		sb.WriteByte(c)
	}
	return sb.String()
}()

var ErrNoMatch = errors.New("no match")
var ErrNeedMore = errors.New("more input is required to complete the match")

// Warning is a recoverable problem found while matching. Offset is the byte offset of the
// problem from the start of the matched text.
type Warning struct {
	Offset  int
	Message string
}

// Match is the result of a successful Parse.
type Match struct {
	Tree     Tree
	Consumed int
	Warnings []Warning
}

type Grammar interface {
	match(in *input, pos int) (result, bool)
}

type input struct {
	text     string
	complete bool
	needMore bool
}

// hitEnd is called by every grammar that needed to look at text beyond the end of the input.
func (in *input) hitEnd() {
	if !in.complete {
		in.needMore = true
	}
}

type result struct {
	end      int
	tokens   []Token
	warnings []Warning
}

// Parse matches g against the start of text. complete must be true if text contains
// everything that is left of the input.
// A match that consumes nothing is reported as ErrNoMatch.
func Parse(g Grammar, text string, complete bool) (*Match, error) {
	in := &input{text: text, complete: complete}
	res, ok := g.match(in, 0)
	if in.needMore {
		return nil, ErrNeedMore
	}
	if !ok || res.end == 0 {
		return nil, ErrNoMatch
	}
	return &Match{
		Tree:     Tree{Tokens: res.tokens},
		Consumed: res.end,
		Warnings: res.warnings,
	}, nil
}

func skipInline(text string, pos int) int {
	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	return pos
}

type literal struct {
	s string
}

// Literal matches s exactly.
func Literal(s string) Grammar {
	return literal{s: s}
}

func (l literal) match(in *input, pos int) (result, bool) {
	pos = skipInline(in.text, pos)
	rest := in.text[pos:]
	if strings.HasPrefix(rest, l.s) {
		return result{end: pos + len(l.s), tokens: []Token{leaf(l.s)}}, true
	}
	if len(rest) < len(l.s) && strings.HasPrefix(l.s, rest) {
		in.hitEnd()
	}
	return result{}, false
}

type word struct {
	chars string
	exact int
}

// Word matches the longest non empty run of characters from chars.
func Word(chars string) Grammar {
	return word{chars: chars}
}

// ExactWord matches a run of exactly n characters from chars. A longer run does not match.
func ExactWord(chars string, n int) Grammar {
	return word{chars: chars, exact: n}
}

func (w word) match(in *input, pos int) (result, bool) {
	pos = skipInline(in.text, pos)
	i := pos
	count := 0
	for i < len(in.text) {
		r, size := utf8.DecodeRuneInString(in.text[i:])
		if !strings.ContainsRune(w.chars, r) {
			break
		}
		i += size
		count++
	}
	if i == len(in.text) {
		in.hitEnd()
	}
	if count == 0 || (w.exact > 0 && count != w.exact) {
		return result{}, false
	}
	return result{end: i, tokens: []Token{leaf(in.text[pos:i])}}, true
}

type restOfLine struct{}

// RestOfLine matches everything up to, but not including, the next line terminator.
// Leading whitespace is kept. The match may be empty.
func RestOfLine() Grammar {
	return restOfLine{}
}

func (restOfLine) match(in *input, pos int) (result, bool) {
	end := len(in.text)
	if idx := strings.IndexByte(in.text[pos:], '\n'); idx >= 0 {
		end = pos + idx
	} else {
		in.hitEnd()
	}
	text := strings.TrimSuffix(in.text[pos:end], "\r")
	return result{end: end, tokens: []Token{leaf(text)}}, true
}

type lineEnd struct{}

// LineEnd matches a line terminator, or the end of the input. It produces no tokens.
func LineEnd() Grammar {
	return lineEnd{}
}

func (lineEnd) match(in *input, pos int) (result, bool) {
	pos = skipInline(in.text, pos)
	rest := in.text[pos:]
	switch {
	case strings.HasPrefix(rest, "\n"):
		return result{end: pos + 1}, true
	case strings.HasPrefix(rest, "\r\n"):
		return result{end: pos + 2}, true
	case rest == "" || rest == "\r":
		in.hitEnd()
		if !in.complete {
			return result{}, false
		}
		return result{end: len(in.text)}, true
	}
	return result{}, false
}

type tab struct{}

// Tab matches exactly one tab character without skipping any whitespace before it.
func Tab() Grammar {
	return tab{}
}

func (tab) match(in *input, pos int) (result, bool) {
	if pos >= len(in.text) {
		in.hitEnd()
		return result{}, false
	}
	if in.text[pos] != '\t' {
		return result{}, false
	}
	return result{end: pos + 1, tokens: []Token{leaf("\t")}}, true
}

type blankLines struct{}

// BlankLines matches zero or more lines that contain nothing but whitespace.
func BlankLines() Grammar {
	return blankLines{}
}

func (blankLines) match(in *input, pos int) (result, bool) {
	for {
		i := pos
		for i < len(in.text) && (in.text[i] == ' ' || in.text[i] == '\t' || in.text[i] == '\r') {
			i++
		}
		if i == len(in.text) {
			in.hitEnd()
			if in.complete {
				pos = i
			}
			break
		}
		if in.text[i] != '\n' {
			break
		}
		pos = i + 1
	}
	return result{end: pos}, true
}

type seq struct {
	parts []Grammar
}

// Seq matches every grammar in order.
func Seq(parts ...Grammar) Grammar {
	return seq{parts: parts}
}

func (s seq) match(in *input, pos int) (result, bool) {
	res := result{end: pos}
	for _, p := range s.parts {
		r, ok := p.match(in, res.end)
		if !ok {
			return result{}, false
		}
		res.end = r.end
		res.tokens = append(res.tokens, r.tokens...)
		res.warnings = append(res.warnings, r.warnings...)
	}
	return res, true
}

type optional struct {
	g Grammar
}

// Optional matches g if possible and otherwise matches nothing.
func Optional(g Grammar) Grammar {
	return optional{g: g}
}

func (o optional) match(in *input, pos int) (result, bool) {
	if r, ok := o.g.match(in, pos); ok {
		return r, true
	}
	return result{end: pos}, true
}

type zeroOrMore struct {
	g Grammar
}

// ZeroOrMore matches g repeatedly until it fails or stops consuming input.
func ZeroOrMore(g Grammar) Grammar {
	return zeroOrMore{g: g}
}

func (z zeroOrMore) match(in *input, pos int) (result, bool) {
	res := result{end: pos}
	for {
		r, ok := z.g.match(in, res.end)
		if !ok || r.end == res.end {
			return res, true
		}
		res.end = r.end
		res.tokens = append(res.tokens, r.tokens...)
		res.warnings = append(res.warnings, r.warnings...)
	}
}

type grouped struct {
	name string
	g    Grammar
}

// Group wraps the tokens of g in a single group token.
func Group(g Grammar) Grammar {
	return grouped{g: g}
}

// Named is like Group but also names the group so that it can be found with Tree.Items.
func Named(name string, g Grammar) Grammar {
	return grouped{name: name, g: g}
}

func (gr grouped) match(in *input, pos int) (result, bool) {
	r, ok := gr.g.match(in, pos)
	if !ok {
		return result{}, false
	}
	return result{end: r.end, tokens: []Token{group(gr.name, r.tokens)}, warnings: r.warnings}, true
}

type suppress struct {
	g Grammar
}

// Suppress matches g but drops its tokens.
func Suppress(g Grammar) Grammar {
	return suppress{g: g}
}

func (s suppress) match(in *input, pos int) (result, bool) {
	r, ok := s.g.match(in, pos)
	if !ok {
		return result{}, false
	}
	return result{end: r.end, warnings: r.warnings}, true
}

type longest struct {
	alternatives []Grammar
}

// Or matches the alternative that consumes the most input. Ties go to the earliest alternative.
func Or(alternatives ...Grammar) Grammar {
	return longest{alternatives: alternatives}
}

func (l longest) match(in *input, pos int) (result, bool) {
	var best result
	found := false
	for _, a := range l.alternatives {
		r, ok := a.match(in, pos)
		if ok && (!found || r.end > best.end) {
			best = r
			found = true
		}
	}
	return best, found
}

type items struct {
	name   string
	strict Grammar
	loose  Grammar
}

// Items matches zero or more items. Every item matching strict becomes a group named name.
// When strict fails but loose matches, the item is skipped and a Warning is recorded
// instead of ending the repetition. loose should describe the line layout of an item
// without constraining its fields. A nil loose disables recovery.
func Items(name string, strict Grammar, loose Grammar) Grammar {
	return items{name: name, strict: strict, loose: loose}
}

func (it items) match(in *input, pos int) (result, bool) {
	res := result{end: pos}
	for {
		if r, ok := it.strict.match(in, res.end); ok && r.end > res.end {
			res.tokens = append(res.tokens, group(it.name, r.tokens))
			res.warnings = append(res.warnings, r.warnings...)
			res.end = r.end
			continue
		}
		if it.loose == nil {
			break
		}
		r, ok := it.loose.match(in, res.end)
		if !ok || r.end == res.end {
			break
		}
		res.warnings = append(res.warnings, Warning{
			Offset:  res.end,
			Message: fmt.Sprintf("malformed item in %s was skipped", it.name),
		})
		res.end = r.end
	}
	return res, true
}
