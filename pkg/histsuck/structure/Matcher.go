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
	"errors"

	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
)

var ErrNoMatch = errors.New("no structure in the catalog matched")

type MatchResult struct {
	Kind      Kind
	Structure string
	Tree      grammar.Tree
	Consumed  int
	Warnings  []grammar.Warning
}

// Matcher tries the structures of a catalog in order at the cursor of a StreamBuffer.
type Matcher struct {
	catalog *Catalog
}

func NewMatcher(catalog *Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// MatchNext returns the first structure in catalog order that matches at the cursor.
// If a structure cannot be decided without more input, the buffer is grown and matching
// starts over from the first structure. The cursor is not moved.
func (m *Matcher) MatchNext(buf *StreamBuffer) (*MatchResult, error) {
	for {
		needMore := false
		text, complete := buf.Remaining(), buf.Complete()
		for _, e := range m.catalog.entries {
			res, err := grammar.Parse(e.Grammar, text, complete)
			if errors.Is(err, grammar.ErrNeedMore) {
				needMore = true
				break
			}
			if err != nil {
				continue
			}
			return &MatchResult{
				Kind:      e.Kind,
				Structure: e.Name,
				Tree:      res.Tree,
				Consumed:  res.Consumed,
				Warnings:  res.Warnings,
			}, nil
		}
		if !needMore {
			return nil, ErrNoMatch
		}
		if err := buf.Grow(); err != nil {
			return nil, err
		}
	}
}
