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

// Package bashhistory reads bash history files written with HISTTIMEFORMAT set, where every
// command is preceded by a comment line holding the time it was run.
package bashhistory

import (
	"fmt"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
)

const (
	Name        = "bashhistory"
	DataType    = "bash:history"
	HistoryType = "Bash History"
)

const (
	KindHistory structure.Kind = iota
)

var lineEnd = grammar.Suppress(grammar.LineEnd())

var timestampLine = grammar.Seq(grammar.Suppress(grammar.Literal("#")), grammar.ExactWord(grammar.Nums, 10), lineEnd)

// Tokens: 0 timestamp, 1 command.
var historyItem = grammar.Seq(timestampLine, grammar.RestOfLine(), lineEnd)

var catalog = structure.MustCatalog(
	structure.NamedGrammar{Kind: KindHistory, Name: "history", Grammar: grammar.Items(
		"history_items",
		historyItem,
		grammar.Seq(grammar.Literal("#"), grammar.RestOfLine(), lineEnd, grammar.RestOfLine(), lineEnd),
	)},
)

type Format struct{}

func New() *Format {
	return &Format{}
}

func (f *Format) Name() string {
	return Name
}

func (f *Format) DataType() string {
	return DataType
}

func (f *Format) Preamble() grammar.Grammar {
	return timestampLine
}

func (f *Format) Catalog() *structure.Catalog {
	return catalog
}

func (f *Format) Dispatch(kind structure.Kind, tree grammar.Tree) (structure.Built, error) {
	switch kind {
	case KindHistory:
		var ret structure.Built
		for i, item := range tree.Items("history_items") {
			ts, err := structure.PosixSeconds(item.Get(0).Text)
			if err != nil {
				ret.Malformed = append(ret.Malformed, fmt.Sprintf("skipped command %d: %v", i, err))
				continue
			}
			command := item.Get(1).Text
			ret.Events = append(ret.Events, events.Event{
				DataType:     DataType,
				HistoryType:  HistoryType,
				HistoryValue: &command,
				ItemNumber:   i,
				RecordedTime: ts,
			})
		}
		return ret, nil
	default:
		return structure.Built{}, structure.UnknownKindError(kind)
	}
}
