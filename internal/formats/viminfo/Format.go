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

// Package viminfo extracts command, search, expression, input and debug history, registers,
// file marks and the jump list from the .viminfo files written by Vim.
package viminfo

import (
	"fmt"
	"strings"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
)

const (
	Name     = "viminfo"
	DataType = "viminfo:history"
)

const (
	KindPreamble structure.Kind = iota
	KindCommandLineHistory
	KindHlsearch
	KindSearchPattern
	KindSubstituteSearch
	KindSubstituteString
	KindSearchStringHistory
	KindExpressionHistory
	KindInputLineHistory
	KindDebugLineHistory
	KindRegistersHistory
	KindFilemarksHistory
	KindJumplistHistory
	KindHistoryMarksHistory
)

const (
	HistoryTypeCommandLine  = "Command Line History"
	HistoryTypeSearchString = "Search String History"
	HistoryTypeExpression   = "Expression History"
	HistoryTypeInputLine    = "Input Line History"
	HistoryTypeDebugLine    = "Debug Line History"
	HistoryTypeRegister     = "Register"
	HistoryTypeFileMark     = "File mark"
	HistoryTypeJumplist     = "Jumplist"
)

var (
	integer = grammar.Word(grammar.Nums)
	comma   = grammar.Suppress(grammar.Literal(","))
	lineEnd = grammar.Suppress(grammar.LineEnd())

	// |<type>,<flag>,<timestamp>,[<sep>],<value>
	barItem = grammar.Seq(
		grammar.Literal("|"),
		grammar.ExactWord(grammar.Nums, 1), comma,
		grammar.ExactWord(grammar.Nums, 1), comma,
		grammar.ExactWord(grammar.Nums, 10), comma,
		grammar.Optional(integer), comma,
		grammar.RestOfLine(), lineEnd,
	)

	// Any bar line. Used to step over items whose fields are malformed.
	looseBarLine = grammar.Seq(grammar.Literal("|"), grammar.RestOfLine(), lineEnd)

	registerContinuation = grammar.Seq(grammar.Literal("|<"), grammar.RestOfLine(), lineEnd)

	registerBarItem = grammar.Seq(
		grammar.Literal("|"),
		integer, comma,
		integer, comma,
		integer, comma,
		integer, comma,
		integer, comma,
		integer, comma,
		grammar.ExactWord(grammar.Nums, 10), comma,
		grammar.Group(grammar.Seq(grammar.RestOfLine(), lineEnd, grammar.ZeroOrMore(registerContinuation))),
	)

	filemarkBarItem = grammar.Group(grammar.Seq(
		grammar.Literal("|"),
		integer, comma,
		integer, comma,
		integer, comma,
		integer, comma,
		grammar.ExactWord(grammar.Nums, 10), comma,
		grammar.RestOfLine(), lineEnd,
	))
)

var preamble = grammar.Seq(
	grammar.Literal("# This viminfo file was generated by Vim "),
	grammar.Word(grammar.Nums+"."), lineEnd,
	grammar.Suppress(grammar.BlankLines()),
	grammar.Literal("# You may edit it if you're careful!"), lineEnd,
	grammar.Suppress(grammar.BlankLines()),
	grammar.Literal("# Viminfo version"), lineEnd,
	grammar.Literal("|"), grammar.Named("version", grammar.Word(grammar.Nums+",")), lineEnd,
	grammar.Suppress(grammar.BlankLines()),
	grammar.Literal("# Value of 'encoding' when this file was written"), lineEnd,
	grammar.Literal("*"), grammar.Literal("encoding="), grammar.Named("encoding", grammar.Word(grammar.Alphanums+"-")), lineEnd,
)

// historySection is a header followed by items that consist of a marker line and a bar line.
// In every item the value is token 1 and the timestamp is token 5.
func historySection(header string, items string, marker grammar.Grammar) grammar.Grammar {
	strict := grammar.Seq(marker, grammar.RestOfLine(), lineEnd, barItem)
	loose := grammar.Seq(marker, grammar.RestOfLine(), lineEnd, looseBarLine)
	return grammar.Seq(
		grammar.Literal(header), lineEnd,
		grammar.Items(items, strict, loose),
		grammar.Optional(lineEnd),
	)
}

// singleValueSection is a header followed by one value line and the bar lines that belong to it.
func singleValueSection(header string) grammar.Grammar {
	return grammar.Seq(
		grammar.Literal(header), lineEnd,
		grammar.RestOfLine(), lineEnd,
		grammar.ZeroOrMore(looseBarLine),
		grammar.Optional(lineEnd),
	)
}

var registersHistory = func() grammar.Grammar {
	content := grammar.Seq(grammar.Suppress(grammar.Tab()), grammar.RestOfLine(), lineEnd)
	// "<name>\t<type>\t<width>, content lines, bar line.
	// Tokens: 0 marker, 1 name, 2 type, 3 width, 4 content lines, 5 bar, 6-11 integers, 12 timestamp.
	strict := grammar.Seq(
		grammar.Literal(`"`),
		grammar.Or(integer, grammar.Word(grammar.Printables)),
		grammar.Suppress(grammar.Tab()),
		grammar.Or(grammar.Literal("BLOCK"), grammar.Literal("CHAR"), grammar.Literal("LINE")),
		grammar.Suppress(grammar.Tab()),
		integer, lineEnd,
		grammar.Group(grammar.ZeroOrMore(content)),
		registerBarItem,
	)
	loose := grammar.Seq(
		grammar.Literal(`"`), grammar.RestOfLine(), lineEnd,
		grammar.ZeroOrMore(grammar.Seq(grammar.Tab(), grammar.RestOfLine(), lineEnd)),
		looseBarLine,
		grammar.ZeroOrMore(registerContinuation),
	)
	return grammar.Seq(
		grammar.Literal("# Registers:"), lineEnd,
		grammar.Items("registers_items", strict, loose),
	)
}()

var filemarksHistory = func() grammar.Grammar {
	// Tokens: 0 marker, 1 mark, 2 line, 3 column, 4 file name, 5 bar item with the timestamp at 5.
	strict := grammar.Seq(
		grammar.Literal("'"),
		grammar.Word(grammar.Alphanums),
		integer,
		integer,
		grammar.RestOfLine(), lineEnd,
		filemarkBarItem,
	)
	loose := grammar.Seq(grammar.Literal("'"), grammar.RestOfLine(), lineEnd, looseBarLine)
	return grammar.Seq(
		grammar.Literal("# File marks:"), lineEnd,
		grammar.Items("filemarks_items", strict, loose),
		grammar.Optional(lineEnd),
	)
}()

var jumplistHistory = func() grammar.Grammar {
	// Tokens: 0 marker, 1 line, 2 column, 3 file name, 4 bar item with the timestamp at 5.
	strict := grammar.Seq(
		grammar.Word("-'"),
		integer,
		integer,
		grammar.RestOfLine(), lineEnd,
		filemarkBarItem,
	)
	loose := grammar.Seq(grammar.Literal("-'"), grammar.RestOfLine(), lineEnd, looseBarLine)
	return grammar.Seq(
		grammar.Literal("# Jumplist (newest first):"), lineEnd,
		grammar.Items("jumplist_items", strict, loose),
		grammar.Optional(lineEnd),
	)
}()

var historyMarksHistory = grammar.Seq(
	grammar.Literal("# History of marks within files (newest to oldest):"), lineEnd,
	grammar.ZeroOrMore(grammar.Seq(
		grammar.Suppress(grammar.BlankLines()),
		grammar.Or(
			grammar.Seq(grammar.Literal(">"), grammar.RestOfLine(), lineEnd),
			grammar.Seq(grammar.Tab(), grammar.RestOfLine(), lineEnd),
			looseBarLine,
		),
	)),
)

var catalog = structure.MustCatalog(
	structure.NamedGrammar{Kind: KindPreamble, Name: "preamble", Grammar: preamble},
	structure.NamedGrammar{Kind: KindCommandLineHistory, Name: "command_line_history", Grammar: historySection(
		"# Command Line History (newest to oldest):", "command_line_items", grammar.Literal(":"))},
	structure.NamedGrammar{Kind: KindHlsearch, Name: "hlsearch", Grammar: grammar.Seq(
		grammar.Literal("# hlsearch on (H) or off (h):"), lineEnd,
		grammar.Word("~/hH"), lineEnd)},
	structure.NamedGrammar{Kind: KindSearchPattern, Name: "search_pattern", Grammar: singleValueSection("# Last Search Pattern:")},
	structure.NamedGrammar{Kind: KindSubstituteSearch, Name: "substitute_search", Grammar: singleValueSection("# Last Substitute Search Pattern:")},
	structure.NamedGrammar{Kind: KindSubstituteString, Name: "substitute_string", Grammar: singleValueSection("# Last Substitute String:")},
	structure.NamedGrammar{Kind: KindSearchStringHistory, Name: "search_string_history", Grammar: historySection(
		"# Search String History (newest to oldest):", "search_string_items", grammar.Literal("?"))},
	structure.NamedGrammar{Kind: KindExpressionHistory, Name: "expression_history", Grammar: historySection(
		"# Expression History (newest to oldest):", "expression_history_items", grammar.Literal("="))},
	structure.NamedGrammar{Kind: KindInputLineHistory, Name: "input_line_history", Grammar: historySection(
		"# Input Line History (newest to oldest):", "input_line_history_items", grammar.Literal("@"))},
	structure.NamedGrammar{Kind: KindDebugLineHistory, Name: "debug_line_history", Grammar: historySection(
		"# Debug Line History (newest to oldest):", "debug_line_history_items", grammar.Or(grammar.Literal("@"), grammar.Literal(">")))},
	structure.NamedGrammar{Kind: KindRegistersHistory, Name: "registers_history", Grammar: registersHistory},
	structure.NamedGrammar{Kind: KindFilemarksHistory, Name: "filemarks_history", Grammar: filemarksHistory},
	structure.NamedGrammar{Kind: KindJumplistHistory, Name: "jumplist_history", Grammar: jumplistHistory},
	structure.NamedGrammar{Kind: KindHistoryMarksHistory, Name: "history_marks_history", Grammar: historyMarksHistory},
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
	return preamble
}

func (f *Format) Catalog() *structure.Catalog {
	return catalog
}

// DeclaredEncoding returns the value of *encoding= in the preamble, or the empty string if
// window does not start with a preamble.
func (f *Format) DeclaredEncoding(window []byte) string {
	m, err := grammar.Parse(preamble, strings.TrimPrefix(string(window), "\xEF\xBB\xBF"), true)
	if err != nil {
		return ""
	}
	enc := m.Tree.Items("encoding")
	if len(enc) == 0 {
		return ""
	}
	return enc[0].Get(0).Text
}

func (f *Format) Dispatch(kind structure.Kind, tree grammar.Tree) (structure.Built, error) {
	switch kind {
	case KindPreamble, KindHlsearch, KindSearchPattern, KindSubstituteSearch, KindSubstituteString, KindHistoryMarksHistory:
		return structure.Built{}, nil
	case KindCommandLineHistory:
		return buildHistory(tree, "command_line_items", HistoryTypeCommandLine), nil
	case KindSearchStringHistory:
		return buildHistory(tree, "search_string_items", HistoryTypeSearchString), nil
	case KindExpressionHistory:
		return buildHistory(tree, "expression_history_items", HistoryTypeExpression), nil
	case KindInputLineHistory:
		return buildHistory(tree, "input_line_history_items", HistoryTypeInputLine), nil
	case KindDebugLineHistory:
		return buildHistory(tree, "debug_line_history_items", HistoryTypeDebugLine), nil
	case KindRegistersHistory:
		return buildRegisters(tree), nil
	case KindFilemarksHistory:
		return buildMarks(tree, "filemarks_items", HistoryTypeFileMark, 4, 5), nil
	case KindJumplistHistory:
		return buildMarks(tree, "jumplist_items", HistoryTypeJumplist, 3, 4), nil
	default:
		return structure.Built{}, structure.UnknownKindError(kind)
	}
}

func buildHistory(tree grammar.Tree, items string, historyType string) structure.Built {
	var ret structure.Built
	for i, item := range tree.Items(items) {
		ts, err := structure.PosixSeconds(item.Get(5).Text)
		if err != nil {
			ret.Malformed = append(ret.Malformed, fmt.Sprintf("skipped item %d of %s: %v", i, items, err))
			continue
		}
		value := item.Get(1).Text
		ret.Events = append(ret.Events, events.Event{
			DataType:     DataType,
			HistoryType:  historyType,
			HistoryValue: &value,
			ItemNumber:   i,
			RecordedTime: ts,
		})
	}
	return ret
}

func buildRegisters(tree grammar.Tree) structure.Built {
	var ret structure.Built
	for i, item := range tree.Items("registers_items") {
		ts, err := structure.PosixSeconds(item.Get(12).Text)
		if err != nil {
			ret.Malformed = append(ret.Malformed, fmt.Sprintf("skipped register %s: %v", item.Get(1).Text, err))
			continue
		}
		value := strings.Join(item.Get(4).Texts(), "\n")
		ret.Events = append(ret.Events, events.Event{
			DataType:     DataType,
			HistoryType:  HistoryTypeRegister,
			HistoryValue: &value,
			ItemNumber:   i,
			RecordedTime: ts,
		})
	}
	return ret
}

func buildMarks(tree grammar.Tree, items string, historyType string, filenameIdx int, barIdx int) structure.Built {
	var ret structure.Built
	for i, item := range tree.Items(items) {
		ts, err := structure.PosixSeconds(item.Get(barIdx).Get(5).Text)
		if err != nil {
			ret.Malformed = append(ret.Malformed, fmt.Sprintf("skipped item %d of %s: %v", i, items, err))
			continue
		}
		filename := strings.TrimSpace(item.Get(filenameIdx).Text)
		ret.Events = append(ret.Events, events.Event{
			DataType:     DataType,
			HistoryType:  historyType,
			Filename:     &filename,
			ItemNumber:   i,
			RecordedTime: ts,
		})
	}
	return ret
}
