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
	"fmt"
	"strings"
)

type ErrorKind int

const (
	VerificationMismatch ErrorKind = iota + 1
	UnrecognizedLine
	MalformedField
	UnknownStructure
	RecordTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case VerificationMismatch:
		return "verification mismatch"
	case UnrecognizedLine:
		return "unrecognized line"
	case MalformedField:
		return "malformed field"
	case UnknownStructure:
		return "unknown structure"
	case RecordTooLarge:
		return "record too large"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError is returned by the engine for all failures that are caused by the artifact
// or by the format definition, as opposed to I/O failures.
type ParseError struct {
	Kind      ErrorKind
	Structure string
	// Line is the 1-based line where the problem was found, or 0 if unknown.
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Structure != "" {
		fmt.Fprintf(&sb, " structure=%s", e.Structure)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " line=%d", e.Line)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes every ParseError match the sentinel of the same kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

var (
	ErrVerificationMismatch = &ParseError{Kind: VerificationMismatch}
	ErrUnrecognizedLine     = &ParseError{Kind: UnrecognizedLine}
	ErrMalformedField       = &ParseError{Kind: MalformedField}
	ErrUnknownStructure     = &ParseError{Kind: UnknownStructure}
	ErrRecordTooLarge       = &ParseError{Kind: RecordTooLarge}
)

func unknownStructureError(name string) error {
	return &ParseError{
		Kind:      UnknownStructure,
		Structure: name,
		Msg:       "the structure is not part of the catalog of this format",
	}
}

// UnknownKindError is returned by a Dispatcher that receives a Kind it has no case for.
func UnknownKindError(kind Kind) error {
	return unknownStructureError(fmt.Sprintf("Kind(%d)", int(kind)))
}
