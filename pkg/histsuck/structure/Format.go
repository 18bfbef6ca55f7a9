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
	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
)

// Built is the output of a record builder for one matched structure.
type Built struct {
	Events []events.Event
	// Malformed describes sub-items that were skipped because one of their fields could not be converted.
	Malformed []string
}

// Dispatcher turns a matched structure into records.
// Kinds that are part of the catalog but have no record builder must return an empty Built
// and no error. Any other Kind must fail with an UnknownStructure error.
type Dispatcher interface {
	Dispatch(kind Kind, tree grammar.Tree) (Built, error)
}

// Format is a complete description of one artifact type.
type Format interface {
	Dispatcher

	Name() string
	Preamble() grammar.Grammar
	Catalog() *Catalog
}

// EncodingDeclarer is implemented by formats whose preamble names the encoding of the artifact.
type EncodingDeclarer interface {
	DeclaredEncoding(window []byte) string
}

// DispatchByName looks up the structure by name in the catalog of f before dispatching.
func DispatchByName(f Format, name string, tree grammar.Tree) (Built, error) {
	e, ok := f.Catalog().Lookup(name)
	if !ok {
		return Built{}, unknownStructureError(name)
	}
	return f.Dispatch(e.Kind, tree)
}
