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

	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
)

// Kind identifies a structure within the catalog of one format.
type Kind int

type NamedGrammar struct {
	Kind    Kind
	Name    string
	Grammar grammar.Grammar
}

// Catalog is the ordered list of structures a format consists of. Order matters: when
// several grammars could match at the same position, the earliest one wins.
// A Catalog is never modified after it has been created.
type Catalog struct {
	entries []NamedGrammar
	byName  map[string]NamedGrammar
	byKind  map[Kind]NamedGrammar
}

func NewCatalog(entries ...NamedGrammar) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("error creating catalog: no entries")
	}
	c := &Catalog{
		entries: make([]NamedGrammar, len(entries)),
		byName:  make(map[string]NamedGrammar, len(entries)),
		byKind:  make(map[Kind]NamedGrammar, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("error creating catalog: entry %d has no name", i)
		}
		if e.Grammar == nil {
			return nil, fmt.Errorf("error creating catalog: entry name=%s has no grammar", e.Name)
		}
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("error creating catalog: duplicate name=%s", e.Name)
		}
		if _, ok := c.byKind[e.Kind]; ok {
			return nil, fmt.Errorf("error creating catalog: duplicate kind=%d for name=%s", e.Kind, e.Name)
		}
		c.byName[e.Name] = e
		c.byKind[e.Kind] = e
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error. It is meant for package level catalogs.
func MustCatalog(entries ...NamedGrammar) *Catalog {
	c, err := NewCatalog(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in declaration order.
func (c *Catalog) Entries() []NamedGrammar {
	ret := make([]NamedGrammar, len(c.entries))
	copy(ret, c.entries)
	return ret
}

func (c *Catalog) Lookup(name string) (NamedGrammar, bool) {
	e, ok := c.byName[name]
	return e, ok
}

func (c *Catalog) Name(kind Kind) string {
	if e, ok := c.byKind[kind]; ok {
		return e.Name
	}
	return fmt.Sprintf("Kind(%d)", int(kind))
}
