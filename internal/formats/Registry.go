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

package formats

import (
	"fmt"

	"github.com/jackbister/histsuck/internal/formats/bashhistory"
	"github.com/jackbister/histsuck/internal/formats/viminfo"
	"github.com/jackbister/histsuck/pkg/histsuck/structure"
)

type Format interface {
	structure.Format

	DataType() string
}

// Registry holds the known formats in the order they are tried by Detect.
type Registry struct {
	formats []Format
	byName  map[string]Format
}

func NewRegistry(formats ...Format) (*Registry, error) {
	r := &Registry{
		formats: formats,
		byName:  make(map[string]Format, len(formats)),
	}
	for _, f := range formats {
		if _, ok := r.byName[f.Name()]; ok {
			return nil, fmt.Errorf("error creating format registry: duplicate format name=%s", f.Name())
		}
		r.byName[f.Name()] = f
	}
	return r, nil
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(viminfo.New(), bashhistory.New())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Get(name string) (Format, bool) {
	f, ok := r.byName[name]
	return f, ok
}

func (r *Registry) Names() []string {
	ret := make([]string, len(r.formats))
	for i, f := range r.formats {
		ret[i] = f.Name()
	}
	return ret
}

// Detect returns the first format whose preamble matches the start of window.
func (r *Registry) Detect(window []byte) (Format, bool) {
	for _, f := range r.formats {
		if structure.Verify(f, window) {
			return f, true
		}
	}
	return nil, false
}
