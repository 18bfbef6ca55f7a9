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

// Warning is a problem that the engine recovered from.
type Warning struct {
	Kind      ErrorKind
	Line      int
	Structure string
	Message   string
}

func (w Warning) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "line %d: %s", w.Line, w.Kind)
	if w.Structure != "" {
		fmt.Fprintf(&sb, " in %s", w.Structure)
	}
	if w.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(w.Message)
	}
	return sb.String()
}

// Report summarizes a completed scan of one artifact.
type Report struct {
	Source   string
	Format   string
	Records  int
	Warnings []Warning
}

func (r *Report) String() string {
	return fmt.Sprintf("%d records extracted, %d warnings", r.Records, len(r.Warnings))
}
