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
	"bytes"

	"github.com/jackbister/histsuck/pkg/histsuck/grammar"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Verify reports whether window starts with the preamble of f. window is the raw start of
// the artifact and is not consumed. A leading UTF-8 byte order mark is ignored.
func Verify(f Format, window []byte) bool {
	window = bytes.TrimPrefix(window, utf8BOM)
	_, err := grammar.Parse(f.Preamble(), string(window), true)
	return err == nil
}
