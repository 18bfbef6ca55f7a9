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
	"strconv"
	"strings"
	"time"
)

// PosixSeconds converts a decimal field holding whole seconds since the epoch to a UTC time.
func PosixSeconds(field string) (time.Time, error) {
	value := strings.TrimSpace(field)
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time: failed to parse value='%s' as int64: %w", value, err)
	}
	return time.Unix(i, 0).UTC(), nil
}
