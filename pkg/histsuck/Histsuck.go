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

package histsuck

import (
	"go.uber.org/dig"
	"go.uber.org/zap"
)

type ProviderFunc func(c *dig.Container, logger *zap.Logger) error

// Plugin adds providers to the dependency injection container. Plugins are used to select
// where parsed events are stored.
type Plugin struct {
	Name    string
	Provide ProviderFunc
}
