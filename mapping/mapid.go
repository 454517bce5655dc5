/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package mapping

import (
	"fmt"
	"sort"
	"strings"
)

// MapID holds primary key values keyed by Go field name.
type MapID map[string]any

// ID starts a MapID with a single value.
func ID(fieldName string, value any) MapID {
	return MapID{fieldName: value}
}

// With adds a value and returns the same MapID for chaining.
func (m MapID) With(fieldName string, value any) MapID {
	m[fieldName] = value
	return m
}

func (m MapID) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MapIdentifiable is implemented by types that can report their primary key as a MapID.
type MapIdentifiable interface {
	MapID() MapID
}
