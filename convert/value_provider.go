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

package convert

import (
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/gocql/gocql"
)

// ValueProvider returns the stored value of a property. ok is false when the source does not
// contain the property at all, as opposed to containing null.
type ValueProvider interface {
	Value(property *mapping.PersistentProperty) (value any, ok bool)
}

type RowValueProvider struct {
	Row Row
}

func (r RowValueProvider) Value(property *mapping.PersistentProperty) (any, bool) {
	column := property.ColumnName().Internal()
	if v, ok := r.Row[column]; ok {
		return v, true
	}
	// tuple columns are split by the driver
	var elements []any
	for i := 0; ; i++ {
		v, ok := r.Row[gocql.TupleColumnName(column, i)]
		if !ok {
			break
		}
		elements = append(elements, v)
	}
	if elements == nil {
		return nil, false
	}
	return elements, true
}

type UdtValueProvider struct {
	Fields map[string]any
}

func (u UdtValueProvider) Value(property *mapping.PersistentProperty) (any, bool) {
	v, ok := u.Fields[property.ColumnName().Internal()]
	return v, ok
}

type TupleValueProvider struct {
	Values []any
}

func (t TupleValueProvider) Value(property *mapping.PersistentProperty) (any, bool) {
	element, ok := property.Element()
	if !ok || element >= len(t.Values) {
		return nil, false
	}
	return t.Values[element], true
}
