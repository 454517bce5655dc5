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
	"reflect"
	"sort"

	"github.com/giangbb/scylla-mapping/global/types"
)

// PersistentEntity is the mapping metadata of a struct type.
type PersistentEntity struct {
	goType       reflect.Type
	kind         EntityKind
	name         types.Identifier
	explicitName bool
	properties   []*PersistentProperty
	byField      map[string]*PersistentProperty
	byColumn     map[string]*PersistentProperty
}

func newPersistentEntity(t reflect.Type, naming NamingStrategy) (*PersistentEntity, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	marker, kind, ok := markerField(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAnEntity, t)
	}
	tag, err := parseEntityTag(marker.Tag.Get(TagKey))
	if err != nil {
		return nil, newMappingError(t, err)
	}

	e := &PersistentEntity{
		goType:   t,
		kind:     kind,
		byField:  make(map[string]*PersistentProperty),
		byColumn: make(map[string]*PersistentProperty),
	}
	switch {
	case tag.name != "" && tag.forceQuote:
		e.name = types.IdentifierFromInternal(tag.name)
		e.explicitName = true
	case tag.name != "":
		e.name = types.IdentifierFromCql(tag.name)
		e.explicitName = true
	case kind == KindTable:
		e.name = types.IdentifierFromInternal(naming.TableName(t.Name()))
	case kind == KindUserType:
		e.name = types.IdentifierFromInternal(naming.UserTypeName(t.Name()))
	}

	var errs []error
	e.collectProperties(t, nil, naming, &errs)
	if len(errs) > 0 {
		return nil, newMappingError(t, errs...)
	}
	e.sortProperties()
	return e, nil
}

func (e *PersistentEntity) collectProperties(t reflect.Type, parent []int, naming NamingStrategy, errs *[]error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int{}, parent...), i)
		if f.Anonymous && isMarker(f.Type) {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get(TagKey) == "" {
			if _, isEntity := EntityKindOf(f.Type); !isEntity {
				e.collectProperties(f.Type, index, naming, errs)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		p, err := newPersistentProperty(e, f, index, naming)
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		if p == nil {
			continue
		}
		if existing, dup := e.byColumn[p.columnName.Internal()]; dup {
			*errs = append(*errs, fmt.Errorf("fields %s and %s map to the same column %s", existing.Name(), f.Name, p.columnName))
			continue
		}
		if _, dup := e.byField[f.Name]; dup {
			*errs = append(*errs, fmt.Errorf("ambiguous field %s", f.Name))
			continue
		}
		e.properties = append(e.properties, p)
		e.byField[f.Name] = p
		e.byColumn[p.columnName.Internal()] = p
	}
}

// sortProperties puts partition keys first, then clustering keys, each by ordinal, followed by
// the other columns in declaration order. Tuple elements are ordered by element ordinal.
func (e *PersistentEntity) sortProperties() {
	rank := func(p *PersistentProperty) int {
		switch p.keyType {
		case types.KeyTypePartition:
			return 0
		case types.KeyTypeClustering:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(e.properties, func(i, j int) bool {
		left, right := e.properties[i], e.properties[j]
		if e.kind == KindTuple {
			return left.element < right.element
		}
		if rank(left) != rank(right) {
			return rank(left) < rank(right)
		}
		if left.IsPrimaryKey() {
			return left.ordinal < right.ordinal
		}
		return false
	})
}

func (e *PersistentEntity) Type() reflect.Type {
	return e.goType
}

func (e *PersistentEntity) Kind() EntityKind {
	return e.kind
}

func (e *PersistentEntity) IsTable() bool {
	return e.kind == KindTable
}

func (e *PersistentEntity) IsUserDefinedType() bool {
	return e.kind == KindUserType
}

func (e *PersistentEntity) IsTuple() bool {
	return e.kind == KindTuple
}

// Name is the table or user type name. Tuples have no name.
func (e *PersistentEntity) Name() types.Identifier {
	return e.name
}

// HasExplicitName reports whether the name was set on the marker tag.
func (e *PersistentEntity) HasExplicitName() bool {
	return e.explicitName
}

// Properties returns all properties in their canonical order.
func (e *PersistentEntity) Properties() []*PersistentProperty {
	return e.properties
}

// Property looks a property up by its Go field name.
func (e *PersistentEntity) Property(fieldName string) (*PersistentProperty, bool) {
	p, ok := e.byField[fieldName]
	return p, ok
}

// PropertyByColumn looks a property up by its column name.
func (e *PersistentEntity) PropertyByColumn(column types.Identifier) (*PersistentProperty, bool) {
	p, ok := e.byColumn[column.Internal()]
	return p, ok
}

func (e *PersistentEntity) filter(keep func(*PersistentProperty) bool) []*PersistentProperty {
	var result []*PersistentProperty
	for _, p := range e.properties {
		if keep(p) {
			result = append(result, p)
		}
	}
	return result
}

func (e *PersistentEntity) PartitionKeyProperties() []*PersistentProperty {
	return e.filter((*PersistentProperty).IsPartitionKey)
}

func (e *PersistentEntity) ClusteringKeyProperties() []*PersistentProperty {
	return e.filter((*PersistentProperty).IsClusteringKey)
}

func (e *PersistentEntity) PrimaryKeyProperties() []*PersistentProperty {
	return e.filter((*PersistentProperty).IsPrimaryKey)
}

// NonKeyProperties returns static and regular columns.
func (e *PersistentEntity) NonKeyProperties() []*PersistentProperty {
	return e.filter(func(p *PersistentProperty) bool { return !p.IsPrimaryKey() })
}

func (e *PersistentEntity) HasPrimaryKey() bool {
	return len(e.PrimaryKeyProperties()) > 0
}

// New allocates a zero value of the entity and returns a pointer to it.
func (e *PersistentEntity) New() reflect.Value {
	return reflect.New(e.goType)
}

func (e *PersistentEntity) String() string {
	if e.name.IsEmpty() {
		return fmt.Sprintf("%s %s", e.kind, e.goType)
	}
	return fmt.Sprintf("%s %s (%s)", e.kind, e.name, e.goType)
}
