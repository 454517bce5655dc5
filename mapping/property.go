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

	"github.com/giangbb/scylla-mapping/global/types"
)

// IndexDeclaration is a secondary index declared on a property.
type IndexDeclaration struct {
	// Name is empty when Cassandra should generate the index name.
	Name     types.Identifier
	Function types.IndexFunction
}

// PersistentProperty is a struct field mapped to a column, UDT field or tuple element.
type PersistentProperty struct {
	owner        *PersistentEntity
	field        reflect.StructField
	index        []int
	columnName   types.Identifier
	explicitName bool
	keyType      types.KeyType
	ordinal      int
	ordering     types.Ordering
	element      int
	hasElement   bool
	explicitType string
	frozen       bool
	set          bool
	indexes      []IndexDeclaration
}

func newPersistentProperty(owner *PersistentEntity, field reflect.StructField, index []int, naming NamingStrategy) (*PersistentProperty, error) {
	tag, err := parsePropertyTag(field.Tag.Get(TagKey))
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", field.Name, err)
	}
	if tag.skip {
		return nil, nil
	}
	p := &PersistentProperty{
		owner:        owner,
		field:        field,
		index:        index,
		keyType:      tag.keyType,
		ordinal:      tag.ordinal,
		ordering:     tag.ordering,
		element:      tag.element,
		hasElement:   tag.hasElement,
		explicitType: tag.explicitType,
		frozen:       tag.frozen,
		set:          tag.set,
	}
	switch {
	case tag.name != "" && tag.forceQuote:
		p.columnName = types.IdentifierFromInternal(tag.name)
		p.explicitName = true
	case tag.name != "":
		p.columnName = types.IdentifierFromCql(tag.name)
		p.explicitName = true
	default:
		p.columnName = types.IdentifierFromInternal(naming.ColumnName(field.Name))
	}
	if tag.indexed {
		decl := IndexDeclaration{Function: tag.indexFunction}
		if tag.indexName != "" {
			decl.Name = types.IdentifierFromCql(tag.indexName)
		}
		p.indexes = append(p.indexes, decl)
	}
	return p, nil
}

// Owner returns the entity declaring the property.
func (p *PersistentProperty) Owner() *PersistentEntity {
	return p.owner
}

// Name returns the Go field name.
func (p *PersistentProperty) Name() string {
	return p.field.Name
}

func (p *PersistentProperty) Type() reflect.Type {
	return p.field.Type
}

func (p *PersistentProperty) Field() reflect.StructField {
	return p.field
}

func (p *PersistentProperty) ColumnName() types.Identifier {
	return p.columnName
}

// HasExplicitColumnName reports whether the column name was set with the name tag option.
func (p *PersistentProperty) HasExplicitColumnName() bool {
	return p.explicitName
}

func (p *PersistentProperty) KeyType() types.KeyType {
	return p.keyType
}

func (p *PersistentProperty) IsPartitionKey() bool {
	return p.keyType == types.KeyTypePartition
}

func (p *PersistentProperty) IsClusteringKey() bool {
	return p.keyType == types.KeyTypeClustering
}

func (p *PersistentProperty) IsPrimaryKey() bool {
	return p.keyType.IsPrimaryKey()
}

func (p *PersistentProperty) IsStatic() bool {
	return p.keyType == types.KeyTypeStatic
}

// Ordinal is the position within the partition or clustering key.
func (p *PersistentProperty) Ordinal() int {
	return p.ordinal
}

// Ordering is the clustering order. Only meaningful for clustering keys.
func (p *PersistentProperty) Ordering() types.Ordering {
	return p.ordering
}

// Element returns the tuple element ordinal.
func (p *PersistentProperty) Element() (int, bool) {
	return p.element, p.hasElement
}

// ExplicitType returns the CQL type given with the type tag option, if any.
func (p *PersistentProperty) ExplicitType() string {
	return p.explicitType
}

func (p *PersistentProperty) IsFrozen() bool {
	return p.frozen
}

// IsSet reports whether a slice property is stored as a CQL set.
func (p *PersistentProperty) IsSet() bool {
	return p.set
}

func (p *PersistentProperty) Indexes() []IndexDeclaration {
	return p.indexes
}

func (p *PersistentProperty) IsIndexed() bool {
	return len(p.indexes) > 0
}

// IsEntity reports whether the property type is itself a mapped entity.
func (p *PersistentProperty) IsEntity() bool {
	_, ok := EntityKindOf(p.field.Type)
	return ok
}

// Get reads the property from a struct value. Pointers are followed.
func (p *PersistentProperty) Get(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	return v.FieldByIndex(p.index)
}

// Set writes the property of an addressable struct value.
func (p *PersistentProperty) Set(v reflect.Value, value reflect.Value) {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	v.FieldByIndex(p.index).Set(value)
}

func (p *PersistentProperty) String() string {
	return fmt.Sprintf("%s.%s", p.owner.Type().Name(), p.field.Name)
}
