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
	"fmt"
	"reflect"

	"github.com/giangbb/scylla-mapping/global/types"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// ColumnType describes how a Go type is stored: the CQL type plus the column types of its
// components (list/set element, map key and value, tuple elements).
type ColumnType struct {
	goType reflect.Type
	// kind is set for generic collections too, where dataType is nil
	kind       types.CqlTypeCode
	dataType   types.CqlDataType
	components []*ColumnType
}

const genericKind types.CqlTypeCode = -1

// ObjectColumnType is the column type of `any` values. Its CQL type is only known once a
// value is written.
var ObjectColumnType = &ColumnType{goType: anyType, kind: genericKind}

func newColumnType(goType reflect.Type, dataType types.CqlDataType, components ...*ColumnType) *ColumnType {
	return &ColumnType{goType: goType, kind: types.Unfreeze(dataType).Code(), dataType: dataType, components: components}
}

// newGenericCollectionType is a list, set or map with generic components.
func newGenericCollectionType(goType reflect.Type, kind types.CqlTypeCode, components ...*ColumnType) *ColumnType {
	return &ColumnType{goType: goType, kind: kind, components: components}
}

func (c *ColumnType) Type() reflect.Type {
	return c.goType
}

// DataType returns the CQL type, or nil for ObjectColumnType and collections of it.
func (c *ColumnType) DataType() types.CqlDataType {
	return c.dataType
}

// RequiredDataType is DataType failing for generic column types.
func (c *ColumnType) RequiredDataType() (types.CqlDataType, error) {
	if c.dataType == nil {
		return nil, fmt.Errorf("no CQL type for generic column type %s", c)
	}
	return c.dataType, nil
}

func (c *ColumnType) IsGeneric() bool {
	return c.dataType == nil
}

func (c *ColumnType) is(code types.CqlTypeCode) bool {
	return c.kind == code
}

// IsCollectionLike reports whether values are stored as a list, set or map.
func (c *ColumnType) IsCollectionLike() bool {
	return c.IsList() || c.IsSet() || c.IsMap()
}

func (c *ColumnType) IsList() bool {
	return c.is(types.LIST)
}

func (c *ColumnType) IsSet() bool {
	return c.is(types.SET)
}

func (c *ColumnType) IsMap() bool {
	return c.is(types.MAP)
}

func (c *ColumnType) IsTupleType() bool {
	return c.is(types.TUPLE)
}

func (c *ColumnType) IsUserDefinedType() bool {
	return c.is(types.UDT)
}

// ComponentType is the list/set element or the map key type.
func (c *ColumnType) ComponentType() *ColumnType {
	if len(c.components) == 0 {
		return nil
	}
	return c.components[0]
}

func (c *ColumnType) MapValueType() *ColumnType {
	if !c.IsMap() || len(c.components) < 2 {
		return nil
	}
	return c.components[1]
}

// TupleElementTypes returns the column types of tuple elements in element order.
func (c *ColumnType) TupleElementTypes() []*ColumnType {
	if !c.IsTupleType() {
		return nil
	}
	return c.components
}

func (c *ColumnType) String() string {
	if c.dataType == nil {
		return fmt.Sprintf("%s (generic)", c.goType)
	}
	return fmt.Sprintf("%s (%s)", c.goType, c.dataType)
}
