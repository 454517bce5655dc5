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

package types

import (
	"fmt"
	"strings"

	"github.com/datastax/go-cassandra-native-protocol/datatype"
)

type CqlDataType interface {
	// String returns the canonical CQL string representation of the type.
	String() string

	DataType() datatype.DataType
	// isCDataType is an unexported marker method to ensure only types
	// from this package can implement the interface.
	isCDataType()

	IsCollection() bool
	IsAnyFrozen() bool
	Code() CqlTypeCode
}

func IsScalar(c CqlDataType) bool {
	return !c.IsCollection() && c.Code() != TUPLE && c.Code() != UDT && c.Code() != FROZEN
}

type CqlTypeCode int

// Enumeration of all Cassandra types.
const (
	// Scalars
	ASCII CqlTypeCode = iota
	VARCHAR
	BIGINT
	BLOB
	BOOLEAN
	COUNTER
	DATE
	DECIMAL
	DOUBLE
	DURATION
	FLOAT
	INET
	INT
	SMALLINT
	TEXT // Also used for VARCHAR
	TIME
	TIMESTAMP
	TIMEUUID
	TINYINT
	UUID
	VARINT
	// Collections
	LIST
	SET
	MAP
	// Composites
	TUPLE
	UDT
	// Other
	FROZEN
)

// ScalarType represents a primitive, single-value Cassandra type.
type ScalarType struct {
	code CqlTypeCode
	dt   datatype.DataType
	name string
}

func (s ScalarType) Code() CqlTypeCode {
	return s.code
}

func (s ScalarType) IsAnyFrozen() bool {
	return false
}

func (s ScalarType) DataType() datatype.DataType {
	return s.dt
}

func (s ScalarType) isCDataType() {}

func (s ScalarType) String() string {
	return s.name
}

func (s ScalarType) IsCollection() bool {
	return false
}

// Pre-defined constants for common scalar types for convenience.
var (
	TypeAscii     CqlDataType = ScalarType{name: "ascii", code: ASCII, dt: datatype.Ascii}
	TypeVarchar   CqlDataType = ScalarType{name: "varchar", code: VARCHAR, dt: datatype.Varchar}
	TypeBigint    CqlDataType = ScalarType{name: "bigint", code: BIGINT, dt: datatype.Bigint}
	TypeBlob      CqlDataType = ScalarType{name: "blob", code: BLOB, dt: datatype.Blob}
	TypeBoolean   CqlDataType = ScalarType{name: "boolean", code: BOOLEAN, dt: datatype.Boolean}
	TypeCounter   CqlDataType = ScalarType{name: "counter", code: COUNTER, dt: datatype.Counter}
	TypeDate      CqlDataType = ScalarType{name: "date", code: DATE, dt: datatype.Date}
	TypeDecimal   CqlDataType = ScalarType{name: "decimal", code: DECIMAL, dt: datatype.Decimal}
	TypeDouble    CqlDataType = ScalarType{name: "double", code: DOUBLE, dt: datatype.Double}
	TypeDuration  CqlDataType = ScalarType{name: "duration", code: DURATION, dt: datatype.Duration}
	TypeFloat     CqlDataType = ScalarType{name: "float", code: FLOAT, dt: datatype.Float}
	TypeInet      CqlDataType = ScalarType{name: "inet", code: INET, dt: datatype.Inet}
	TypeInt       CqlDataType = ScalarType{name: "int", code: INT, dt: datatype.Int}
	TypeSmallint  CqlDataType = ScalarType{name: "smallint", code: SMALLINT, dt: datatype.Smallint}
	TypeText      CqlDataType = ScalarType{name: "text", code: TEXT, dt: datatype.Varchar}
	TypeTime      CqlDataType = ScalarType{name: "time", code: TIME, dt: datatype.Time}
	TypeTimestamp CqlDataType = ScalarType{name: "timestamp", code: TIMESTAMP, dt: datatype.Timestamp}
	TypeTimeuuid  CqlDataType = ScalarType{name: "timeuuid", code: TIMEUUID, dt: datatype.Timeuuid}
	TypeTinyint   CqlDataType = ScalarType{name: "tinyint", code: TINYINT, dt: datatype.Tinyint}
	TypeUuid      CqlDataType = ScalarType{name: "uuid", code: UUID, dt: datatype.Uuid}
	TypeVarint    CqlDataType = ScalarType{name: "varint", code: VARINT, dt: datatype.Varint}
)

var scalarsByName = map[string]CqlDataType{
	"ascii":     TypeAscii,
	"varchar":   TypeVarchar,
	"bigint":    TypeBigint,
	"blob":      TypeBlob,
	"boolean":   TypeBoolean,
	"counter":   TypeCounter,
	"date":      TypeDate,
	"decimal":   TypeDecimal,
	"double":    TypeDouble,
	"duration":  TypeDuration,
	"float":     TypeFloat,
	"inet":      TypeInet,
	"int":       TypeInt,
	"smallint":  TypeSmallint,
	"text":      TypeText,
	"time":      TypeTime,
	"timestamp": TypeTimestamp,
	"timeuuid":  TypeTimeuuid,
	"tinyint":   TypeTinyint,
	"uuid":      TypeUuid,
	"varint":    TypeVarint,
}

// ScalarTypeByName returns the scalar type with the given CQL name, ignoring case.
func ScalarTypeByName(name string) (CqlDataType, bool) {
	t, ok := scalarsByName[strings.ToLower(name)]
	return t, ok
}

type MapType struct {
	keyType   CqlDataType
	valueType CqlDataType
	dt        datatype.DataType
}

func (m MapType) Code() CqlTypeCode {
	return MAP
}

func (m MapType) IsAnyFrozen() bool {
	return m.keyType.IsAnyFrozen() || m.valueType.IsAnyFrozen()
}

func (m MapType) KeyType() CqlDataType {
	return m.keyType
}

func (m MapType) ValueType() CqlDataType {
	return m.valueType
}

func NewMapType(keyType CqlDataType, valueType CqlDataType) *MapType {
	return &MapType{keyType: keyType, valueType: valueType, dt: datatype.NewMapType(keyType.DataType(), valueType.DataType())}
}

func (m MapType) DataType() datatype.DataType {
	return m.dt
}

func (m MapType) isCDataType() {}

func (m MapType) String() string {
	return fmt.Sprintf("map<%s, %s>", m.keyType.String(), m.valueType.String())
}

func (m MapType) IsCollection() bool {
	return true
}

// ListType represents a Cassandra list<elementType>.
type ListType struct {
	elementType CqlDataType
	dt          datatype.DataType
}

func (l ListType) Code() CqlTypeCode {
	return LIST
}

func (l ListType) IsAnyFrozen() bool {
	return l.elementType.IsAnyFrozen()
}

func (l ListType) ElementType() CqlDataType {
	return l.elementType
}

func NewListType(elementType CqlDataType) *ListType {
	return &ListType{elementType: elementType, dt: datatype.NewListType(elementType.DataType())}
}

func (l ListType) DataType() datatype.DataType {
	return l.dt
}

func (l ListType) isCDataType() {}

func (l ListType) String() string {
	return fmt.Sprintf("list<%s>", l.elementType.String())
}

func (l ListType) IsCollection() bool {
	return true
}

// SetType represents a Cassandra set<elementType>.
type SetType struct {
	elementType CqlDataType
	dt          datatype.DataType
}

func (s SetType) Code() CqlTypeCode {
	return SET
}

func (s SetType) IsAnyFrozen() bool {
	return s.elementType.IsAnyFrozen()
}

func NewSetType(elementType CqlDataType) *SetType {
	return &SetType{elementType: elementType, dt: datatype.NewSetType(elementType.DataType())}
}

func (s SetType) DataType() datatype.DataType {
	return s.dt
}

func (s SetType) ElementType() CqlDataType {
	return s.elementType
}

func (s SetType) isCDataType() {}

func (s SetType) String() string {
	return fmt.Sprintf("set<%s>", s.elementType.String())
}

func (s SetType) IsCollection() bool {
	return true
}

// TupleType represents a Cassandra tuple<t1, t2, ...>. Tuples are always frozen by Cassandra.
type TupleType struct {
	elements []CqlDataType
	dt       datatype.DataType
}

func NewTupleType(elements ...CqlDataType) *TupleType {
	dts := make([]datatype.DataType, len(elements))
	for i, e := range elements {
		dts[i] = e.DataType()
	}
	return &TupleType{elements: elements, dt: datatype.NewTupleType(dts...)}
}

func (t TupleType) Code() CqlTypeCode {
	return TUPLE
}

func (t TupleType) Elements() []CqlDataType {
	return t.elements
}

func (t TupleType) IsAnyFrozen() bool {
	for _, e := range t.elements {
		if e.IsAnyFrozen() {
			return true
		}
	}
	return false
}

func (t TupleType) DataType() datatype.DataType {
	return t.dt
}

func (t TupleType) isCDataType() {}

func (t TupleType) String() string {
	parts := make([]string, len(t.elements))
	for i, e := range t.elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("tuple<%s>", strings.Join(parts, ", "))
}

func (t TupleType) IsCollection() bool {
	return false
}

// UserDefinedType represents a Cassandra user defined type. A UDT without fields is a
// reference by name, which is enough to render DDL of the types and tables using it.
type UserDefinedType struct {
	keyspace   string
	name       Identifier
	fieldNames []Identifier
	fieldTypes []CqlDataType
	dt         datatype.DataType
}

func NewUserDefinedType(keyspace string, name Identifier, fieldNames []Identifier, fieldTypes []CqlDataType) (*UserDefinedType, error) {
	if len(fieldNames) != len(fieldTypes) {
		return nil, fmt.Errorf("user type %s: %d field names but %d field types", name.AsCql(true), len(fieldNames), len(fieldTypes))
	}
	names := make([]string, len(fieldNames))
	dts := make([]datatype.DataType, len(fieldTypes))
	for i := range fieldNames {
		names[i] = fieldNames[i].Internal()
		dts[i] = fieldTypes[i].DataType()
	}
	dt, err := datatype.NewUserDefinedType(keyspace, name.Internal(), names, dts)
	if err != nil {
		return nil, fmt.Errorf("user type %s: %w", name.AsCql(true), err)
	}
	return &UserDefinedType{keyspace: keyspace, name: name, fieldNames: fieldNames, fieldTypes: fieldTypes, dt: dt}, nil
}

// NewUserDefinedTypeReference creates a UDT known only by its name.
func NewUserDefinedTypeReference(keyspace string, name Identifier) *UserDefinedType {
	dt, _ := datatype.NewUserDefinedType(keyspace, name.Internal(), nil, nil)
	return &UserDefinedType{keyspace: keyspace, name: name, dt: dt}
}

func (u UserDefinedType) Code() CqlTypeCode {
	return UDT
}

func (u UserDefinedType) Keyspace() string {
	return u.keyspace
}

func (u UserDefinedType) Name() Identifier {
	return u.name
}

func (u UserDefinedType) FieldNames() []Identifier {
	return u.fieldNames
}

func (u UserDefinedType) FieldTypes() []CqlDataType {
	return u.fieldTypes
}

// IsShallow reports whether the type is a reference without field definitions.
func (u UserDefinedType) IsShallow() bool {
	return len(u.fieldNames) == 0
}

// FieldType returns the type of the named field.
func (u UserDefinedType) FieldType(name Identifier) (CqlDataType, bool) {
	for i, f := range u.fieldNames {
		if f == name {
			return u.fieldTypes[i], true
		}
	}
	return nil, false
}

func (u UserDefinedType) IsAnyFrozen() bool {
	return false
}

func (u UserDefinedType) DataType() datatype.DataType {
	return u.dt
}

func (u UserDefinedType) isCDataType() {}

func (u UserDefinedType) String() string {
	return u.name.AsCql(true)
}

func (u UserDefinedType) IsCollection() bool {
	return false
}

type FrozenType struct {
	innerType CqlDataType
}

func (f FrozenType) Code() CqlTypeCode {
	return FROZEN
}

func (f FrozenType) IsAnyFrozen() bool {
	return true
}

func (f FrozenType) InnerType() CqlDataType {
	return f.innerType
}

func (f FrozenType) IsCollection() bool {
	return false
}

func (f FrozenType) DataType() datatype.DataType {
	return f.innerType.DataType()
}

func (f FrozenType) isCDataType() {}

func (f FrozenType) String() string {
	return fmt.Sprintf("frozen<%s>", f.innerType.String())
}

func NewFrozenType(inner CqlDataType) *FrozenType {
	return &FrozenType{innerType: inner}
}

// Freeze wraps t in frozen<> unless it already is frozen.
func Freeze(t CqlDataType) CqlDataType {
	if t.Code() == FROZEN {
		return t
	}
	return NewFrozenType(t)
}

// Unfreeze strips one level of frozen<> from t.
func Unfreeze(t CqlDataType) CqlDataType {
	if f, ok := t.(*FrozenType); ok {
		return f.innerType
	}
	return t
}

// CqlTypesEqual compares two types structurally. varchar and text are the same type, and user
// types are compared by name only.
func CqlTypesEqual(a, b CqlDataType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if normalizeCode(a.Code()) != normalizeCode(b.Code()) {
		return false
	}
	switch at := a.(type) {
	case *ListType:
		return CqlTypesEqual(at.elementType, b.(*ListType).elementType)
	case *SetType:
		return CqlTypesEqual(at.elementType, b.(*SetType).elementType)
	case *MapType:
		bt := b.(*MapType)
		return CqlTypesEqual(at.keyType, bt.keyType) && CqlTypesEqual(at.valueType, bt.valueType)
	case *FrozenType:
		return CqlTypesEqual(at.innerType, b.(*FrozenType).innerType)
	case *TupleType:
		bt := b.(*TupleType)
		if len(at.elements) != len(bt.elements) {
			return false
		}
		for i := range at.elements {
			if !CqlTypesEqual(at.elements[i], bt.elements[i]) {
				return false
			}
		}
		return true
	case *UserDefinedType:
		return at.name == b.(*UserDefinedType).name
	default:
		return true
	}
}

func normalizeCode(c CqlTypeCode) CqlTypeCode {
	if c == VARCHAR {
		return TEXT
	}
	return c
}

// ReferencedUserTypes returns the names of all user types used by t, searching through
// collections, tuples and frozen wrappers.
func ReferencedUserTypes(t CqlDataType) []Identifier {
	var result []Identifier
	var visit func(CqlDataType)
	visit = func(dt CqlDataType) {
		switch v := dt.(type) {
		case *UserDefinedType:
			result = append(result, v.name)
		case *FrozenType:
			visit(v.innerType)
		case *ListType:
			visit(v.elementType)
		case *SetType:
			visit(v.elementType)
		case *MapType:
			visit(v.keyType)
			visit(v.valueType)
		case *TupleType:
			for _, e := range v.elements {
				visit(e)
			}
		}
	}
	if t != nil {
		visit(t)
	}
	return result
}
