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
	"github.com/gocql/gocql"
)

// Row is a result row as returned by gocql MapScan, keyed by column name. The driver splits
// tuple columns into one entry per element, named "column[i]".
type Row map[string]any

// UdtValue is a user type value keyed by field name. It marshals itself for gocql.
type UdtValue struct {
	dataType *types.UserDefinedType
	fields   map[string]any
}

var (
	_ gocql.UDTMarshaler   = UdtValue{}
	_ gocql.UDTUnmarshaler = (*UdtValue)(nil)
	_ gocql.Marshaler      = (*TupleValue)(nil)
	_ gocql.Unmarshaler    = (*TupleValue)(nil)
)

func NewUdtValue(dataType *types.UserDefinedType) *UdtValue {
	return &UdtValue{dataType: dataType, fields: make(map[string]any)}
}

func (u *UdtValue) Type() *types.UserDefinedType {
	return u.dataType
}

func (u *UdtValue) Set(field types.Identifier, value any) *UdtValue {
	if u.fields == nil {
		u.fields = make(map[string]any)
	}
	u.fields[field.Internal()] = value
	return u
}

func (u *UdtValue) Get(field types.Identifier) (any, bool) {
	v, ok := u.fields[field.Internal()]
	return v, ok
}

// Fields returns the field values keyed by internal field name.
func (u *UdtValue) Fields() map[string]any {
	return u.fields
}

// MarshalUDT writes unset fields as null. It has a value receiver since gocql.Marshal
// dereferences pointers that do not implement gocql.Marshaler.
func (u UdtValue) MarshalUDT(name string, info gocql.TypeInfo) ([]byte, error) {
	v, ok := u.fields[name]
	if !ok || v == nil {
		return nil, nil
	}
	return gocql.Marshal(info, v)
}

func (u *UdtValue) UnmarshalUDT(name string, info gocql.TypeInfo, data []byte) error {
	if u.fields == nil {
		u.fields = make(map[string]any)
	}
	if data == nil {
		u.fields[name] = nil
		return nil
	}
	dest := info.New()
	if err := gocql.Unmarshal(info, data, dest); err != nil {
		return fmt.Errorf("user type field %s: %w", name, err)
	}
	u.fields[name] = reflect.ValueOf(dest).Elem().Interface()
	return nil
}

func (u *UdtValue) String() string {
	return fmt.Sprintf("%s%v", u.dataType, u.fields)
}

// TupleValue is a tuple value with one entry per element. It marshals itself for gocql.
type TupleValue struct {
	dataType *types.TupleType
	values   []any
}

func NewTupleValue(dataType *types.TupleType, values ...any) *TupleValue {
	if values == nil {
		values = make([]any, len(dataType.Elements()))
	}
	return &TupleValue{dataType: dataType, values: values}
}

func (t *TupleValue) Type() *types.TupleType {
	return t.dataType
}

func (t *TupleValue) Values() []any {
	return t.values
}

func (t *TupleValue) Get(i int) any {
	return t.values[i]
}

func (t *TupleValue) Set(i int, value any) *TupleValue {
	t.values[i] = value
	return t
}

func (t *TupleValue) MarshalCQL(info gocql.TypeInfo) ([]byte, error) {
	return gocql.Marshal(info, t.values)
}

func (t *TupleValue) UnmarshalCQL(info gocql.TypeInfo, data []byte) error {
	tuple, ok := info.(gocql.TupleTypeInfo)
	if !ok {
		return fmt.Errorf("cannot unmarshal %s into a tuple value", info)
	}
	dests := make([]any, len(tuple.Elems))
	for i, elem := range tuple.Elems {
		dests[i] = elem.New()
	}
	if err := gocql.Unmarshal(info, data, dests); err != nil {
		return err
	}
	t.values = make([]any, len(dests))
	for i, d := range dests {
		t.values[i] = reflect.ValueOf(d).Elem().Interface()
	}
	return nil
}

func (t *TupleValue) String() string {
	return fmt.Sprintf("%v", t.values)
}
