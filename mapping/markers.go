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

// Package mapping holds the metadata model of structs mapped to CQL tables, user defined types
// and tuples.
//
// A struct becomes an entity by embedding one of the marker types. The marker field's tag names
// the table or type:
//
//	type Person struct {
//		mapping.Table `cql:"name=people"`
//		ID        gocql.UUID `cql:"partitionKey"`
//		Name      string
//		Addresses []Address
//	}
//
//	type Address struct {
//		mapping.UserType `cql:"name=address"`
//		Street string
//		City   string
//	}
package mapping

import "reflect"

// Table marks a struct as mapped to a table.
type Table struct{}

// UserType marks a struct as mapped to a user defined type.
type UserType struct{}

// Tuple marks a struct as mapped to a tuple. Every field needs an element ordinal.
type Tuple struct{}

// EntityKind is the kind of CQL structure an entity maps to.
type EntityKind int

const (
	KindTable EntityKind = iota + 1
	KindUserType
	KindTuple
)

func (k EntityKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindUserType:
		return "user type"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

var (
	tableMarker    = reflect.TypeOf(Table{})
	userTypeMarker = reflect.TypeOf(UserType{})
	tupleMarker    = reflect.TypeOf(Tuple{})
)

func isMarker(t reflect.Type) bool {
	return t == tableMarker || t == userTypeMarker || t == tupleMarker
}

// EntityKindOf reports the entity kind of t, looking through pointers. ok is false when t is not
// a mapped struct.
func EntityKindOf(t reflect.Type) (kind EntityKind, ok bool) {
	_, kind, ok = markerField(t)
	return kind, ok
}

func markerField(t reflect.Type) (reflect.StructField, EntityKind, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return reflect.StructField{}, 0, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		switch f.Type {
		case tableMarker:
			return f, KindTable, true
		case userTypeMarker:
			return f, KindUserType, true
		case tupleMarker:
			return f, KindTuple, true
		}
	}
	return reflect.StructField{}, 0, false
}
