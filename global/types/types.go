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
)

// KeyType is the role of a column in the primary key.
type KeyType string

const (
	KeyTypePartition  KeyType = "partition_key"
	KeyTypeClustering KeyType = "clustering"
	KeyTypeRegular    KeyType = "regular"
	KeyTypeStatic     KeyType = "static"
)

func (k KeyType) IsPrimaryKey() bool {
	return k == KeyTypePartition || k == KeyTypeClustering
}

// Ordering is the clustering order of a clustering column.
type Ordering string

const (
	Ascending  Ordering = "ASC"
	Descending Ordering = "DESC"
)

// ParseOrdering accepts asc/desc in any case. An empty string yields Ascending.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC", "ASCENDING":
		return Ascending, nil
	case "DESC", "DESCENDING":
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid clustering order '%s'", s)
	}
}

// IndexFunction selects what part of a collection column a secondary index covers.
type IndexFunction string

const (
	IndexFunctionNone    IndexFunction = ""
	IndexFunctionKeys    IndexFunction = "KEYS"
	IndexFunctionValues  IndexFunction = "VALUES"
	IndexFunctionEntries IndexFunction = "ENTRIES"
	IndexFunctionFull    IndexFunction = "FULL"
)

func ParseIndexFunction(s string) (IndexFunction, error) {
	switch f := IndexFunction(strings.ToUpper(strings.TrimSpace(s))); f {
	case IndexFunctionNone, IndexFunctionKeys, IndexFunctionValues, IndexFunctionEntries, IndexFunctionFull:
		return f, nil
	default:
		return "", fmt.Errorf("invalid index function '%s'", s)
	}
}

// Column describes a column of an existing or planned table.
type Column struct {
	Name    Identifier
	CQLType CqlDataType
	KeyType KeyType
	// position within the partition or clustering key
	PkPrecedence int
	Ordering     Ordering
}

func (c *Column) IsPrimaryKey() bool {
	return c.KeyType.IsPrimaryKey()
}

func (c *Column) IsStatic() bool {
	return c.KeyType == KeyTypeStatic
}

// QualifiedName is a keyspace scoped name. An empty keyspace means the session keyspace.
type QualifiedName struct {
	Keyspace Identifier
	Name     Identifier
}

func NewQualifiedName(keyspace, name Identifier) QualifiedName {
	return QualifiedName{Keyspace: keyspace, Name: name}
}

func (q QualifiedName) AsCql(pretty bool) string {
	if q.Keyspace.IsEmpty() {
		return q.Name.AsCql(pretty)
	}
	return q.Keyspace.AsCql(pretty) + "." + q.Name.AsCql(pretty)
}

func (q QualifiedName) String() string {
	return q.AsCql(true)
}
