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

package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/giangbb/scylla-mapping/global/types"
	"golang.org/x/exp/maps"
)

// Specification is a schema change that can be rendered as a single CQL statement.
type Specification interface {
	CQL() string
}

type ColumnSpecification struct {
	Name     types.Identifier
	Type     types.CqlDataType
	KeyType  types.KeyType
	Ordering types.Ordering
}

func (c *ColumnSpecification) String() string {
	s := c.Name.AsCql(true) + " " + c.Type.String()
	if c.KeyType == types.KeyTypeStatic {
		s += " STATIC"
	}
	return s
}

// TableSpecification describes a CREATE TABLE statement. Columns are rendered partition keys
// first, then clustering keys, static columns and regular columns.
type TableSpecification struct {
	Name        types.QualifiedName
	IfNotExists bool
	// Options are rendered as WITH name = value, sorted by name
	Options map[string]any

	partitionKeys  []*ColumnSpecification
	clusteringKeys []*ColumnSpecification
	staticColumns  []*ColumnSpecification
	columns        []*ColumnSpecification
}

func NewTableSpecification(name types.QualifiedName) *TableSpecification {
	return &TableSpecification{Name: name}
}

func (t *TableSpecification) PartitionKeyColumn(name types.Identifier, dt types.CqlDataType) *TableSpecification {
	t.partitionKeys = append(t.partitionKeys, &ColumnSpecification{Name: name, Type: dt, KeyType: types.KeyTypePartition})
	return t
}

func (t *TableSpecification) ClusteredKeyColumn(name types.Identifier, dt types.CqlDataType, ordering types.Ordering) *TableSpecification {
	if ordering == "" {
		ordering = types.Ascending
	}
	t.clusteringKeys = append(t.clusteringKeys, &ColumnSpecification{Name: name, Type: dt, KeyType: types.KeyTypeClustering, Ordering: ordering})
	return t
}

func (t *TableSpecification) StaticColumn(name types.Identifier, dt types.CqlDataType) *TableSpecification {
	t.staticColumns = append(t.staticColumns, &ColumnSpecification{Name: name, Type: dt, KeyType: types.KeyTypeStatic})
	return t
}

func (t *TableSpecification) Column(name types.Identifier, dt types.CqlDataType) *TableSpecification {
	t.columns = append(t.columns, &ColumnSpecification{Name: name, Type: dt, KeyType: types.KeyTypeRegular})
	return t
}

func (t *TableSpecification) WithOption(name string, value any) *TableSpecification {
	if t.Options == nil {
		t.Options = make(map[string]any)
	}
	t.Options[name] = value
	return t
}

func (t *TableSpecification) PartitionKeyColumns() []*ColumnSpecification {
	return t.partitionKeys
}

func (t *TableSpecification) ClusteringKeyColumns() []*ColumnSpecification {
	return t.clusteringKeys
}

func (t *TableSpecification) StaticColumns() []*ColumnSpecification {
	return t.staticColumns
}

func (t *TableSpecification) Columns() []*ColumnSpecification {
	return t.columns
}

func (t *TableSpecification) AllColumns() []*ColumnSpecification {
	all := make([]*ColumnSpecification, 0, len(t.partitionKeys)+len(t.clusteringKeys)+len(t.staticColumns)+len(t.columns))
	all = append(all, t.partitionKeys...)
	all = append(all, t.clusteringKeys...)
	all = append(all, t.staticColumns...)
	return append(all, t.columns...)
}

func (t *TableSpecification) CQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if t.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(t.Name.AsCql(true))
	b.WriteString(" (")
	for _, c := range t.AllColumns() {
		b.WriteString(c.String())
		b.WriteString(", ")
	}
	b.WriteString(t.primaryKeyClause())
	b.WriteString(")")

	var with []string
	if len(t.clusteringKeys) > 0 {
		var orders []string
		for _, c := range t.clusteringKeys {
			orders = append(orders, c.Name.AsCql(true)+" "+string(c.Ordering))
		}
		with = append(with, "CLUSTERING ORDER BY ("+strings.Join(orders, ", ")+")")
	}
	names := maps.Keys(t.Options)
	sort.Strings(names)
	for _, name := range names {
		with = append(with, name+" = "+optionValue(t.Options[name]))
	}
	if len(with) > 0 {
		b.WriteString(" WITH ")
		b.WriteString(strings.Join(with, " AND "))
	}
	b.WriteString(";")
	return b.String()
}

func (t *TableSpecification) primaryKeyClause() string {
	var pks []string
	for _, c := range t.partitionKeys {
		pks = append(pks, c.Name.AsCql(true))
	}
	partition := strings.Join(pks, ", ")
	if len(pks) > 1 {
		partition = "(" + partition + ")"
	}
	keys := []string{partition}
	for _, c := range t.clusteringKeys {
		keys = append(keys, c.Name.AsCql(true))
	}
	return "PRIMARY KEY (" + strings.Join(keys, ", ") + ")"
}

func optionValue(v any) string {
	switch value := v.(type) {
	case string:
		return quoteString(value)
	case map[string]string:
		keys := maps.Keys(value)
		sort.Strings(keys)
		var entries []string
		for _, k := range keys {
			entries = append(entries, quoteString(k)+": "+quoteString(value[k]))
		}
		return "{" + strings.Join(entries, ", ") + "}"
	default:
		return fmt.Sprintf("%v", value)
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type FieldSpecification struct {
	Name types.Identifier
	Type types.CqlDataType
}

// UserTypeSpecification describes a CREATE TYPE statement.
type UserTypeSpecification struct {
	Name        types.QualifiedName
	IfNotExists bool
	Fields      []FieldSpecification
}

func NewUserTypeSpecification(name types.QualifiedName) *UserTypeSpecification {
	return &UserTypeSpecification{Name: name}
}

func (u *UserTypeSpecification) Field(name types.Identifier, dt types.CqlDataType) *UserTypeSpecification {
	u.Fields = append(u.Fields, FieldSpecification{Name: name, Type: dt})
	return u
}

func (u *UserTypeSpecification) CQL() string {
	var fields []string
	for _, f := range u.Fields {
		fields = append(fields, f.Name.AsCql(true)+" "+f.Type.String())
	}
	ifNotExists := ""
	if u.IfNotExists {
		ifNotExists = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE TYPE %s%s (%s);", ifNotExists, u.Name.AsCql(true), strings.Join(fields, ", "))
}

// IndexSpecification describes a CREATE INDEX statement. Setting Using makes it a custom index.
type IndexSpecification struct {
	// Name may be empty to let the cluster pick one
	Name        types.Identifier
	Table       types.QualifiedName
	Column      types.Identifier
	Function    types.IndexFunction
	Using       string
	Options     map[string]string
	IfNotExists bool
}

func (i *IndexSpecification) IsCustom() bool {
	return i.Using != ""
}

func (i *IndexSpecification) CQL() string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if i.IsCustom() {
		b.WriteString("CUSTOM ")
	}
	b.WriteString("INDEX ")
	if i.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	if !i.Name.IsEmpty() {
		b.WriteString(i.Name.AsCql(true))
		b.WriteString(" ")
	}
	b.WriteString("ON ")
	b.WriteString(i.Table.AsCql(true))
	b.WriteString(" (")
	if i.Function != types.IndexFunctionNone {
		b.WriteString(string(i.Function) + "(" + i.Column.AsCql(true) + ")")
	} else {
		b.WriteString(i.Column.AsCql(true))
	}
	b.WriteString(")")
	if i.IsCustom() {
		b.WriteString(" USING " + quoteString(i.Using))
		if len(i.Options) > 0 {
			b.WriteString(" WITH OPTIONS = " + optionValue(i.Options))
		}
	}
	b.WriteString(";")
	return b.String()
}

type DropTableSpecification struct {
	Name     types.QualifiedName
	IfExists bool
}

func (d *DropTableSpecification) CQL() string {
	if d.IfExists {
		return "DROP TABLE IF EXISTS " + d.Name.AsCql(true) + ";"
	}
	return "DROP TABLE " + d.Name.AsCql(true) + ";"
}

type DropUserTypeSpecification struct {
	Name     types.QualifiedName
	IfExists bool
}

func (d *DropUserTypeSpecification) CQL() string {
	if d.IfExists {
		return "DROP TYPE IF EXISTS " + d.Name.AsCql(true) + ";"
	}
	return "DROP TYPE " + d.Name.AsCql(true) + ";"
}
