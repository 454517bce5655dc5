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
	"slices"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/utilities"
	"github.com/gocql/gocql"
	"golang.org/x/exp/maps"
)

// TableSchema contains all schema information about a single existing table
type TableSchema struct {
	Keyspace    string
	Name        types.Identifier
	Columns     map[string]*types.Column
	PrimaryKeys []*types.Column
	// column names in the order the cluster reported them
	order []string
}

// NewTableSchema is a constructor for TableSchema. Please use this instead of direct initialization.
func NewTableSchema(keyspace string, table types.Identifier, columns []*types.Column) *TableSchema {
	columnMap := make(map[string]*types.Column, len(columns))
	var order []string
	var pks []*types.Column = nil
	for _, column := range columns {
		if column.Ordering == "" && column.KeyType == types.KeyTypeClustering {
			column.Ordering = types.Ascending
		}
		columnMap[column.Name.Internal()] = column
		order = append(order, column.Name.Internal())
		if column.IsPrimaryKey() {
			pks = append(pks, column)
		}
	}
	sortPrimaryKeys(pks)

	return &TableSchema{
		Keyspace:    keyspace,
		Name:        table,
		Columns:     columnMap,
		PrimaryKeys: pks,
		order:       order,
	}
}

// TableSchemaFromMetadata converts the driver's table metadata.
func TableSchemaFromMetadata(keyspace string, table *gocql.TableMetadata) (*TableSchema, error) {
	names := table.OrderedColumns
	if len(names) == 0 {
		names = maps.Keys(table.Columns)
		slices.Sort(names)
	}
	columns := make([]*types.Column, 0, len(names))
	for _, name := range names {
		col, ok := table.Columns[name]
		if !ok {
			continue
		}
		dt, err := columnType(keyspace, col)
		if err != nil {
			return nil, fmt.Errorf("column %s of table %s.%s: %w", name, keyspace, table.Name, err)
		}
		column := &types.Column{
			Name:         types.IdentifierFromInternal(col.Name),
			CQLType:      dt,
			KeyType:      keyTypeOf(col.Kind),
			PkPrecedence: col.ComponentIndex,
		}
		if column.KeyType == types.KeyTypeClustering {
			column.Ordering = types.Ascending
			if col.Order == gocql.DESC {
				column.Ordering = types.Descending
			}
		}
		columns = append(columns, column)
	}
	return NewTableSchema(keyspace, types.IdentifierFromInternal(table.Name), columns), nil
}

// UserTypeFromMetadata converts the driver's user type metadata. Nested user types become
// references without fields.
func UserTypeFromMetadata(ut *gocql.UserTypeMetadata) (*types.UserDefinedType, error) {
	if len(ut.FieldNames) != len(ut.FieldTypes) {
		return nil, fmt.Errorf("user type %s.%s has %d field names but %d field types", ut.Keyspace, ut.Name, len(ut.FieldNames), len(ut.FieldTypes))
	}
	names := make([]types.Identifier, len(ut.FieldNames))
	fieldTypes := make([]types.CqlDataType, len(ut.FieldTypes))
	for i, name := range ut.FieldNames {
		dt, err := utilities.FromTypeInfo(ut.Keyspace, ut.FieldTypes[i])
		if err != nil {
			return nil, fmt.Errorf("field %s of user type %s.%s: %w", name, ut.Keyspace, ut.Name, err)
		}
		names[i] = types.IdentifierFromInternal(name)
		fieldTypes[i] = dt
	}
	return types.NewUserDefinedType(ut.Keyspace, types.IdentifierFromInternal(ut.Name), names, fieldTypes)
}

// columnType prefers the CQL type string, which keeps frozen markers the driver's TypeInfo drops.
func columnType(keyspace string, col *gocql.ColumnMetadata) (types.CqlDataType, error) {
	if col.Validator != "" {
		if dt, err := utilities.ParseCqlTypeString(col.Validator, utilities.ShallowUserTypes(keyspace)); err == nil {
			return dt, nil
		}
	}
	if col.Type == nil {
		return nil, fmt.Errorf("no type information")
	}
	return utilities.FromTypeInfo(keyspace, col.Type)
}

func keyTypeOf(kind gocql.ColumnKind) types.KeyType {
	switch kind {
	case gocql.ColumnPartitionKey:
		return types.KeyTypePartition
	case gocql.ColumnClusteringKey:
		return types.KeyTypeClustering
	case gocql.ColumnStatic:
		return types.KeyTypeStatic
	default:
		return types.KeyTypeRegular
	}
}

func (t *TableSchema) SameTable(other *TableSchema) bool {
	if other == nil {
		return false
	}
	return t.Keyspace == other.Keyspace && t.Name == other.Name
}

// SameSchema reports whether both tables have the same key layout and column types.
func (t *TableSchema) SameSchema(other *TableSchema) bool {
	if other == nil {
		return false
	}

	if len(t.PrimaryKeys) != len(other.PrimaryKeys) || len(t.Columns) != len(other.Columns) {
		return false
	}

	for i, key := range t.PrimaryKeys {
		otherKey := other.PrimaryKeys[i]
		if key.Name != otherKey.Name || key.KeyType != otherKey.KeyType || !types.CqlTypesEqual(key.CQLType, otherKey.CQLType) {
			return false
		}
	}
	for name, col := range t.Columns {
		otherCol, ok := other.Columns[name]
		if !ok {
			return false
		}
		if col.KeyType != otherCol.KeyType || !types.CqlTypesEqual(col.CQLType, otherCol.CQLType) {
			return false
		}
	}
	return true
}

// AllColumns returns the columns in the order the cluster reported them.
func (t *TableSchema) AllColumns() []*types.Column {
	result := make([]*types.Column, 0, len(t.order))
	for _, name := range t.order {
		result = append(result, t.Columns[name])
	}
	return result
}

func (t *TableSchema) HasColumn(columnName types.Identifier) bool {
	_, ok := t.Columns[columnName.Internal()]
	return ok
}

func (t *TableSchema) GetColumn(columnName types.Identifier) (*types.Column, error) {
	col, ok := t.Columns[columnName.Internal()]
	if !ok {
		return nil, fmt.Errorf("unknown column '%s' in table %s.%s", columnName.Internal(), t.Keyspace, t.Name.Internal())
	}
	return col, nil
}

func (t *TableSchema) GetPrimaryKeys() []types.Identifier {
	var primaryKeys []types.Identifier
	for _, pk := range t.PrimaryKeys {
		primaryKeys = append(primaryKeys, pk.Name)
	}
	return primaryKeys
}

// UserTypes returns the names of all user types the columns of this table refer to.
func (t *TableSchema) UserTypes() []types.Identifier {
	var result []types.Identifier
	for _, col := range t.AllColumns() {
		for _, name := range types.ReferencedUserTypes(col.CQLType) {
			if !slices.Contains(result, name) {
				result = append(result, name)
			}
		}
	}
	return result
}

// Specification rebuilds the CREATE TABLE statement of this table.
func (t *TableSchema) Specification() *TableSpecification {
	spec := NewTableSpecification(types.NewQualifiedName(types.IdentifierFromInternal(t.Keyspace), t.Name))
	for _, key := range t.PrimaryKeys {
		if key.KeyType == types.KeyTypePartition {
			spec.PartitionKeyColumn(key.Name, key.CQLType)
		} else {
			spec.ClusteredKeyColumn(key.Name, key.CQLType, key.Ordering)
		}
	}
	for _, col := range t.AllColumns() {
		switch col.KeyType {
		case types.KeyTypeStatic:
			spec.StaticColumn(col.Name, col.CQLType)
		case types.KeyTypeRegular:
			spec.Column(col.Name, col.CQLType)
		}
	}
	return spec
}

func (t *TableSchema) Describe() string {
	return t.Specification().CQL()
}
