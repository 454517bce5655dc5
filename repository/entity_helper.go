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

package repository

import (
	"errors"
	"fmt"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
)

// EntityHelper renders the CQL statements of a table entity. Columns are bound in property
// order: partition keys, clustering keys, then the remaining columns.
type EntityHelper struct {
	entity  *mapping.PersistentEntity
	table   types.QualifiedName
	all     []string
	primary []string
	pKeys   []string
	nonKeys []string
}

func NewEntityHelper(entity *mapping.PersistentEntity, keyspace string) (*EntityHelper, error) {
	if entity == nil {
		return nil, errors.New("entity is required")
	}
	if !entity.IsTable() {
		return nil, fmt.Errorf("%s is not a table entity", entity)
	}
	if keyspace == "" {
		return nil, fmt.Errorf("keyspace is required for %s", entity)
	}
	h := &EntityHelper{
		entity:  entity,
		table:   types.NewQualifiedName(types.IdentifierFromInternal(keyspace), entity.Name()),
		all:     columnNames(entity.Properties()),
		primary: columnNames(entity.PrimaryKeyProperties()),
		pKeys:   columnNames(entity.PartitionKeyProperties()),
		nonKeys: columnNames(entity.NonKeyProperties()),
	}
	if len(h.pKeys) == 0 {
		return nil, fmt.Errorf("no partition key columns found for %s", entity)
	}
	return h, nil
}

func columnNames(props []*mapping.PersistentProperty) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.ColumnName().AsCql(true)
	}
	return names
}

func (h *EntityHelper) Entity() *mapping.PersistentEntity {
	return h.entity
}

func (h *EntityHelper) Table() types.QualifiedName {
	return h.table
}

// Insert binds every column, followed by the TTL in seconds when withTTL is set.
func (h *EntityHelper) Insert(withTTL bool) (string, error) {
	opts := []optFunc{table(h.table.String()), columns(h.all)}
	if withTTL {
		opts = append(opts, usingTTL())
	}
	return render(insertTmpl, opts...)
}

// UpdateIfExists binds the non key columns followed by the primary key.
func (h *EntityHelper) UpdateIfExists() (string, error) {
	if len(h.nonKeys) == 0 {
		return "", fmt.Errorf("%s has no non key columns to update", h.entity)
	}
	return render(updateTmpl, table(h.table.String()), assignments(h.nonKeys), conditions(h.primary), ifExists())
}

func (h *EntityHelper) SelectAll() (string, error) {
	return render(selectTmpl, table(h.table.String()), columns(h.all))
}

func (h *EntityHelper) SelectByPrimaryKey() (string, error) {
	return render(selectTmpl, table(h.table.String()), columns(h.all), conditions(h.primary))
}

func (h *EntityHelper) SelectByPartitionKey() (string, error) {
	return render(selectTmpl, table(h.table.String()), columns(h.all), conditions(h.pKeys))
}

func (h *EntityHelper) CountAll() (string, error) {
	return render(countTmpl, table(h.table.String()))
}

func (h *EntityHelper) CountByPartitionKey() (string, error) {
	return render(countTmpl, table(h.table.String()), conditions(h.pKeys))
}

func (h *EntityHelper) DeleteByPrimaryKey() (string, error) {
	return render(deleteTmpl, table(h.table.String()), conditions(h.primary))
}

func (h *EntityHelper) Truncate() (string, error) {
	return render(truncateTmpl, table(h.table.String()))
}
