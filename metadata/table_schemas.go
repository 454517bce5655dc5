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
	"strings"
	"sync"

	"github.com/giangbb/scylla-mapping/global/types"
	"golang.org/x/exp/maps"
)

// SchemaMetadata contains the tables and user types of every keyspace loaded from the cluster.
type SchemaMetadata struct {
	mu        sync.RWMutex
	tables    map[string]map[string]*TableSchema
	userTypes map[string]map[string]*types.UserDefinedType
}

// NewSchemaMetadata is a constructor for SchemaMetadata. Please use this instead of direct initialization.
func NewSchemaMetadata(tableConfigs []*TableSchema, userTypes []*types.UserDefinedType) *SchemaMetadata {
	s := &SchemaMetadata{
		tables:    make(map[string]map[string]*TableSchema),
		userTypes: make(map[string]map[string]*types.UserDefinedType),
	}
	s.UpdateTables(tableConfigs)
	s.UpdateUserTypes(userTypes)
	return s
}

func (c *SchemaMetadata) Keyspaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyspaces()
}

func (c *SchemaMetadata) keyspaces() []string {
	results := maps.Keys(c.tables)
	for keyspace := range c.userTypes {
		if _, ok := c.tables[keyspace]; !ok {
			results = append(results, keyspace)
		}
	}
	slices.Sort(results)
	return results
}

func (c *SchemaMetadata) HasKeyspace(keyspace string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, tables := c.tables[keyspace]
	_, userTypes := c.userTypes[keyspace]
	return tables || userTypes
}

func (c *SchemaMetadata) ValidateKeyspace(keyspace string) error {
	if !c.HasKeyspace(keyspace) {
		return fmt.Errorf("keyspace '%s' does not exist", keyspace)
	}
	return nil
}

// Tables returns the tables of keyspace sorted by name.
func (c *SchemaMetadata) Tables(keyspace string) ([]*TableSchema, error) {
	if err := c.ValidateKeyspace(keyspace); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	tables := maps.Values(c.tables[keyspace])
	slices.SortFunc(tables, func(a, b *TableSchema) int {
		return strings.Compare(a.Name.Internal(), b.Name.Internal())
	})
	return tables, nil
}

// UserTypes returns the user types of keyspace sorted by name.
func (c *SchemaMetadata) UserTypes(keyspace string) ([]*types.UserDefinedType, error) {
	if err := c.ValidateKeyspace(keyspace); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	userTypes := maps.Values(c.userTypes[keyspace])
	slices.SortFunc(userTypes, func(a, b *types.UserDefinedType) int {
		return strings.Compare(a.Name().Internal(), b.Name().Internal())
	})
	return userTypes, nil
}

func (c *SchemaMetadata) GetTable(keyspace string, table types.Identifier) (*TableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tables, ok := c.tables[keyspace]
	if !ok {
		if _, ok := c.userTypes[keyspace]; !ok {
			return nil, fmt.Errorf("keyspace '%s' does not exist", keyspace)
		}
	}
	if tableConfig, ok := tables[table.Internal()]; ok {
		return tableConfig, nil
	}
	return nil, fmt.Errorf("table '%s' does not exist", table.Internal())
}

func (c *SchemaMetadata) GetUserType(keyspace string, name types.Identifier) (*types.UserDefinedType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	userTypes, ok := c.userTypes[keyspace]
	if !ok {
		if _, ok := c.tables[keyspace]; !ok {
			return nil, fmt.Errorf("keyspace '%s' does not exist", keyspace)
		}
	}
	if ut, ok := userTypes[name.Internal()]; ok {
		return ut, nil
	}
	return nil, fmt.Errorf("user type '%s' does not exist", name.Internal())
}

// ReplaceKeyspace swaps the whole content of keyspace in one step.
func (c *SchemaMetadata) ReplaceKeyspace(keyspace string, tables []*TableSchema, userTypes []*types.UserDefinedType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[keyspace] = CreateTableMap(tables)
	c.userTypes[keyspace] = createUserTypeMap(userTypes)
}

func (c *SchemaMetadata) RemoveKeyspace(keyspace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, keyspace)
	delete(c.userTypes, keyspace)
}

func (c *SchemaMetadata) UpdateTables(tableConfigs []*TableSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tableConfig := range tableConfigs {
		keyspace, exists := c.tables[tableConfig.Keyspace]
		if !exists {
			keyspace = make(map[string]*TableSchema)
			c.tables[tableConfig.Keyspace] = keyspace
		}
		keyspace[tableConfig.Name.Internal()] = tableConfig
	}
}

func (c *SchemaMetadata) UpdateUserTypes(userTypes []*types.UserDefinedType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ut := range userTypes {
		keyspace, exists := c.userTypes[ut.Keyspace()]
		if !exists {
			keyspace = make(map[string]*types.UserDefinedType)
			c.userTypes[ut.Keyspace()] = keyspace
		}
		keyspace[ut.Name().Internal()] = ut
	}
}

func (c *SchemaMetadata) RemoveTable(keyspace string, table types.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables[keyspace], table.Internal())
}

func (c *SchemaMetadata) RemoveUserType(keyspace string, name types.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.userTypes[keyspace], name.Internal())
}

func (c *SchemaMetadata) CountTables() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, keyspace := range c.tables {
		count += len(keyspace)
	}
	return count
}
