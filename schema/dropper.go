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

package schema

import (
	"context"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/metadata"
	"github.com/giangbb/scylla-mapping/utilities"
	"go.uber.org/zap"
)

// KeyspaceSchema lists what exists in a keyspace. *metadata.MetadataStore implements it.
type KeyspaceSchema interface {
	Tables(ctx context.Context, keyspace string) ([]*metadata.TableSchema, error)
	UserTypes(ctx context.Context, keyspace string) ([]*types.UserDefinedType, error)
}

// SchemaDropper drops the tables and user types of the factory's keyspace.
type SchemaDropper struct {
	executor       Executor
	existing       KeyspaceSchema
	mappingContext *mapping.MappingContext
	factory        *SchemaFactory
	logger         *zap.Logger
	events         *utilities.EventPublisher[metadata.SchemaEvent]
}

func NewSchemaDropper(executor Executor, existing KeyspaceSchema, factory *SchemaFactory, opts ...Option) *SchemaDropper {
	o := newOptions(opts)
	return &SchemaDropper{
		executor:       executor,
		existing:       existing,
		mappingContext: factory.MappingContext(),
		factory:        factory,
		logger:         o.logger,
		events:         o.events,
	}
}

// DropTables drops the existing tables used by mapped entities, or every table of the keyspace
// when dropUnused is set.
func (d *SchemaDropper) DropTables(ctx context.Context, dropUnused bool) error {
	tables, err := d.existing.Tables(ctx, d.factory.Keyspace())
	if err != nil {
		return err
	}
	for _, table := range tables {
		if !dropUnused && !d.mappingContext.UsesTable(table.Name) {
			continue
		}
		spec := d.factory.DropTableSpecification(table.Name, false)
		if err := execute(ctx, d.executor, d.logger, d.events, "drop table", spec, metadata.SchemaObjectDropped, metadata.SchemaObjectTable, spec.Name); err != nil {
			return err
		}
	}
	return nil
}

// UserTypesToDrop returns the existing user types DropUserTypes would drop, in drop order.
// Mapped user types are always dropped so they can be recreated. With dropUnused, user types no
// mapped entity uses are dropped as well.
func (d *SchemaDropper) UserTypesToDrop(ctx context.Context, dropUnused bool) ([]types.Identifier, error) {
	userTypes, err := d.existing.UserTypes(ctx, d.factory.Keyspace())
	if err != nil {
		return nil, err
	}
	canRecreate := make(map[types.Identifier]bool)
	for _, entity := range d.mappingContext.UserTypeEntities() {
		canRecreate[entity.Name()] = true
	}

	names := make([]types.Identifier, len(userTypes))
	for i, ut := range userTypes {
		names[i] = ut.Name()
	}
	var toDrop []types.Identifier
	for _, name := range NewUserTypeDependencyGraph(userTypes).DropOrderOf(names) {
		if canRecreate[name] || (dropUnused && !d.mappingContext.UsesUserType(name)) {
			toDrop = append(toDrop, name)
		}
	}
	return toDrop, nil
}

func (d *SchemaDropper) DropUserTypes(ctx context.Context, dropUnused bool) error {
	toDrop, err := d.UserTypesToDrop(ctx, dropUnused)
	if err != nil {
		return err
	}
	for _, name := range toDrop {
		spec := d.factory.DropUserTypeSpecification(name, false)
		if err := execute(ctx, d.executor, d.logger, d.events, "drop type", spec, metadata.SchemaObjectDropped, metadata.SchemaObjectUserType, spec.Name); err != nil {
			return err
		}
	}
	return nil
}
