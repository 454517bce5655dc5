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

	"github.com/giangbb/scylla-mapping/dataaccess"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/metadata"
	"github.com/giangbb/scylla-mapping/utilities"
	"go.uber.org/zap"
)

// Executor runs a single CQL statement. *session.Executor implements it.
type Executor interface {
	Exec(ctx context.Context, cql string, values ...any) error
}

type Option func(*options)

type options struct {
	logger *zap.Logger
	events *utilities.EventPublisher[metadata.SchemaEvent]
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventPublisher publishes a SchemaEvent for every applied statement.
func WithEventPublisher(events *utilities.EventPublisher[metadata.SchemaEvent]) Option {
	return func(o *options) {
		o.events = events
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SchemaCreator creates the user types, tables and indexes of the mapped entities.
type SchemaCreator struct {
	executor       Executor
	mappingContext *mapping.MappingContext
	factory        *SchemaFactory
	logger         *zap.Logger
	events         *utilities.EventPublisher[metadata.SchemaEvent]
}

func NewSchemaCreator(executor Executor, factory *SchemaFactory, opts ...Option) *SchemaCreator {
	o := newOptions(opts)
	return &SchemaCreator{
		executor:       executor,
		mappingContext: factory.MappingContext(),
		factory:        factory,
		logger:         o.logger,
		events:         o.events,
	}
}

// CreateTableSpecifications returns a specification per mapped table. Entities sharing a table
// yield one specification, built from the first registered entity.
func (c *SchemaCreator) CreateTableSpecifications(ifNotExists bool) ([]*metadata.TableSpecification, error) {
	var specs []*metadata.TableSpecification
	seen := make(map[types.Identifier]bool)
	for _, entity := range c.mappingContext.TableEntities() {
		if seen[entity.Name()] {
			continue
		}
		seen[entity.Name()] = true
		spec, err := c.factory.CreateTableSpecification(entity, ifNotExists)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c *SchemaCreator) CreateIndexSpecifications(ifNotExists bool) ([]*metadata.IndexSpecification, error) {
	var specs []*metadata.IndexSpecification
	for _, entity := range c.mappingContext.TableEntities() {
		indexes, err := c.factory.CreateIndexSpecifications(entity, ifNotExists)
		if err != nil {
			return nil, err
		}
		specs = append(specs, indexes...)
	}
	return specs, nil
}

// CreateUserTypeSpecifications returns the mapped user types in creation order.
func (c *SchemaCreator) CreateUserTypeSpecifications(ifNotExists bool) ([]*metadata.UserTypeSpecification, error) {
	set := NewUserTypeSet()
	for _, entity := range c.mappingContext.UserTypeEntities() {
		spec, err := c.factory.CreateUserTypeSpecification(entity, ifNotExists)
		if err != nil {
			return nil, err
		}
		set.Add(spec)
	}
	specs, err := set.CreationOrder()
	if err != nil {
		return nil, err
	}
	c.logger.Info("collected user type specifications", zap.Int("count", len(specs)))
	return specs, nil
}

func (c *SchemaCreator) CreateTables(ctx context.Context, ifNotExists bool) error {
	specs, err := c.CreateTableSpecifications(ifNotExists)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if err := c.apply(ctx, "create table", spec, metadata.SchemaObjectTable, spec.Name); err != nil {
			return err
		}
	}
	return nil
}

func (c *SchemaCreator) CreateIndexes(ctx context.Context, ifNotExists bool) error {
	specs, err := c.CreateIndexSpecifications(ifNotExists)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		name := types.NewQualifiedName(spec.Table.Keyspace, spec.Name)
		if err := c.apply(ctx, "create index", spec, metadata.SchemaObjectIndex, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *SchemaCreator) CreateUserTypes(ctx context.Context, ifNotExists bool) error {
	specs, err := c.CreateUserTypeSpecifications(ifNotExists)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if err := c.apply(ctx, "create type", spec, metadata.SchemaObjectUserType, spec.Name); err != nil {
			return err
		}
	}
	return nil
}

func (c *SchemaCreator) apply(ctx context.Context, task string, spec metadata.Specification, kind metadata.SchemaObjectKind, name types.QualifiedName) error {
	return execute(ctx, c.executor, c.logger, c.events, task, spec, metadata.SchemaObjectCreated, kind, name)
}

func execute(
	ctx context.Context,
	executor Executor,
	logger *zap.Logger,
	events *utilities.EventPublisher[metadata.SchemaEvent],
	task string,
	spec metadata.Specification,
	change metadata.SchemaEventType,
	kind metadata.SchemaObjectKind,
	name types.QualifiedName,
) error {
	cql := spec.CQL()
	logger.Info(task, zap.String("name", name.String()), zap.String("cql", cql))
	if err := executor.Exec(ctx, cql); err != nil {
		return dataaccess.Translate(task, cql, err)
	}
	events.SendEvent(metadata.SchemaEvent{
		Type:     change,
		Kind:     kind,
		Keyspace: name.Keyspace.Internal(),
		Name:     name.Name,
		CQL:      cql,
	})
	return nil
}
