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
	"fmt"

	"github.com/giangbb/scylla-mapping/convert"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/metadata"
)

// SchemaFactory derives DDL specifications from mapped entities. User types used by columns are
// rendered by name only, so specifications can be built before the types exist.
type SchemaFactory struct {
	mappingContext *mapping.MappingContext
	resolver       *convert.DefaultColumnTypeResolver
	keyspace       string
}

// NewSchemaFactory creates a factory qualifying every name with keyspace. An empty keyspace
// renders unqualified names.
func NewSchemaFactory(mappingContext *mapping.MappingContext, keyspace string, opts ...convert.Option) (*SchemaFactory, error) {
	opts = append(opts,
		convert.WithKeyspace(keyspace),
		convert.WithUserTypeResolver(&convert.MappingUserTypeResolver{Keyspace: keyspace, Shallow: true}))
	resolver, err := convert.NewDefaultColumnTypeResolver(mappingContext, opts...)
	if err != nil {
		return nil, err
	}
	return &SchemaFactory{mappingContext: mappingContext, resolver: resolver, keyspace: keyspace}, nil
}

func (f *SchemaFactory) Keyspace() string {
	return f.keyspace
}

func (f *SchemaFactory) MappingContext() *mapping.MappingContext {
	return f.mappingContext
}

func (f *SchemaFactory) qualify(name types.Identifier) types.QualifiedName {
	return types.NewQualifiedName(types.IdentifierFromInternal(f.keyspace), name)
}

func (f *SchemaFactory) dataType(p *mapping.PersistentProperty) (types.CqlDataType, error) {
	ct, err := f.resolver.Resolve(p)
	if err != nil {
		return nil, err
	}
	dt, err := ct.RequiredDataType()
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p, err)
	}
	return dt, nil
}

// CreateTableSpecification builds the CREATE TABLE statement of a table entity. Non scalar
// primary key columns are frozen.
func (f *SchemaFactory) CreateTableSpecification(entity *mapping.PersistentEntity, ifNotExists bool) (*metadata.TableSpecification, error) {
	if !entity.IsTable() {
		return nil, fmt.Errorf("%s is not a table entity", entity)
	}
	spec := metadata.NewTableSpecification(f.qualify(entity.Name()))
	spec.IfNotExists = ifNotExists
	partitionKeys := 0
	for _, p := range entity.Properties() {
		dt, err := f.dataType(p)
		if err != nil {
			return nil, err
		}
		if p.IsPrimaryKey() && !types.IsScalar(dt) {
			dt = types.Freeze(dt)
		}
		switch {
		case p.IsPartitionKey():
			partitionKeys++
			spec.PartitionKeyColumn(p.ColumnName(), dt)
		case p.IsClusteringKey():
			spec.ClusteredKeyColumn(p.ColumnName(), dt, p.Ordering())
		case p.IsStatic():
			spec.StaticColumn(p.ColumnName(), dt)
		default:
			spec.Column(p.ColumnName(), dt)
		}
	}
	if partitionKeys == 0 {
		return nil, fmt.Errorf("no partition key columns found in %s", entity)
	}
	return spec, nil
}

// CreateIndexSpecifications returns one specification per index declared on the properties of a
// table entity.
func (f *SchemaFactory) CreateIndexSpecifications(entity *mapping.PersistentEntity, ifNotExists bool) ([]*metadata.IndexSpecification, error) {
	if !entity.IsTable() {
		return nil, fmt.Errorf("%s is not a table entity", entity)
	}
	var specs []*metadata.IndexSpecification
	for _, p := range entity.Properties() {
		for _, index := range p.Indexes() {
			specs = append(specs, &metadata.IndexSpecification{
				Name:        index.Name,
				Table:       f.qualify(entity.Name()),
				Column:      p.ColumnName(),
				Function:    index.Function,
				IfNotExists: ifNotExists,
			})
		}
	}
	return specs, nil
}

// CreateUserTypeSpecification builds the CREATE TYPE statement of a user type entity. Non scalar
// fields are frozen.
func (f *SchemaFactory) CreateUserTypeSpecification(entity *mapping.PersistentEntity, ifNotExists bool) (*metadata.UserTypeSpecification, error) {
	if !entity.IsUserDefinedType() {
		return nil, fmt.Errorf("%s is not a user type entity", entity)
	}
	if len(entity.Properties()) == 0 {
		return nil, fmt.Errorf("no fields in user type %s", entity)
	}
	spec := metadata.NewUserTypeSpecification(f.qualify(entity.Name()))
	spec.IfNotExists = ifNotExists
	for _, p := range entity.Properties() {
		dt, err := f.dataType(p)
		if err != nil {
			return nil, err
		}
		if !types.IsScalar(dt) {
			dt = types.Freeze(dt)
		}
		spec.Field(p.ColumnName(), dt)
	}
	return spec, nil
}

func (f *SchemaFactory) DropTableSpecification(name types.Identifier, ifExists bool) *metadata.DropTableSpecification {
	return &metadata.DropTableSpecification{Name: f.qualify(name), IfExists: ifExists}
}

func (f *SchemaFactory) DropUserTypeSpecification(name types.Identifier, ifExists bool) *metadata.DropUserTypeSpecification {
	return &metadata.DropUserTypeSpecification{Name: f.qualify(name), IfExists: ifExists}
}
