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

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/utilities"
)

// UserTypeResolver finds the definition of a user defined type by name.
type UserTypeResolver interface {
	ResolveUserType(name types.Identifier) (*types.UserDefinedType, error)
}

// UserTypeSource provides user types of a keyspace, typically loaded from the cluster.
type UserTypeSource interface {
	UserType(keyspace string, name types.Identifier) (*types.UserDefinedType, error)
}

// MappingUserTypeResolver builds user types from the user type entities of a MappingContext.
// Field types referring to other user types are references by name. In shallow mode every user
// type is returned as a reference, which is all DDL generation needs.
type MappingUserTypeResolver struct {
	Keyspace       string
	Shallow        bool
	MappingContext *mapping.MappingContext
	// Resolver resolves field types. Required unless Shallow is set.
	Resolver *DefaultColumnTypeResolver
}

func (m *MappingUserTypeResolver) ResolveUserType(name types.Identifier) (*types.UserDefinedType, error) {
	if m.Shallow {
		return types.NewUserDefinedTypeReference(m.Keyspace, name), nil
	}
	for _, entity := range m.MappingContext.UserTypeEntities() {
		if entity.Name() != name {
			continue
		}
		return m.define(entity)
	}
	return nil, fmt.Errorf("user type %s is not mapped", name.AsCql(true))
}

func (m *MappingUserTypeResolver) define(entity *mapping.PersistentEntity) (*types.UserDefinedType, error) {
	shallow := &MappingUserTypeResolver{Keyspace: m.Keyspace, Shallow: true}
	var names []types.Identifier
	var fieldTypes []types.CqlDataType
	for _, p := range entity.Properties() {
		ct, err := m.Resolver.resolveProperty(p, shallow, true)
		if err != nil {
			return nil, err
		}
		dt, err := ct.RequiredDataType()
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p, err)
		}
		names = append(names, p.ColumnName())
		fieldTypes = append(fieldTypes, dt)
	}
	return types.NewUserDefinedType(m.Keyspace, entity.Name(), names, fieldTypes)
}

// KeyspaceUserTypeResolver resolves user types from a keyspace's schema.
type KeyspaceUserTypeResolver struct {
	Keyspace string
	Source   UserTypeSource
}

func (k *KeyspaceUserTypeResolver) ResolveUserType(name types.Identifier) (*types.UserDefinedType, error) {
	udt, err := k.Source.UserType(k.Keyspace, name)
	if err != nil {
		return nil, fmt.Errorf("user type %s not found in keyspace %s: %w", name.AsCql(true), k.Keyspace, err)
	}
	return udt, nil
}

func userTypeLookup(resolver UserTypeResolver) utilities.UserTypeLookup {
	return func(name types.Identifier) (types.CqlDataType, error) {
		udt, err := resolver.ResolveUserType(name)
		if err != nil {
			return nil, err
		}
		return udt, nil
	}
}
