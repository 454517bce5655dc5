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

package mapping

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/utilities"
	"go.uber.org/zap"
)

// MappingContext builds and caches the entities of mapped struct types. It is safe for
// concurrent use.
type MappingContext struct {
	mu       sync.RWMutex
	entities map[reflect.Type]*PersistentEntity
	// registration order, so schema operations are deterministic
	order    []reflect.Type
	naming   NamingStrategy
	verifier Verifier
	logger   *zap.Logger
}

type Option func(*MappingContext)

func WithNamingStrategy(naming NamingStrategy) Option {
	return func(c *MappingContext) {
		c.naming = naming
	}
}

func WithVerifier(verifier Verifier) Option {
	return func(c *MappingContext) {
		c.verifier = verifier
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *MappingContext) {
		c.logger = logger
	}
}

func NewMappingContext(opts ...Option) *MappingContext {
	c := &MappingContext{
		entities: make(map[reflect.Type]*PersistentEntity),
		naming:   SnakeCase,
		verifier: DefaultVerifier,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds entities for the given values. A value can be a struct, a pointer to a struct
// or a reflect.Type.
func (c *MappingContext) Register(values ...any) error {
	for _, v := range values {
		t, ok := v.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(v)
		}
		if _, err := c.RequiredPersistentEntity(t); err != nil {
			return err
		}
	}
	return nil
}

// PersistentEntity returns the entity of t, creating it on first use. It returns nil without an
// error when t is not a mapped struct.
func (c *MappingContext) PersistentEntity(t reflect.Type) (*PersistentEntity, error) {
	t = indirect(t)
	if _, ok := EntityKindOf(t); !ok {
		return nil, nil
	}
	c.mu.RLock()
	e, ok := c.entities[t]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addEntity(t)
}

// RequiredPersistentEntity is PersistentEntity failing with ErrNotAnEntity for unmapped types.
func (c *MappingContext) RequiredPersistentEntity(t reflect.Type) (*PersistentEntity, error) {
	e, err := c.PersistentEntity(t)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnEntity, t)
	}
	return e, nil
}

// PersistentEntityOf returns the entity of the dynamic type of value.
func (c *MappingContext) PersistentEntityOf(value any) (*PersistentEntity, error) {
	return c.RequiredPersistentEntity(reflect.TypeOf(value))
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// addEntity must be called with the write lock held.
func (c *MappingContext) addEntity(t reflect.Type) (*PersistentEntity, error) {
	if e, ok := c.entities[t]; ok {
		return e, nil
	}
	e, err := newPersistentEntity(t, c.naming)
	if err != nil {
		return nil, err
	}
	if err := c.verifier.Verify(e); err != nil {
		return nil, err
	}
	mark := len(c.order)
	c.entities[t] = e
	c.order = append(c.order, t)
	c.logger.Debug("registered persistent entity",
		zap.String("type", t.String()),
		zap.String("kind", e.Kind().String()),
		zap.String("name", e.Name().Internal()))

	// user types and tuples reachable from properties are entities too
	for _, p := range e.Properties() {
		for _, nested := range nestedEntityTypes(p.Type()) {
			if _, err := c.addEntity(nested); err != nil {
				c.truncate(mark)
				return nil, fmt.Errorf("property %s: %w", p, err)
			}
		}
	}
	return e, nil
}

// truncate drops every entity registered after the first mark registrations.
func (c *MappingContext) truncate(mark int) {
	for _, t := range c.order[mark:] {
		delete(c.entities, t)
	}
	c.order = c.order[:mark]
}

// nestedEntityTypes finds entity types in t, looking into pointers, slices, arrays and maps.
func nestedEntityTypes(t reflect.Type) []reflect.Type {
	t = indirect(t)
	if _, ok := EntityKindOf(t); ok {
		return []reflect.Type{t}
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return nestedEntityTypes(t.Elem())
	case reflect.Map:
		return append(nestedEntityTypes(t.Key()), nestedEntityTypes(t.Elem())...)
	default:
		return nil
	}
}

func (c *MappingContext) entitiesOf(keep func(*PersistentEntity) bool) []*PersistentEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*PersistentEntity
	for _, t := range c.order {
		if e := c.entities[t]; keep(e) {
			result = append(result, e)
		}
	}
	return result
}

// Entities returns all entities in registration order.
func (c *MappingContext) Entities() []*PersistentEntity {
	return c.entitiesOf(func(*PersistentEntity) bool { return true })
}

func (c *MappingContext) TableEntities() []*PersistentEntity {
	return c.entitiesOf((*PersistentEntity).IsTable)
}

func (c *MappingContext) UserTypeEntities() []*PersistentEntity {
	return c.entitiesOf((*PersistentEntity).IsUserDefinedType)
}

func (c *MappingContext) TupleEntities() []*PersistentEntity {
	return c.entitiesOf((*PersistentEntity).IsTuple)
}

// EntitiesForTable returns the table entities mapped to name.
func (c *MappingContext) EntitiesForTable(name types.Identifier) []*PersistentEntity {
	return c.entitiesOf(func(e *PersistentEntity) bool {
		return e.IsTable() && e.Name() == name
	})
}

// UsesTable reports whether an entity is mapped to the table.
func (c *MappingContext) UsesTable(name types.Identifier) bool {
	return len(c.EntitiesForTable(name)) > 0
}

// UsesUserType reports whether the user type is mapped by an entity or referenced by an explicit
// property type.
func (c *MappingContext) UsesUserType(name types.Identifier) bool {
	for _, e := range c.Entities() {
		if e.IsUserDefinedType() && e.Name() == name {
			return true
		}
		for _, p := range e.Properties() {
			if p.ExplicitType() == "" {
				continue
			}
			dt, err := utilities.ParseCqlTypeString(p.ExplicitType(), utilities.ShallowUserTypes(""))
			if err != nil {
				continue
			}
			for _, ref := range types.ReferencedUserTypes(dt) {
				if ref == name {
					return true
				}
			}
		}
	}
	return false
}

func (c *MappingContext) NamingStrategy() NamingStrategy {
	return c.naming
}

func (c *MappingContext) Logger() *zap.Logger {
	return c.logger
}
