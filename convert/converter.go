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
	"encoding"
	"errors"
	"fmt"
	"reflect"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"go.uber.org/zap"
)

// ColumnValue is a column with the value to bind for it.
type ColumnValue struct {
	Column   types.Identifier
	Value    any
	Property *mapping.PersistentProperty
}

// MappingConverter converts between mapped structs and the values gocql reads and writes.
type MappingConverter struct {
	mappingContext *mapping.MappingContext
	resolver       ColumnTypeResolver
	conversions    *CustomConversions
	logger         *zap.Logger
}

func NewMappingConverter(mappingContext *mapping.MappingContext, opts ...Option) (*MappingConverter, error) {
	o := newOptions(opts)
	resolver := o.resolver
	if r, ok := resolver.(*DefaultColumnTypeResolver); ok {
		o.conversions = r.CustomConversions()
	}
	if resolver == nil {
		r, err := NewDefaultColumnTypeResolver(mappingContext, opts...)
		if err != nil {
			return nil, err
		}
		// share the conversions created for the resolver
		o.conversions = r.CustomConversions()
		resolver = r
	}
	return &MappingConverter{
		mappingContext: mappingContext,
		resolver:       resolver,
		conversions:    o.conversions,
		logger:         o.logger,
	}, nil
}

func (c *MappingConverter) MappingContext() *mapping.MappingContext {
	return c.mappingContext
}

func (c *MappingConverter) ColumnTypeResolver() ColumnTypeResolver {
	return c.resolver
}

// Read populates dest, a pointer to a mapped struct, from a row. Columns missing from the row
// leave their properties untouched.
func (c *MappingConverter) Read(row Row, dest any) error {
	return c.readInto(RowValueProvider{Row: row}, dest)
}

// ReadUDT populates dest from a user type value, either a *UdtValue or the field map gocql
// produces for user type columns.
func (c *MappingConverter) ReadUDT(value any, dest any) error {
	provider, err := udtProvider(value)
	if err != nil {
		return err
	}
	return c.readInto(provider, dest)
}

// ReadTuple populates dest from a *TupleValue or a slice of element values.
func (c *MappingConverter) ReadTuple(value any, dest any) error {
	provider, err := tupleProvider(value)
	if err != nil {
		return err
	}
	return c.readInto(provider, dest)
}

func udtProvider(value any) (ValueProvider, error) {
	switch v := value.(type) {
	case *UdtValue:
		return UdtValueProvider{Fields: v.Fields()}, nil
	case map[string]any:
		return UdtValueProvider{Fields: v}, nil
	case *map[string]any:
		return UdtValueProvider{Fields: *v}, nil
	}
	return nil, fmt.Errorf("cannot read user type from %T", value)
}

func tupleProvider(value any) (ValueProvider, error) {
	switch v := value.(type) {
	case *TupleValue:
		return TupleValueProvider{Values: v.Values()}, nil
	case []any:
		return TupleValueProvider{Values: v}, nil
	}
	return nil, fmt.Errorf("cannot read tuple from %T", value)
}

func (c *MappingConverter) readInto(provider ValueProvider, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dest)
	}
	entity, err := c.mappingContext.RequiredPersistentEntity(rv.Type())
	if err != nil {
		return err
	}
	return c.readEntity(provider, rv.Elem(), entity)
}

func (c *MappingConverter) readEntity(provider ValueProvider, target reflect.Value, entity *mapping.PersistentEntity) error {
	for _, p := range entity.Properties() {
		raw, ok := provider.Value(p)
		if !ok {
			continue
		}
		v, err := c.readValue(raw, p.Type())
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		p.Set(target, v)
	}
	return nil
}

// readValue converts a driver value into target.
func (c *MappingConverter) readValue(raw any, target reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(raw)
	if converted, ok, err := c.conversions.convertForRead(rv, target); ok || err != nil {
		return converted, err
	}
	if rv.Type() == target {
		return rv, nil
	}
	if target.Kind() == reflect.Interface && rv.Type().Implements(target) {
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out, nil
	}
	if kind, ok := mapping.EntityKindOf(target); ok && target.Kind() == reflect.Struct {
		return c.readNested(raw, target, kind)
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(target), nil
		}
		if target.Kind() != reflect.Pointer {
			return c.readValue(rv.Elem().Interface(), target)
		}
	}
	if target.Kind() == reflect.Pointer {
		inner, err := c.readValue(raw, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	if isEnumLike(target) {
		if s, ok := raw.(string); ok {
			ptr := reflect.New(target)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, &ConversionError{From: rv.Type(), To: target, Err: err}
			}
			return ptr.Elem(), nil
		}
	}

	switch target.Kind() {
	case reflect.Slice:
		if target.Elem().Kind() != reflect.Uint8 || (rv.Kind() != reflect.String && rv.Kind() != reflect.Slice) {
			return c.readSlice(rv, target)
		}
	case reflect.Map:
		return c.readMap(rv, target)
	}
	return convertKind(rv, target)
}

func (c *MappingConverter) readNested(raw any, target reflect.Type, kind mapping.EntityKind) (reflect.Value, error) {
	entity, err := c.mappingContext.RequiredPersistentEntity(target)
	if err != nil {
		return reflect.Value{}, err
	}
	var provider ValueProvider
	if kind == mapping.KindTuple {
		provider, err = tupleProvider(raw)
	} else {
		provider, err = udtProvider(raw)
	}
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(target)
	if err := c.readEntity(provider, ptr.Elem(), entity); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func (c *MappingConverter) readSlice(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := reflect.MakeSlice(target, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := c.readValue(rv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(e)
		}
		return out, nil
	case reflect.Map:
		// a set read into a map[K]struct{} by the driver
		out := reflect.MakeSlice(target, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			e, err := c.readValue(iter.Key().Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, e)
		}
		return out, nil
	}
	return reflect.Value{}, &ConversionError{From: rv.Type(), To: target}
}

func (c *MappingConverter) readMap(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	out := reflect.MakeMap(target)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if target.Elem() != emptyStructType {
			break
		}
		for i := 0; i < rv.Len(); i++ {
			k, err := c.readValue(rv.Index(i).Interface(), target.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(k, reflect.ValueOf(struct{}{}))
		}
		return out, nil
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			k, err := c.readValue(iter.Key().Interface(), target.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			v, err := c.readValue(iter.Value().Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(k, v)
		}
		return out, nil
	}
	return reflect.Value{}, &ConversionError{From: rv.Type(), To: target}
}

// convertKind converts between numeric kinds, and between strings and byte slices.
func convertKind(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !rv.Type().ConvertibleTo(target) {
		return reflect.Value{}, &ConversionError{From: rv.Type(), To: target}
	}
	// Go converts integers to strings as runes
	if target.Kind() == reflect.String && rv.Kind() != reflect.String && rv.Kind() != reflect.Slice {
		return reflect.Value{}, &ConversionError{From: rv.Type(), To: target}
	}
	return rv.Convert(target), nil
}

// Write returns the column values of a mapped struct in property order.
func (c *MappingConverter) Write(source any) ([]ColumnValue, error) {
	rv, entity, err := c.entityValue(source)
	if err != nil {
		return nil, err
	}
	return c.writeProperties(rv, entity.Properties())
}

// WriteWhere returns the primary key column values of an entity. id is either a value of the
// entity type, a mapping.MapID or a mapping.MapIdentifiable.
func (c *MappingConverter) WriteWhere(id any, entity *mapping.PersistentEntity) ([]ColumnValue, error) {
	return c.writeKey(id, entity, entity.PrimaryKeyProperties())
}

// WritePartitionKey is WriteWhere restricted to the partition key.
func (c *MappingConverter) WritePartitionKey(id any, entity *mapping.PersistentEntity) ([]ColumnValue, error) {
	return c.writeKey(id, entity, entity.PartitionKeyProperties())
}

func (c *MappingConverter) writeKey(id any, entity *mapping.PersistentEntity, keys []*mapping.PersistentProperty) ([]ColumnValue, error) {
	var mapID mapping.MapID
	switch v := id.(type) {
	case mapping.MapID:
		mapID = v
	case mapping.MapIdentifiable:
		mapID = v.MapID()
	}
	if mapID == nil {
		rv := reflect.ValueOf(id)
		if !rv.IsValid() || indirectType(rv.Type()) != entity.Type() {
			return nil, fmt.Errorf("cannot use %T as id of %s", id, entity)
		}
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, fmt.Errorf("cannot use nil %T as id", id)
		}
		return c.writeProperties(rv, keys)
	}

	for field := range mapID {
		p, ok := entity.Property(field)
		if !ok || !p.IsPrimaryKey() {
			return nil, fmt.Errorf("%s is not a primary key property of %s", field, entity)
		}
	}
	values := make([]ColumnValue, 0, len(keys))
	for _, p := range keys {
		v, ok := mapID[p.Name()]
		if !ok {
			return nil, fmt.Errorf("missing value for primary key column %s of %s", p.ColumnName(), entity)
		}
		ct, err := c.resolver.Resolve(p)
		if err != nil {
			return nil, err
		}
		converted, err := c.ConvertToColumnType(v, ct)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
		values = append(values, ColumnValue{Column: p.ColumnName(), Value: converted, Property: p})
	}
	return values, nil
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (c *MappingConverter) entityValue(source any) (reflect.Value, *mapping.PersistentEntity, error) {
	if source == nil {
		return reflect.Value{}, nil, errors.New("cannot write nil")
	}
	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("cannot write nil %T", source)
	}
	entity, err := c.mappingContext.RequiredPersistentEntity(rv.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, entity, nil
}

func (c *MappingConverter) writeProperties(rv reflect.Value, props []*mapping.PersistentProperty) ([]ColumnValue, error) {
	values := make([]ColumnValue, 0, len(props))
	for _, p := range props {
		ct, err := c.resolver.Resolve(p)
		if err != nil {
			return nil, err
		}
		v, err := c.writeValue(p.Get(rv), ct)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
		values = append(values, ColumnValue{Column: p.ColumnName(), Value: v, Property: p})
	}
	return values, nil
}

// WriteUDT converts a mapped user type struct into a UdtValue.
func (c *MappingConverter) WriteUDT(source any) (*UdtValue, error) {
	rv, entity, err := c.entityValue(source)
	if err != nil {
		return nil, err
	}
	if !entity.IsUserDefinedType() {
		return nil, fmt.Errorf("%s is not a user type", entity)
	}
	ct, err := c.resolver.ResolveType(entity.Type())
	if err != nil {
		return nil, err
	}
	return c.writeUDT(rv, entity, ct)
}

func (c *MappingConverter) writeUDT(rv reflect.Value, entity *mapping.PersistentEntity, ct *ColumnType) (*UdtValue, error) {
	udt, ok := types.Unfreeze(ct.DataType()).(*types.UserDefinedType)
	if !ok {
		return nil, fmt.Errorf("%s does not resolve to a user type", entity)
	}
	values, err := c.writeProperties(rv, entity.Properties())
	if err != nil {
		return nil, err
	}
	value := NewUdtValue(udt)
	for _, v := range values {
		value.Set(v.Column, v.Value)
	}
	return value, nil
}

// WriteTuple converts a mapped tuple struct into a TupleValue.
func (c *MappingConverter) WriteTuple(source any) (*TupleValue, error) {
	rv, entity, err := c.entityValue(source)
	if err != nil {
		return nil, err
	}
	if !entity.IsTuple() {
		return nil, fmt.Errorf("%s is not a tuple", entity)
	}
	ct, err := c.resolver.ResolveType(entity.Type())
	if err != nil {
		return nil, err
	}
	return c.writeTuple(rv, entity, ct)
}

func (c *MappingConverter) writeTuple(rv reflect.Value, entity *mapping.PersistentEntity, ct *ColumnType) (*TupleValue, error) {
	tuple, ok := types.Unfreeze(ct.DataType()).(*types.TupleType)
	if !ok {
		return nil, fmt.Errorf("%s does not resolve to a tuple", entity)
	}
	values, err := c.writeProperties(rv, entity.Properties())
	if err != nil {
		return nil, err
	}
	elements := make([]any, len(values))
	for i, v := range values {
		elements[i] = v.Value
	}
	return NewTupleValue(tuple, elements...), nil
}

// ConvertToColumnType converts a single value into what gocql should bind for columnType.
func (c *MappingConverter) ConvertToColumnType(value any, columnType *ColumnType) (any, error) {
	if value == nil {
		return nil, nil
	}
	return c.writeValue(reflect.ValueOf(value), columnType)
}

func (c *MappingConverter) writeValue(rv reflect.Value, ct *ColumnType) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	if ct == nil {
		ct = ObjectColumnType
	}
	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case *UdtValue, *TupleValue:
			if rv.IsNil() {
				return nil, nil
			}
			return v, nil
		}
	}
	if converted, ok, err := c.conversions.convertForWrite(rv); err != nil {
		return nil, &ConversionError{From: rv.Type(), To: ct.Type(), Err: err}
	} else if ok {
		rv = converted
	}
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return c.writeValue(rv.Elem(), ct)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		if !isExact(rv.Type()) {
			return c.writeValue(rv.Elem(), ct)
		}
	}

	if ct.IsGeneric() && !ct.IsCollectionLike() {
		resolved, err := c.resolver.ResolveValue(rv.Interface())
		if err != nil {
			return nil, err
		}
		if resolved.IsGeneric() {
			return rv.Interface(), nil
		}
		ct = resolved
	}

	if kind, ok := mapping.EntityKindOf(rv.Type()); ok {
		entity, err := c.mappingContext.RequiredPersistentEntity(rv.Type())
		if err != nil {
			return nil, err
		}
		if kind == mapping.KindTuple {
			return c.writeTuple(rv, entity, c.nestedColumnType(rv.Type(), ct))
		}
		return c.writeUDT(rv, entity, c.nestedColumnType(rv.Type(), ct))
	}

	switch {
	case ct.IsList() || ct.IsSet():
		return c.writeCollection(rv, ct)
	case ct.IsMap():
		return c.writeMap(rv, ct)
	}

	if dt := ct.DataType(); dt != nil && isTextType(dt) && isEnumLike(rv.Type()) {
		if m, ok := rv.Interface().(encoding.TextMarshaler); ok {
			text, err := m.MarshalText()
			if err != nil {
				return nil, &ConversionError{From: rv.Type(), To: ct.Type(), Err: err}
			}
			return string(text), nil
		}
	}
	return baseValue(rv), nil
}

// nestedColumnType returns ct when it describes t, resolving t otherwise. Components of generic
// collections carry no CQL type.
func (c *MappingConverter) nestedColumnType(t reflect.Type, ct *ColumnType) *ColumnType {
	if ct != nil && ct.DataType() != nil && (ct.IsUserDefinedType() || ct.IsTupleType()) {
		return ct
	}
	resolved, err := c.resolver.ResolveType(t)
	if err != nil {
		return ct
	}
	return resolved
}

func isTextType(dt types.CqlDataType) bool {
	switch dt.Code() {
	case types.TEXT, types.VARCHAR, types.ASCII:
		return true
	}
	return false
}

func (c *MappingConverter) writeCollection(rv reflect.Value, ct *ColumnType) (any, error) {
	elem := ct.ComponentType()
	if elem == nil {
		elem = ObjectColumnType
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			v, err := c.writeValue(rv.Index(i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make([]any, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			v, err := c.writeValue(iter.Key(), elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, &ConversionError{From: rv.Type(), To: ct.Type()}
}

func (c *MappingConverter) writeMap(rv reflect.Value, ct *ColumnType) (any, error) {
	if rv.Kind() != reflect.Map {
		return nil, &ConversionError{From: rv.Type(), To: ct.Type()}
	}
	if rv.IsNil() {
		return nil, nil
	}
	keyType, valueType := ct.ComponentType(), ct.MapValueType()
	if keyType == nil {
		keyType = ObjectColumnType
	}
	if valueType == nil {
		valueType = ObjectColumnType
	}
	out := make(map[any]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := c.writeValue(iter.Key(), keyType)
		if err != nil {
			return nil, err
		}
		v, err := c.writeValue(iter.Value(), valueType)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// baseValue unwraps named scalar types, e.g. type Status int, into their predeclared type.
func baseValue(rv reflect.Value) any {
	if rv.Type().PkgPath() == "" {
		return rv.Interface()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int8:
		return int8(rv.Int())
	case reflect.Int16:
		return int16(rv.Int())
	case reflect.Int32:
		return int32(rv.Int())
	case reflect.Int:
		return int(rv.Int())
	case reflect.Int64:
		if isExact(rv.Type()) {
			return rv.Interface()
		}
		return rv.Int()
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

// GetID returns the primary key values of a mapped struct keyed by field name.
func (c *MappingConverter) GetID(source any) (mapping.MapID, error) {
	rv, entity, err := c.entityValue(source)
	if err != nil {
		return nil, err
	}
	id := mapping.MapID{}
	for _, p := range entity.PrimaryKeyProperties() {
		id[p.Name()] = p.Get(rv).Interface()
	}
	return id, nil
}

// ExtractID returns source as a MapID: MapIDs are returned as is, MapIdentifiable values report
// their own and mapped structs are read with GetID.
func (c *MappingConverter) ExtractID(source any) (mapping.MapID, error) {
	switch v := source.(type) {
	case mapping.MapID:
		return v, nil
	case mapping.MapIdentifiable:
		return v.MapID(), nil
	}
	return c.GetID(source)
}
