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
	"math/big"
	"net"
	"reflect"
	"time"

	"github.com/giangbb/scylla-mapping/global/constants"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/utilities"
	"github.com/gocql/gocql"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"gopkg.in/inf.v0"
)

// ColumnTypeResolver resolves the column type of properties, Go types and values.
type ColumnTypeResolver interface {
	Resolve(property *mapping.PersistentProperty) (*ColumnType, error)
	ResolveType(t reflect.Type) (*ColumnType, error)
	ResolveValue(value any) (*ColumnType, error)
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	bytesType           = reflect.TypeOf([]byte(nil))
	emptyStructType     = reflect.TypeOf(struct{}{})
)

// exactTypes are matched before looking at the kind of a type.
var exactTypes = map[reflect.Type]types.CqlDataType{
	reflect.TypeOf(time.Time{}):      types.TypeTimestamp,
	reflect.TypeOf(time.Duration(0)): types.TypeTime,
	reflect.TypeOf(gocql.UUID{}):     types.TypeUuid,
	reflect.TypeOf(gocql.Duration{}): types.TypeDuration,
	reflect.TypeOf((*big.Int)(nil)):  types.TypeVarint,
	reflect.TypeOf((*inf.Dec)(nil)):  types.TypeDecimal,
	reflect.TypeOf(net.IP(nil)):      types.TypeInet,
	bytesType:                        types.TypeBlob,
}

var kindTypes = map[reflect.Kind]types.CqlDataType{
	reflect.String:  types.TypeText,
	reflect.Bool:    types.TypeBoolean,
	reflect.Int8:    types.TypeTinyint,
	reflect.Int16:   types.TypeSmallint,
	reflect.Int:     types.TypeInt,
	reflect.Int32:   types.TypeInt,
	reflect.Int64:   types.TypeBigint,
	reflect.Float32: types.TypeFloat,
	reflect.Float64: types.TypeDouble,
}

// Option configures a DefaultColumnTypeResolver or a MappingConverter.
type Option func(*options)

type options struct {
	keyspace    string
	userTypes   UserTypeResolver
	conversions *CustomConversions
	resolver    ColumnTypeResolver
	cacheSize   int
	logger      *zap.Logger
}

func WithKeyspace(keyspace string) Option {
	return func(o *options) {
		o.keyspace = keyspace
	}
}

// WithUserTypeResolver replaces the default MappingUserTypeResolver.
func WithUserTypeResolver(userTypes UserTypeResolver) Option {
	return func(o *options) {
		o.userTypes = userTypes
	}
}

func WithCustomConversions(conversions *CustomConversions) Option {
	return func(o *options) {
		o.conversions = conversions
	}
}

// WithColumnTypeResolver sets the resolver used by a MappingConverter.
func WithColumnTypeResolver(resolver ColumnTypeResolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{cacheSize: constants.DefaultTypeCacheSize, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.conversions == nil {
		o.conversions = NewCustomConversions()
	}
	return o
}

// DefaultColumnTypeResolver resolves column types from struct tags, custom conversions, Go types
// and mapped entities. Property results are cached.
type DefaultColumnTypeResolver struct {
	mappingContext *mapping.MappingContext
	userTypes      UserTypeResolver
	conversions    *CustomConversions
	cache          *lru.Cache
	logger         *zap.Logger
}

func NewDefaultColumnTypeResolver(mappingContext *mapping.MappingContext, opts ...Option) (*DefaultColumnTypeResolver, error) {
	o := newOptions(opts)
	cache, err := lru.New(o.cacheSize)
	if err != nil {
		return nil, err
	}
	r := &DefaultColumnTypeResolver{
		mappingContext: mappingContext,
		userTypes:      o.userTypes,
		conversions:    o.conversions,
		cache:          cache,
		logger:         o.logger,
	}
	if r.userTypes == nil {
		r.userTypes = &MappingUserTypeResolver{Keyspace: o.keyspace, MappingContext: mappingContext, Resolver: r}
	}
	return r, nil
}

func (r *DefaultColumnTypeResolver) CustomConversions() *CustomConversions {
	return r.conversions
}

func (r *DefaultColumnTypeResolver) Resolve(property *mapping.PersistentProperty) (*ColumnType, error) {
	if cached, ok := r.cache.Get(property); ok {
		return cached.(*ColumnType), nil
	}
	ct, err := r.resolveProperty(property, r.userTypes, false)
	if err != nil {
		return nil, err
	}
	r.cache.Add(property, ct)
	r.logger.Debug("resolved column type", zap.Stringer("property", property), zap.Stringer("columnType", ct))
	return ct, nil
}

func (r *DefaultColumnTypeResolver) ResolveType(t reflect.Type) (*ColumnType, error) {
	return r.resolveType(t, r.userTypes, false)
}

// ResolveValue resolves the column type of a runtime value. Collections of `any` take their
// component types from their first element.
func (r *DefaultColumnTypeResolver) ResolveValue(value any) (*ColumnType, error) {
	switch v := value.(type) {
	case nil:
		return ObjectColumnType, nil
	case *UdtValue:
		return newColumnType(reflect.TypeOf(v), v.Type()), nil
	case *TupleValue:
		return newColumnType(reflect.TypeOf(v), v.Type()), nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() && !isExact(rv.Type()) {
		rv = rv.Elem()
	}
	ct, err := r.ResolveType(rv.Type())
	if err != nil || !ct.IsGeneric() {
		return ct, err
	}
	return r.resolveGenericCollection(rv, ct)
}

func (r *DefaultColumnTypeResolver) resolveGenericCollection(rv reflect.Value, ct *ColumnType) (*ColumnType, error) {
	switch {
	case ct.IsList() || ct.IsSet():
		first, ok := firstElement(rv)
		if !ok {
			return ct, nil
		}
		elem, err := r.ResolveValue(first)
		if err != nil || elem.IsGeneric() {
			return ct, err
		}
		if ct.IsSet() {
			return newColumnType(rv.Type(), types.NewSetType(frozenComponent(elem.DataType())), elem), nil
		}
		return newColumnType(rv.Type(), types.NewListType(frozenComponent(elem.DataType())), elem), nil
	case ct.IsMap():
		iter := rv.MapRange()
		if !iter.Next() {
			return ct, nil
		}
		key, err := r.ResolveValue(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		value, err := r.ResolveValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		if key.IsGeneric() || value.IsGeneric() {
			return ct, nil
		}
		return newColumnType(rv.Type(), types.NewMapType(frozenComponent(key.DataType()), frozenComponent(value.DataType())), key, value), nil
	}
	return ct, nil
}

func firstElement(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if e := rv.Index(i); !isNil(e) {
				return e.Interface(), true
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			return iter.Key().Interface(), true
		}
	}
	return nil, false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return !v.IsValid()
}

func isExact(t reflect.Type) bool {
	_, ok := exactTypes[t]
	return ok
}

// frozenComponent freezes types nested in a collection, tuple or user type, which Cassandra
// requires for anything but scalars.
func frozenComponent(dt types.CqlDataType) types.CqlDataType {
	if types.IsScalar(dt) {
		return dt
	}
	return types.Freeze(dt)
}

// resolveProperty resolves a property with the given user types. nested is set for user type
// fields and tuple elements, which are frozen.
func (r *DefaultColumnTypeResolver) resolveProperty(p *mapping.PersistentProperty, userTypes UserTypeResolver, nested bool) (*ColumnType, error) {
	var ct *ColumnType
	var err error
	if p.ExplicitType() != "" {
		ct, err = r.resolveExplicitType(p, userTypes)
	} else {
		ct, err = r.resolveType(p.Type(), userTypes, p.IsSet())
	}
	if err != nil {
		var unresolvable *UnresolvableTypeError
		if errors.As(err, &unresolvable) && unresolvable.Property == "" {
			unresolvable.Property = p.String()
		}
		return nil, err
	}
	if (p.IsFrozen() || nested) && ct.dataType != nil && !types.IsScalar(ct.dataType) {
		frozen := *ct
		frozen.dataType = types.Freeze(ct.dataType)
		ct = &frozen
	}
	return ct, nil
}

func (r *DefaultColumnTypeResolver) resolveExplicitType(p *mapping.PersistentProperty, userTypes UserTypeResolver) (*ColumnType, error) {
	dt, err := utilities.ParseCqlTypeString(p.ExplicitType(), userTypeLookup(userTypes))
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p, err)
	}
	return r.fromDataType(p.Type(), dt), nil
}

// fromDataType builds a column type from an explicit CQL type, deriving component Go types
// from goType where its shape matches.
func (r *DefaultColumnTypeResolver) fromDataType(goType reflect.Type, dt types.CqlDataType) *ColumnType {
	t := goType
	for t.Kind() == reflect.Pointer && !isExact(t) {
		t = t.Elem()
	}
	component := func(componentGoType reflect.Type, componentType types.CqlDataType) *ColumnType {
		if componentGoType == nil {
			componentGoType = anyType
		}
		return r.fromDataType(componentGoType, componentType)
	}
	switch v := types.Unfreeze(dt).(type) {
	case *types.ListType:
		return newColumnType(goType, dt, component(elemType(t), v.ElementType()))
	case *types.SetType:
		if t.Kind() == reflect.Map {
			return newColumnType(goType, dt, component(t.Key(), v.ElementType()))
		}
		return newColumnType(goType, dt, component(elemType(t), v.ElementType()))
	case *types.MapType:
		var keyType, valueType reflect.Type
		if t.Kind() == reflect.Map {
			keyType, valueType = t.Key(), t.Elem()
		}
		return newColumnType(goType, dt, component(keyType, v.KeyType()), component(valueType, v.ValueType()))
	case *types.TupleType:
		components := make([]*ColumnType, len(v.Elements()))
		for i, e := range v.Elements() {
			components[i] = component(nil, e)
		}
		return newColumnType(goType, dt, components...)
	}
	return newColumnType(goType, dt)
}

func elemType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		return t.Elem()
	}
	return nil
}

func (r *DefaultColumnTypeResolver) resolveType(t reflect.Type, userTypes UserTypeResolver, set bool) (*ColumnType, error) {
	if t == nil || t == anyType {
		return ObjectColumnType, nil
	}
	if target, ok := r.conversions.WriteTarget(t); ok {
		converted, err := r.resolveType(target, userTypes, set)
		if err != nil {
			return nil, err
		}
		return converted, nil
	}
	if dt, ok := exactTypes[t]; ok {
		return newColumnType(t, dt), nil
	}
	if t.Kind() == reflect.Pointer {
		ct, err := r.resolveType(t.Elem(), userTypes, set)
		if err != nil {
			return nil, err
		}
		pointer := *ct
		pointer.goType = t
		return &pointer, nil
	}
	if isEnumLike(t) {
		return newColumnType(t, types.TypeText), nil
	}
	if dt, ok := kindTypes[t.Kind()]; ok {
		return newColumnType(t, dt), nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return newColumnType(t, types.TypeBlob), nil
		}
		elem, err := r.resolveType(t.Elem(), userTypes, false)
		if err != nil {
			return nil, err
		}
		if set {
			return r.collection(t, types.SET, elem)
		}
		return r.collection(t, types.LIST, elem)
	case reflect.Map:
		key, err := r.resolveType(t.Key(), userTypes, false)
		if err != nil {
			return nil, err
		}
		if t.Elem() == emptyStructType {
			return r.collection(t, types.SET, key)
		}
		value, err := r.resolveType(t.Elem(), userTypes, false)
		if err != nil {
			return nil, err
		}
		return r.collection(t, types.MAP, key, value)
	case reflect.Struct:
		return r.resolveEntity(t, userTypes)
	case reflect.Interface:
		return ObjectColumnType, nil
	}
	return nil, &UnresolvableTypeError{Type: t}
}

// collection builds a list, set or map column type. Non scalar components are frozen.
func (r *DefaultColumnTypeResolver) collection(t reflect.Type, kind types.CqlTypeCode, components ...*ColumnType) (*ColumnType, error) {
	for _, c := range components {
		if c.IsGeneric() {
			return newGenericCollectionType(t, kind, components...), nil
		}
	}
	switch kind {
	case types.LIST:
		return newColumnType(t, types.NewListType(frozenComponent(components[0].dataType)), components...), nil
	case types.SET:
		return newColumnType(t, types.NewSetType(frozenComponent(components[0].dataType)), components...), nil
	default:
		return newColumnType(t, types.NewMapType(frozenComponent(components[0].dataType), frozenComponent(components[1].dataType)), components...), nil
	}
}

func (r *DefaultColumnTypeResolver) resolveEntity(t reflect.Type, userTypes UserTypeResolver) (*ColumnType, error) {
	entity, err := r.mappingContext.PersistentEntity(t)
	if err != nil {
		return nil, err
	}
	if entity == nil || entity.IsTable() {
		return nil, &UnresolvableTypeError{Type: t}
	}
	if entity.IsUserDefinedType() {
		udt, err := userTypes.ResolveUserType(entity.Name())
		if err != nil {
			return nil, err
		}
		return newColumnType(t, udt), nil
	}

	var components []*ColumnType
	var elements []types.CqlDataType
	for _, p := range entity.Properties() {
		ct, err := r.resolveProperty(p, userTypes, true)
		if err != nil {
			return nil, err
		}
		dt, err := ct.RequiredDataType()
		if err != nil {
			return nil, fmt.Errorf("tuple element %s: %w", p, err)
		}
		components = append(components, ct)
		elements = append(elements, dt)
	}
	return newColumnType(t, types.NewTupleType(elements...), components...), nil
}

// isEnumLike reports whether t is a named type with a text form, like a string or int enum
// with MarshalText and UnmarshalText.
func isEnumLike(t reflect.Type) bool {
	return t.PkgPath() != "" &&
		t.Implements(textMarshalerType) &&
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}
