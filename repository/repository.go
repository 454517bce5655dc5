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
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/giangbb/scylla-mapping/convert"
	"github.com/giangbb/scylla-mapping/dataaccess"
	"github.com/giangbb/scylla-mapping/global/constants"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	otelgo "github.com/giangbb/scylla-mapping/otel"
	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Executor runs the statements of a repository. *session.Executor implements it.
type Executor interface {
	Exec(ctx context.Context, cql string, values ...any) error
	ExecCAS(ctx context.Context, cql string, values ...any) (bool, error)
	Select(ctx context.Context, cql string, values ...any) ([]map[string]any, error)
	SelectPage(ctx context.Context, cql string, pageSize int, pageState []byte, values ...any) ([]map[string]any, []byte, error)
}

// statement kinds, used as statement cache keys
const (
	stmtInsert               = "insert"
	stmtInsertTTL            = "insert_ttl"
	stmtUpdateIfExists       = "update_if_exists"
	stmtSelectAll            = "select_all"
	stmtSelectByPrimaryKey   = "select_by_primary_key"
	stmtSelectByPartitionKey = "select_by_partition_key"
	stmtCountAll             = "count_all"
	stmtCountByPartitionKey  = "count_by_partition_key"
	stmtDelete               = "delete"
	stmtTruncate             = "truncate"
)

type options struct {
	logger     *zap.Logger
	statements *StatementCache
	otelInst   *otelgo.OpenTelemetry
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStatementCache shares a statement cache between repositories.
func WithStatementCache(cache *StatementCache) Option {
	return func(o *options) {
		o.statements = cache
	}
}

// WithTelemetry wraps every repository operation in a span.
func WithTelemetry(o *otelgo.OpenTelemetry) Option {
	return func(opts *options) {
		opts.otelInst = o
	}
}

// Repository reads and writes the table entity T.
type Repository[T any] struct {
	executor   Executor
	converter  *convert.MappingConverter
	helper     *EntityHelper
	statements *StatementCache
	logger     *zap.Logger
	otelInst   *otelgo.OpenTelemetry
}

// New creates the repository of T, a mapped table struct, in keyspace.
func New[T any](executor Executor, converter *convert.MappingConverter, keyspace string, opts ...Option) (*Repository[T], error) {
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if converter == nil {
		return nil, errors.New("converter is required")
	}
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.statements == nil {
		cache, err := NewStatementCache(constants.DefaultStatementCacheSize)
		if err != nil {
			return nil, err
		}
		o.statements = cache
	}

	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("repository type must be a struct, got %s", t)
	}
	entity, err := converter.MappingContext().RequiredPersistentEntity(t)
	if err != nil {
		return nil, err
	}
	helper, err := NewEntityHelper(entity, keyspace)
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		executor:   executor,
		converter:  converter,
		helper:     helper,
		statements: o.statements,
		logger:     o.logger,
		otelInst:   o.otelInst,
	}, nil
}

func (r *Repository[T]) Entity() *mapping.PersistentEntity {
	return r.helper.Entity()
}

func (r *Repository[T]) EntityHelper() *EntityHelper {
	return r.helper
}

func (r *Repository[T]) statement(kind string, build func() (string, error)) (string, error) {
	return r.statements.Get(r.helper.Table().String(), kind, build)
}

func (r *Repository[T]) trace(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := r.otelInst.StartSpan(ctx, "Repository."+operation, []attribute.KeyValue{
		attribute.String("table", r.helper.Table().String()),
	})
	return ctx, func(err error) {
		if err != nil {
			r.otelInst.RecordError(span, err)
		}
		r.otelInst.EndSpan(span)
	}
}

// Save inserts entity, overwriting the row with the same primary key.
func (r *Repository[T]) Save(ctx context.Context, entity T) (err error) {
	ctx, done := r.trace(ctx, "Save")
	defer func() { done(err) }()

	cql, err := r.statement(stmtInsert, func() (string, error) { return r.helper.Insert(false) })
	if err != nil {
		return err
	}
	values, err := r.write(entity)
	if err != nil {
		return err
	}
	return r.exec(ctx, "save", cql, columnValues(values))
}

// SaveWithTTL inserts entity with a time to live, truncated to whole seconds. A zero ttl never
// expires.
func (r *Repository[T]) SaveWithTTL(ctx context.Context, entity T, ttl time.Duration) (err error) {
	ctx, done := r.trace(ctx, "SaveWithTTL")
	defer func() { done(err) }()

	if ttl < 0 {
		return fmt.Errorf("ttl must not be negative, got %s", ttl)
	}
	cql, err := r.statement(stmtInsertTTL, func() (string, error) { return r.helper.Insert(true) })
	if err != nil {
		return err
	}
	values, err := r.write(entity)
	if err != nil {
		return err
	}
	return r.exec(ctx, "save with ttl", cql, append(columnValues(values), int(ttl/time.Second)))
}

// SaveIfExists updates the row of entity only when it exists, reporting whether it did.
func (r *Repository[T]) SaveIfExists(ctx context.Context, entity T) (applied bool, err error) {
	ctx, done := r.trace(ctx, "SaveIfExists")
	defer func() { done(err) }()

	cql, err := r.statement(stmtUpdateIfExists, r.helper.UpdateIfExists)
	if err != nil {
		return false, err
	}
	values, err := r.write(entity)
	if err != nil {
		return false, err
	}
	// the primary key goes last, after the assignments
	bound := make([]any, 0, len(values))
	var keys []any
	for _, v := range values {
		if v.Property.IsPrimaryKey() {
			keys = append(keys, v.Value)
			continue
		}
		bound = append(bound, v.Value)
	}
	bound = append(bound, keys...)

	r.logger.Debug("executing", zap.String("cql", cql))
	applied, err = r.executor.ExecCAS(ctx, cql, bound...)
	if err != nil {
		return false, dataaccess.Translate("save if exists", cql, err)
	}
	return applied, nil
}

// FindByPrimaryKey reads the entity whose primary key columns have the values of key, keyed by
// column name. It fails with dataaccess.ErrEmptyResult when there is no such row.
func (r *Repository[T]) FindByPrimaryKey(ctx context.Context, key map[string]any) (result T, err error) {
	ctx, done := r.trace(ctx, "FindByPrimaryKey")
	defer func() { done(err) }()

	values, err := r.bindColumns(r.helper.Entity().PrimaryKeyProperties(), key)
	if err != nil {
		return result, err
	}
	return r.findByPrimaryKey(ctx, values)
}

// FindByPrimaryKeyOf is FindByPrimaryKey with the key taken from id: an entity value, a
// mapping.MapID or a mapping.MapIdentifiable.
func (r *Repository[T]) FindByPrimaryKeyOf(ctx context.Context, id any) (result T, err error) {
	ctx, done := r.trace(ctx, "FindByPrimaryKeyOf")
	defer func() { done(err) }()

	values, err := r.converter.WriteWhere(id, r.helper.Entity())
	if err != nil {
		return result, err
	}
	bound, err := keyValues(values, r.helper.Entity())
	if err != nil {
		return result, err
	}
	return r.findByPrimaryKey(ctx, bound)
}

func (r *Repository[T]) findByPrimaryKey(ctx context.Context, values []any) (result T, err error) {
	cql, err := r.statement(stmtSelectByPrimaryKey, r.helper.SelectByPrimaryKey)
	if err != nil {
		return result, err
	}
	rows, err := r.selectRows(ctx, "find by primary key", cql, values)
	if err != nil {
		return result, err
	}
	for _, row := range rows {
		if appliedOnly(row) {
			continue
		}
		err = r.converter.Read(row, &result)
		return result, err
	}
	return result, dataaccess.Translate("find by primary key", cql, gocql.ErrNotFound)
}

// FindByPartitionKey reads every row of the partition identified by key, keyed by column name.
func (r *Repository[T]) FindByPartitionKey(ctx context.Context, key map[string]any) (result []T, err error) {
	ctx, done := r.trace(ctx, "FindByPartitionKey")
	defer func() { done(err) }()

	values, err := r.bindColumns(r.helper.Entity().PartitionKeyProperties(), key)
	if err != nil {
		return nil, err
	}
	return r.findByPartitionKey(ctx, values)
}

// FindByPartitionKeyOf is FindByPartitionKey with the partition key taken from id.
func (r *Repository[T]) FindByPartitionKeyOf(ctx context.Context, id any) (result []T, err error) {
	ctx, done := r.trace(ctx, "FindByPartitionKeyOf")
	defer func() { done(err) }()

	values, err := r.partitionKeyOf(id)
	if err != nil {
		return nil, err
	}
	return r.findByPartitionKey(ctx, values)
}

func (r *Repository[T]) findByPartitionKey(ctx context.Context, values []any) ([]T, error) {
	cql, err := r.statement(stmtSelectByPartitionKey, r.helper.SelectByPartitionKey)
	if err != nil {
		return nil, err
	}
	rows, err := r.selectRows(ctx, "find by partition key", cql, values)
	if err != nil {
		return nil, err
	}
	return r.readAll(rows)
}

func (r *Repository[T]) FindAll(ctx context.Context) (result []T, err error) {
	ctx, done := r.trace(ctx, "FindAll")
	defer func() { done(err) }()

	cql, err := r.statement(stmtSelectAll, r.helper.SelectAll)
	if err != nil {
		return nil, err
	}
	rows, err := r.selectRows(ctx, "find all", cql, nil)
	if err != nil {
		return nil, err
	}
	return r.readAll(rows)
}

// FindSlice reads one page of the whole table.
func (r *Repository[T]) FindSlice(ctx context.Context, pageable Pageable) (result *Slice[T], err error) {
	ctx, done := r.trace(ctx, "FindSlice")
	defer func() { done(err) }()

	cql, err := r.statement(stmtSelectAll, r.helper.SelectAll)
	if err != nil {
		return nil, err
	}
	return r.findSlice(ctx, "find slice", cql, pageable, nil)
}

// FindSliceByPartitionKey reads one page of the partition identified by key.
func (r *Repository[T]) FindSliceByPartitionKey(ctx context.Context, key map[string]any, pageable Pageable) (result *Slice[T], err error) {
	ctx, done := r.trace(ctx, "FindSliceByPartitionKey")
	defer func() { done(err) }()

	values, err := r.bindColumns(r.helper.Entity().PartitionKeyProperties(), key)
	if err != nil {
		return nil, err
	}
	cql, err := r.statement(stmtSelectByPartitionKey, r.helper.SelectByPartitionKey)
	if err != nil {
		return nil, err
	}
	return r.findSlice(ctx, "find slice by partition key", cql, pageable, values)
}

// findSlice walks the driver pages, each of pageable.Size rows, up to the requested page.
func (r *Repository[T]) findSlice(ctx context.Context, task, cql string, pageable Pageable, values []any) (*Slice[T], error) {
	if err := pageable.validate(); err != nil {
		return nil, err
	}
	slice := &Slice[T]{Content: make([]T, 0, pageable.Size), Pageable: pageable}
	state := pageable.PageState
	skip := 0
	if len(state) == 0 {
		skip = pageable.Page * pageable.Size
	}

	r.logger.Debug("executing", zap.String("cql", cql), zap.Int("page", pageable.Page), zap.Int("size", pageable.Size))
	taken := 0
	for {
		rows, next, err := r.executor.SelectPage(ctx, cql, pageable.Size, state, values...)
		if err != nil {
			return nil, dataaccess.Translate(task, cql, err)
		}
		for _, row := range rows {
			if appliedOnly(row) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			if taken == pageable.Size {
				slice.HasNext = true
				return slice, nil
			}
			taken++
			var entity T
			if err := r.converter.Read(row, &entity); err != nil {
				return nil, err
			}
			slice.Content = append(slice.Content, entity)
		}
		if len(next) == 0 {
			return slice, nil
		}
		state = next
		if taken == pageable.Size {
			slice.PageState = state
			// a page state does not guarantee that rows follow
			more, _, err := r.executor.SelectPage(ctx, cql, 1, state, values...)
			if err != nil {
				return nil, dataaccess.Translate(task, cql, err)
			}
			for _, row := range more {
				if !appliedOnly(row) {
					slice.HasNext = true
				}
			}
			return slice, nil
		}
	}
}

// Delete removes the row with the primary key of entity.
func (r *Repository[T]) Delete(ctx context.Context, entity T) (err error) {
	ctx, done := r.trace(ctx, "Delete")
	defer func() { done(err) }()

	cql, err := r.statement(stmtDelete, r.helper.DeleteByPrimaryKey)
	if err != nil {
		return err
	}
	values, err := r.converter.WriteWhere(entity, r.helper.Entity())
	if err != nil {
		return err
	}
	bound, err := keyValues(values, r.helper.Entity())
	if err != nil {
		return err
	}
	return r.exec(ctx, "delete", cql, bound)
}

// DeleteAll truncates the table.
func (r *Repository[T]) DeleteAll(ctx context.Context) (err error) {
	ctx, done := r.trace(ctx, "DeleteAll")
	defer func() { done(err) }()

	cql, err := r.statement(stmtTruncate, r.helper.Truncate)
	if err != nil {
		return err
	}
	return r.exec(ctx, "delete all", cql, nil)
}

func (r *Repository[T]) CountAll(ctx context.Context) (count int64, err error) {
	ctx, done := r.trace(ctx, "CountAll")
	defer func() { done(err) }()

	cql, err := r.statement(stmtCountAll, r.helper.CountAll)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, "count all", cql, nil)
}

// CountByPartitionKey counts the rows of the partition identified by key, keyed by column name.
func (r *Repository[T]) CountByPartitionKey(ctx context.Context, key map[string]any) (count int64, err error) {
	ctx, done := r.trace(ctx, "CountByPartitionKey")
	defer func() { done(err) }()

	values, err := r.bindColumns(r.helper.Entity().PartitionKeyProperties(), key)
	if err != nil {
		return 0, err
	}
	cql, err := r.statement(stmtCountByPartitionKey, r.helper.CountByPartitionKey)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, "count by partition key", cql, values)
}

func (r *Repository[T]) CountByPartitionKeyOf(ctx context.Context, id any) (count int64, err error) {
	ctx, done := r.trace(ctx, "CountByPartitionKeyOf")
	defer func() { done(err) }()

	values, err := r.partitionKeyOf(id)
	if err != nil {
		return 0, err
	}
	cql, err := r.statement(stmtCountByPartitionKey, r.helper.CountByPartitionKey)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, "count by partition key", cql, values)
}

// MarshalUDTValue converts value into the user type value of column, for binding it in custom
// statements.
func (r *Repository[T]) MarshalUDTValue(column string, value any) (*convert.UdtValue, error) {
	ct, err := r.nestedColumnType(column, value)
	if err != nil {
		return nil, err
	}
	if !ct.IsUserDefinedType() {
		return nil, fmt.Errorf("column %s of %s is not a user type", column, r.helper.Entity())
	}
	return r.converter.WriteUDT(value)
}

// MarshalTupleValue converts value into the tuple value of column.
func (r *Repository[T]) MarshalTupleValue(column string, value any) (*convert.TupleValue, error) {
	ct, err := r.nestedColumnType(column, value)
	if err != nil {
		return nil, err
	}
	if !ct.IsTupleType() {
		return nil, fmt.Errorf("column %s of %s is not a tuple", column, r.helper.Entity())
	}
	return r.converter.WriteTuple(value)
}

func (r *Repository[T]) nestedColumnType(column string, value any) (*convert.ColumnType, error) {
	if value == nil {
		return nil, fmt.Errorf("cannot marshal nil into column %s", column)
	}
	name := types.IdentifierFromCql(column)
	valueType := indirect(reflect.TypeOf(value))
	for _, p := range r.helper.Entity().Properties() {
		if p.ColumnName() == name && indirect(p.Type()) == valueType {
			return r.converter.ColumnTypeResolver().Resolve(p)
		}
	}
	return nil, fmt.Errorf("no column %s of type %s in %s", column, valueType, r.helper.Entity())
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (r *Repository[T]) write(entity T) ([]convert.ColumnValue, error) {
	return r.converter.Write(entity)
}

func (r *Repository[T]) partitionKeyOf(id any) ([]any, error) {
	values, err := r.converter.WritePartitionKey(id, r.helper.Entity())
	if err != nil {
		return nil, err
	}
	return keyValues(values, r.helper.Entity())
}

// bindColumns returns the values of props from a map keyed by column name, converted for binding.
func (r *Repository[T]) bindColumns(props []*mapping.PersistentProperty, key map[string]any) ([]any, error) {
	values := make([]any, 0, len(props))
	for _, p := range props {
		v, ok := key[p.ColumnName().Internal()]
		if !ok || v == nil {
			return nil, fmt.Errorf("no value for key column %s of %s", p.ColumnName(), r.helper.Entity())
		}
		ct, err := r.converter.ColumnTypeResolver().Resolve(p)
		if err != nil {
			return nil, err
		}
		converted, err := r.converter.ConvertToColumnType(v, ct)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
		values = append(values, converted)
	}
	return values, nil
}

func keyValues(values []convert.ColumnValue, entity *mapping.PersistentEntity) ([]any, error) {
	bound := make([]any, len(values))
	for i, v := range values {
		if v.Value == nil {
			return nil, fmt.Errorf("no value for key column %s of %s", v.Column, entity)
		}
		bound[i] = v.Value
	}
	return bound, nil
}

func columnValues(values []convert.ColumnValue) []any {
	bound := make([]any, len(values))
	for i, v := range values {
		bound[i] = v.Value
	}
	return bound
}

func (r *Repository[T]) exec(ctx context.Context, task, cql string, values []any) error {
	r.logger.Debug("executing", zap.String("cql", cql))
	return dataaccess.Translate(task, cql, r.executor.Exec(ctx, cql, values...))
}

func (r *Repository[T]) selectRows(ctx context.Context, task, cql string, values []any) ([]map[string]any, error) {
	r.logger.Debug("executing", zap.String("cql", cql))
	rows, err := r.executor.Select(ctx, cql, values...)
	if err != nil {
		return nil, dataaccess.Translate(task, cql, err)
	}
	return rows, nil
}

func (r *Repository[T]) readAll(rows []map[string]any) ([]T, error) {
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		if appliedOnly(row) {
			continue
		}
		var entity T
		if err := r.converter.Read(row, &entity); err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, nil
}

func (r *Repository[T]) count(ctx context.Context, task, cql string, values []any) (int64, error) {
	rows, err := r.selectRows(ctx, task, cql, values)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, dataaccess.Translate(task, cql, gocql.ErrNotFound)
	}
	switch v := rows[0]["count"].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s: unexpected count value %T", task, v)
	}
}

// appliedOnly reports whether row only carries the outcome of a conditional statement.
func appliedOnly(row map[string]any) bool {
	_, ok := row[constants.AppliedColumn]
	return ok && len(row) == 1
}
