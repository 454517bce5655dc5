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

package session

import (
	"context"
	"strings"
	"time"

	"github.com/giangbb/scylla-mapping/global/types"
	otelgo "github.com/giangbb/scylla-mapping/otel"
	"github.com/gocql/gocql"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	spanExec   = "Exec"
	spanCAS    = "ExecCAS"
	spanSelect = "Select"
)

// Executor runs CQL statements on a gocql session. Driver errors are returned as they are, callers
// translate them with the task they were running.
type Executor struct {
	session  *gocql.Session
	keyspace string
	logger   *zap.Logger
	otelInst *otelgo.OpenTelemetry
}

type Option func(*Executor)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithTelemetry traces every statement and records its latency.
func WithTelemetry(o *otelgo.OpenTelemetry) Option {
	return func(e *Executor) {
		e.otelInst = o
	}
}

func NewExecutor(session *gocql.Session, keyspace string, opts ...Option) *Executor {
	e := &Executor{session: session, keyspace: keyspace, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open connects to the cluster of cfg.
func Open(cfg *types.SessionConfig, opts ...Option) (*Executor, error) {
	cluster, err := NewClusterConfig(cfg)
	if err != nil {
		return nil, err
	}
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}
	e := NewExecutor(s, cfg.Keyspace, opts...)
	e.logger.Info("session created",
		zap.Strings("hosts", cfg.Hosts),
		zap.String("keyspace", cfg.Keyspace),
		zap.String("consistency", cluster.Consistency.String()))
	return e, nil
}

func (e *Executor) Session() *gocql.Session {
	return e.session
}

func (e *Executor) Keyspace() string {
	return e.keyspace
}

// KeyspaceMetadata lets the executor act as the metadata source of a metadata.MetadataStore.
func (e *Executor) KeyspaceMetadata(keyspace string) (*gocql.KeyspaceMetadata, error) {
	return e.session.KeyspaceMetadata(keyspace)
}

// AwaitSchemaAgreement waits until all nodes report the same schema version.
func (e *Executor) AwaitSchemaAgreement(ctx context.Context) error {
	return e.session.AwaitSchemaAgreement(ctx)
}

func (e *Executor) Close() {
	e.session.Close()
}

func (e *Executor) Exec(ctx context.Context, cql string, values ...any) (err error) {
	ctx, done := e.trace(ctx, spanExec, cql)
	defer func() { done(err) }()
	return e.session.Query(cql, values...).WithContext(ctx).Exec()
}

// ExecCAS runs a conditional statement and reports whether it was applied.
func (e *Executor) ExecCAS(ctx context.Context, cql string, values ...any) (applied bool, err error) {
	ctx, done := e.trace(ctx, spanCAS, cql)
	defer func() { done(err) }()
	return e.session.Query(cql, values...).WithContext(ctx).MapScanCAS(make(map[string]any))
}

// Select reads every row of the result, following the driver's automatic paging.
func (e *Executor) Select(ctx context.Context, cql string, values ...any) (rows []map[string]any, err error) {
	ctx, done := e.trace(ctx, spanSelect, cql)
	defer func() { done(err) }()
	iter := e.session.Query(cql, values...).WithContext(ctx).Iter()
	rows = scanAll(iter)
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectPage reads a single page of at most pageSize rows starting at pageState. The returned page
// state is empty once the last page was read.
func (e *Executor) SelectPage(ctx context.Context, cql string, pageSize int, pageState []byte, values ...any) (rows []map[string]any, next []byte, err error) {
	ctx, done := e.trace(ctx, spanSelect, cql)
	defer func() { done(err) }()
	iter := e.session.Query(cql, values...).WithContext(ctx).PageSize(pageSize).PageState(pageState).Iter()
	next = iter.PageState()
	rows = scanAll(iter)
	if err := iter.Close(); err != nil {
		return nil, nil, err
	}
	return rows, next, nil
}

func scanAll(iter *gocql.Iter) []map[string]any {
	rows := make([]map[string]any, 0, iter.NumRows())
	for {
		row := make(map[string]any)
		if !iter.MapScan(row) {
			return rows
		}
		rows = append(rows, row)
	}
}

func (e *Executor) trace(ctx context.Context, name, cql string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := e.otelInst.StartSpan(ctx, name, []attribute.KeyValue{
		attribute.String("keyspace", e.keyspace),
		attribute.String("cql", cql),
	})
	return ctx, func(err error) {
		if err != nil {
			e.otelInst.RecordError(span, err)
			e.logger.Debug("statement failed", zap.String("cql", cql), zap.Error(err))
		}
		e.otelInst.EndSpan(span)
		e.otelInst.RecordMetrics(ctx, name, start, queryType(cql), e.keyspace, err)
	}
}

// queryType is the leading keyword of cql, lower cased.
func queryType(cql string) string {
	fields := strings.Fields(cql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
