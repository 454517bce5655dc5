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
	"context"
	"fmt"
	"sync"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// KeyspaceSource provides the driver's view of a keyspace. *gocql.Session implements it.
type KeyspaceSource interface {
	KeyspaceMetadata(keyspace string) (*gocql.KeyspaceMetadata, error)
}

// MetadataStore keeps the tables and user types of the cluster. Keyspaces are loaded on first
// use and reloaded after a schema event touched them.
type MetadataStore struct {
	logger  *zap.Logger
	source  KeyspaceSource
	schemas *SchemaMetadata

	mu    sync.Mutex
	stale map[string]bool
}

func NewMetadataStore(logger *zap.Logger, source KeyspaceSource) *MetadataStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataStore{
		logger:  logger,
		source:  source,
		schemas: NewSchemaMetadata(nil, nil),
		stale:   make(map[string]bool),
	}
}

type keyspaceResult struct {
	keyspace  string
	tables    []*TableSchema
	userTypes []*types.UserDefinedType
	err       error
}

// Initialize loads all given keyspaces concurrently.
func (b *MetadataStore) Initialize(ctx context.Context, keyspaces ...string) error {
	// Buffer size set to the number of keyspaces to avoid blocking senders.
	resultCh := make(chan keyspaceResult, len(keyspaces))
	var wg sync.WaitGroup
	for _, keyspace := range keyspaces {
		wg.Add(1)
		go func(keyspace string) {
			defer wg.Done()
			tables, userTypes, err := b.readKeyspace(ctx, keyspace)
			resultCh <- keyspaceResult{keyspace: keyspace, tables: tables, userTypes: userTypes, err: err}
		}(keyspace)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var firstErr error
	for result := range resultCh {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
			}
			continue
		}
		b.schemas.ReplaceKeyspace(result.keyspace, result.tables, result.userTypes)
		b.markFresh(result.keyspace)
	}
	return firstErr
}

func (b *MetadataStore) Schemas() *SchemaMetadata {
	return b.schemas
}

func (b *MetadataStore) readKeyspace(ctx context.Context, keyspace string) ([]*TableSchema, []*types.UserDefinedType, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	km, err := b.source.KeyspaceMetadata(keyspace)
	if err != nil {
		b.logger.Error("failed to read keyspace metadata", zap.String("keyspace", keyspace), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to read metadata of keyspace '%s': %w", keyspace, err)
	}

	tables := make([]*TableSchema, 0, len(km.Tables))
	for _, tm := range km.Tables {
		table, err := TableSchemaFromMetadata(keyspace, tm)
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, table)
	}
	userTypes := make([]*types.UserDefinedType, 0, len(km.UserTypes))
	for _, um := range km.UserTypes {
		ut, err := UserTypeFromMetadata(um)
		if err != nil {
			return nil, nil, err
		}
		userTypes = append(userTypes, ut)
	}
	b.logger.Debug("loaded keyspace metadata",
		zap.String("keyspace", keyspace),
		zap.Int("tables", len(tables)),
		zap.Int("userTypes", len(userTypes)))
	return tables, userTypes, nil
}

// ReloadKeyspaceSchemas re-reads keyspace from the cluster and replaces what is known about it.
func (b *MetadataStore) ReloadKeyspaceSchemas(ctx context.Context, keyspace string) error {
	tables, userTypes, err := b.readKeyspace(ctx, keyspace)
	if err != nil {
		return err
	}
	b.schemas.ReplaceKeyspace(keyspace, tables, userTypes)
	b.markFresh(keyspace)
	b.logger.Info("reloaded keyspace schema", zap.String("keyspace", keyspace))
	return nil
}

// Invalidate forces the next lookup in keyspace to reload it.
func (b *MetadataStore) Invalidate(keyspace string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stale[keyspace] = true
}

// OnEvent invalidates the keyspace the event happened in.
func (b *MetadataStore) OnEvent(event SchemaEvent) {
	b.logger.Debug("schema changed",
		zap.String("keyspace", event.Keyspace),
		zap.String("kind", string(event.Kind)),
		zap.String("name", event.Name.Internal()),
		zap.String("change", string(event.Type)))
	b.Invalidate(event.Keyspace)
}

func (b *MetadataStore) markFresh(keyspace string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stale, keyspace)
}

func (b *MetadataStore) ensureLoaded(ctx context.Context, keyspace string) error {
	b.mu.Lock()
	stale := b.stale[keyspace]
	b.mu.Unlock()
	if !stale && b.schemas.HasKeyspace(keyspace) {
		return nil
	}
	return b.ReloadKeyspaceSchemas(ctx, keyspace)
}

// Table returns the table definition as found in the cluster.
func (b *MetadataStore) Table(ctx context.Context, keyspace string, name types.Identifier) (*TableSchema, error) {
	if err := b.ensureLoaded(ctx, keyspace); err != nil {
		return nil, err
	}
	return b.schemas.GetTable(keyspace, name)
}

// Tables returns all tables of keyspace.
func (b *MetadataStore) Tables(ctx context.Context, keyspace string) ([]*TableSchema, error) {
	if err := b.ensureLoaded(ctx, keyspace); err != nil {
		return nil, err
	}
	return b.schemas.Tables(keyspace)
}

// UserTypes returns all user types of keyspace.
func (b *MetadataStore) UserTypes(ctx context.Context, keyspace string) ([]*types.UserDefinedType, error) {
	if err := b.ensureLoaded(ctx, keyspace); err != nil {
		return nil, err
	}
	return b.schemas.UserTypes(keyspace)
}

// UserType returns the definition of a user type. It is what the type resolver uses to map
// properties onto user types that exist in the cluster.
func (b *MetadataStore) UserType(keyspace string, name types.Identifier) (*types.UserDefinedType, error) {
	if err := b.ensureLoaded(context.Background(), keyspace); err != nil {
		return nil, err
	}
	return b.schemas.GetUserType(keyspace, name)
}
