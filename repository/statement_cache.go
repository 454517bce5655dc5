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
	lru "github.com/hashicorp/golang-lru"
)

// StatementCache keeps rendered statements per table and kind. It is safe for concurrent use and
// may be shared by the repositories of a keyspace.
type StatementCache struct {
	cache *lru.Cache
}

func NewStatementCache(size int) (*StatementCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &StatementCache{cache: cache}, nil
}

// Get returns the statement cached under table and kind, rendering and storing it with build on a
// miss. Failed renders are not cached.
func (s *StatementCache) Get(table, kind string, build func() (string, error)) (string, error) {
	key := table + "/" + kind
	if cql, ok := s.cache.Get(key); ok {
		return cql.(string), nil
	}
	cql, err := build()
	if err != nil {
		return "", err
	}
	s.cache.Add(key, cql)
	return cql, nil
}

func (s *StatementCache) Len() int {
	return s.cache.Len()
}

// Purge drops every cached statement, e.g. after the schema was recreated.
func (s *StatementCache) Purge() {
	s.cache.Purge()
}
