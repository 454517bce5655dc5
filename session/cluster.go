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
	"fmt"
	"strings"

	"github.com/giangbb/scylla-mapping/global/constants"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/gocql/gocql"
)

// NewClusterConfig builds the driver configuration of cfg. Unset values fall back to the
// defaults in the constants package.
func NewClusterConfig(cfg *types.SessionConfig) (*gocql.ClusterConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("at least one contact point is required")
	}
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace

	consistency := cfg.Consistency
	if consistency == "" {
		consistency = constants.DefaultConsistency
	}
	c, err := gocql.ParseConsistencyWrapper(strings.ToUpper(consistency))
	if err != nil {
		return nil, fmt.Errorf("invalid consistency '%s': %w", cfg.Consistency, err)
	}
	cluster.Consistency = c

	cluster.Port = cfg.Port
	if cluster.Port == 0 {
		cluster.Port = constants.DefaultPort
	}
	cluster.ProtoVersion = cfg.ProtoVersion
	if cluster.ProtoVersion == 0 {
		cluster.ProtoVersion = constants.DefaultProtoVersion
	}
	cluster.NumConns = cfg.NumConns
	if cluster.NumConns == 0 {
		cluster.NumConns = constants.DefaultNumConns
	}
	cluster.Timeout = cfg.Timeout
	if cluster.Timeout == 0 {
		cluster.Timeout = constants.DefaultTimeout
	}
	cluster.ConnectTimeout = cfg.ConnectTimeout
	if cluster.ConnectTimeout == 0 {
		cluster.ConnectTimeout = constants.DefaultConnectTimeout
	}
	cluster.PageSize = cfg.PageSize
	if cluster.PageSize == 0 {
		cluster.PageSize = constants.DefaultPageSize
	}
	cluster.DisableInitialHostLookup = cfg.DisableInitHost

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.LocalDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(cfg.LocalDC))
	} else {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	}
	return cluster, nil
}
