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

package constants

import "time"

const (
	ReleaseVersion = "v0.3.0"
	ServiceName    = "scylla-mapping"
)

const (
	DefaultPort               = 9042
	DefaultNumConns           = 2
	DefaultProtoVersion       = 4
	DefaultConsistency        = "LOCAL_QUORUM"
	DefaultTimeout            = 11 * time.Second
	DefaultConnectTimeout     = 5 * time.Second
	DefaultPageSize           = 5000
	DefaultStatementCacheSize = 512
	DefaultTypeCacheSize      = 1024
	DefaultMetricsInterval    = 60 * time.Second
)

// AppliedColumn is the pseudo column returned by lightweight transactions.
const AppliedColumn = "[applied]"

// TTLMarker is the named bind marker for the time to live of inserted rows.
const TTLMarker = "ttl"
