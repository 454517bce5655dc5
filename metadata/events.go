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

import "github.com/giangbb/scylla-mapping/global/types"

type SchemaEventType string

const (
	SchemaObjectCreated SchemaEventType = "created"
	SchemaObjectDropped SchemaEventType = "dropped"
)

type SchemaObjectKind string

const (
	SchemaObjectTable    SchemaObjectKind = "table"
	SchemaObjectUserType SchemaObjectKind = "type"
	SchemaObjectIndex    SchemaObjectKind = "index"
)

// SchemaEvent is published after a schema statement was applied to the cluster.
type SchemaEvent struct {
	Type     SchemaEventType
	Kind     SchemaObjectKind
	Keyspace string
	Name     types.Identifier
	CQL      string
}
