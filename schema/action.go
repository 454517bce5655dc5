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

package schema

import (
	"context"
	"fmt"
	"strings"
)

// SchemaAction is what to do with the schema of the mapped entities on startup.
type SchemaAction string

const (
	ActionNone              SchemaAction = "none"
	ActionCreate            SchemaAction = "create"
	ActionCreateIfNotExists SchemaAction = "create_if_not_exists"
	// ActionRecreate drops the mapped tables and user types before creating them.
	ActionRecreate SchemaAction = "recreate"
	// ActionRecreateDropUnused additionally drops tables and user types that are not mapped.
	ActionRecreateDropUnused SchemaAction = "recreate_drop_unused"
)

var schemaActions = []SchemaAction{ActionNone, ActionCreate, ActionCreateIfNotExists, ActionRecreate, ActionRecreateDropUnused}

func ParseSchemaAction(s string) (SchemaAction, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if normalized == "" {
		return ActionNone, nil
	}
	for _, a := range schemaActions {
		if string(a) == normalized {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown schema action '%s'", s)
}

// ApplySchemaAction runs action. The dropper is only needed for the recreate actions.
func ApplySchemaAction(ctx context.Context, action SchemaAction, creator *SchemaCreator, dropper *SchemaDropper) error {
	switch action {
	case ActionNone:
		return nil
	case ActionCreate:
		return createAll(ctx, creator, false)
	case ActionCreateIfNotExists:
		return createAll(ctx, creator, true)
	case ActionRecreate, ActionRecreateDropUnused:
		if dropper == nil {
			return fmt.Errorf("schema action %s needs a schema dropper", action)
		}
		dropUnused := action == ActionRecreateDropUnused
		if err := dropper.DropTables(ctx, dropUnused); err != nil {
			return err
		}
		if err := dropper.DropUserTypes(ctx, dropUnused); err != nil {
			return err
		}
		return createAll(ctx, creator, false)
	default:
		return fmt.Errorf("unknown schema action '%s'", action)
	}
}

func createAll(ctx context.Context, creator *SchemaCreator, ifNotExists bool) error {
	if err := creator.CreateUserTypes(ctx, ifNotExists); err != nil {
		return err
	}
	if err := creator.CreateTables(ctx, ifNotExists); err != nil {
		return err
	}
	return creator.CreateIndexes(ctx, ifNotExists)
}
