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
	"sort"

	"github.com/giangbb/scylla-mapping/global/types"
)

func CreateTableMap(tables []*TableSchema) map[string]*TableSchema {
	var result = make(map[string]*TableSchema)
	for _, table := range tables {
		result[table.Name.Internal()] = table
	}
	return result
}

func createUserTypeMap(userTypes []*types.UserDefinedType) map[string]*types.UserDefinedType {
	var result = make(map[string]*types.UserDefinedType)
	for _, ut := range userTypes {
		result[ut.Name().Internal()] = ut
	}
	return result
}

// sortPrimaryKeys orders key columns partition keys first, each group by precedence.
func sortPrimaryKeys(keys []*types.Column) {
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].KeyType != keys[j].KeyType {
			return keys[i].KeyType == types.KeyTypePartition
		}
		return keys[i].PkPrecedence < keys[j].PkPrecedence
	})
}
