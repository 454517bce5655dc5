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
	"github.com/giangbb/scylla-mapping/global/types"
)

// UserTypeDependencyGraph maps each existing user type to the user types whose fields use it.
type UserTypeDependencyGraph struct {
	dependants map[types.Identifier][]types.Identifier
}

func NewUserTypeDependencyGraph(userTypes []*types.UserDefinedType) *UserTypeDependencyGraph {
	g := &UserTypeDependencyGraph{dependants: make(map[types.Identifier][]types.Identifier)}
	for _, ut := range userTypes {
		g.AddUserType(ut)
	}
	return g
}

func (g *UserTypeDependencyGraph) AddUserType(ut *types.UserDefinedType) {
	for _, fieldType := range ut.FieldTypes() {
		for _, used := range types.ReferencedUserTypes(fieldType) {
			g.addDependant(used, ut.Name())
		}
	}
}

func (g *UserTypeDependencyGraph) addDependant(used, by types.Identifier) {
	for _, existing := range g.dependants[used] {
		if existing == by {
			return
		}
	}
	g.dependants[used] = append(g.dependants[used], by)
}

// Dependants returns the user types directly referring to name.
func (g *UserTypeDependencyGraph) Dependants(name types.Identifier) []types.Identifier {
	return g.dependants[name]
}

// DropOrder lists every type reachable from name through its dependants, dependants before the
// types they use. Types already in seen are skipped and the visited ones are added to it, so a
// single seen set can be shared across calls.
func (g *UserTypeDependencyGraph) DropOrder(name types.Identifier, seen map[types.Identifier]bool) []types.Identifier {
	if seen[name] {
		return nil
	}
	seen[name] = true
	var toDrop []types.Identifier
	for _, dependant := range g.dependants[name] {
		toDrop = append(toDrop, g.DropOrder(dependant, seen)...)
	}
	return append(toDrop, name)
}

// DropOrderOf computes the drop order of all given types with a shared seen set.
func (g *UserTypeDependencyGraph) DropOrderOf(names []types.Identifier) []types.Identifier {
	seen := make(map[types.Identifier]bool)
	var toDrop []types.Identifier
	for _, name := range names {
		toDrop = append(toDrop, g.DropOrder(name, seen)...)
	}
	return toDrop
}
