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
	"fmt"
	"slices"
	"strings"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/metadata"
)

// UserTypeSet collects user types to create and orders them so every type comes after the
// types its fields use. Types referenced but not part of the set are expected to exist.
type UserTypeSet struct {
	specs  []*metadata.UserTypeSpecification
	byName map[string]*metadata.UserTypeSpecification
}

func NewUserTypeSet(specs ...*metadata.UserTypeSpecification) *UserTypeSet {
	s := &UserTypeSet{byName: make(map[string]*metadata.UserTypeSpecification)}
	for _, spec := range specs {
		s.Add(spec)
	}
	return s
}

// Add returns false when a type of the same name is already part of the set.
func (s *UserTypeSet) Add(spec *metadata.UserTypeSpecification) bool {
	name := spec.Name.Name.Internal()
	if _, ok := s.byName[name]; ok {
		return false
	}
	s.byName[name] = spec
	s.specs = append(s.specs, spec)
	return true
}

func (s *UserTypeSet) Len() int {
	return len(s.specs)
}

// Dependencies returns the user types of the set the fields of spec refer to.
func (s *UserTypeSet) Dependencies(spec *metadata.UserTypeSpecification) []types.Identifier {
	var result []types.Identifier
	seen := make(map[string]bool)
	for _, field := range spec.Fields {
		for _, name := range types.ReferencedUserTypes(field.Type) {
			if _, ok := s.byName[name.Internal()]; !ok || seen[name.Internal()] {
				continue
			}
			seen[name.Internal()] = true
			result = append(result, name)
		}
	}
	return result
}

// CreationOrder sorts the set topologically, keeping the insertion order among independent
// types. A dependency cycle is an error since no creation order exists.
func (s *UserTypeSet) CreationOrder() ([]*metadata.UserTypeSpecification, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.specs))
	ordered := make([]*metadata.UserTypeSpecification, 0, len(s.specs))
	var path []string

	var visit func(spec *metadata.UserTypeSpecification) error
	visit = func(spec *metadata.UserTypeSpecification) error {
		name := spec.Name.Name.Internal()
		switch state[name] {
		case done:
			return nil
		case visiting:
			cycle := append(slices.Clone(path[slices.Index(path, name):]), name)
			return fmt.Errorf("cyclic user type dependency: %s", strings.Join(cycle, " -> "))
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range s.Dependencies(spec) {
			if err := visit(s.byName[dep.Internal()]); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		ordered = append(ordered, spec)
		return nil
	}

	for _, spec := range s.specs {
		if err := visit(spec); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
