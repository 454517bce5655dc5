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

package mapping

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Verifier checks an entity before it is added to a MappingContext.
type Verifier interface {
	Verify(entity *PersistentEntity) error
}

// VerifierFunc adapts a function to a Verifier.
type VerifierFunc func(entity *PersistentEntity) error

func (f VerifierFunc) Verify(entity *PersistentEntity) error {
	return f(entity)
}

// BasicVerifier checks key declarations. Tables need a partition key, user types and tuples
// may not declare keys, static columns or indexes.
type BasicVerifier struct{}

func (BasicVerifier) Verify(entity *PersistentEntity) error {
	var errs []error
	if entity.IsTable() {
		if len(entity.PrimaryKeyProperties()) == 0 {
			// no point in reporting the partition key as well
			return newMappingError(entity.Type(), errors.New("tables must have a primary key"))
		}
		if len(entity.PartitionKeyProperties()) == 0 {
			errs = append(errs, errors.New("tables must have a partition key"))
		}
		errs = append(errs, checkOrdinals("partition key", entity.PartitionKeyProperties()))
		errs = append(errs, checkOrdinals("clustering key", entity.ClusteringKeyProperties()))
		return newMappingError(entity.Type(), errs...)
	}

	for _, p := range entity.Properties() {
		if p.IsPrimaryKey() {
			errs = append(errs, fmt.Errorf("%s cannot declare key column %s", entity.Kind(), p.Name()))
		}
		if p.IsStatic() {
			errs = append(errs, fmt.Errorf("%s cannot declare static column %s", entity.Kind(), p.Name()))
		}
		if p.IsIndexed() {
			errs = append(errs, fmt.Errorf("%s cannot declare index on %s", entity.Kind(), p.Name()))
		}
	}
	if entity.IsUserDefinedType() && len(entity.Properties()) == 0 {
		errs = append(errs, errors.New("user types must have at least one field"))
	}
	return newMappingError(entity.Type(), errs...)
}

func checkOrdinals(what string, props []*PersistentProperty) error {
	seen := make(map[int]string)
	for _, p := range props {
		if other, dup := seen[p.Ordinal()]; dup {
			return fmt.Errorf("%s columns %s and %s share ordinal %d", what, other, p.Name(), p.Ordinal())
		}
		seen[p.Ordinal()] = p.Name()
	}
	return nil
}

// TupleVerifier checks that every tuple field has an element ordinal and that ordinals are
// unique and contiguous from 0.
type TupleVerifier struct{}

func (TupleVerifier) Verify(entity *PersistentEntity) error {
	if !entity.IsTuple() {
		return nil
	}
	ordinals := make(map[int]bool)
	for _, p := range entity.Properties() {
		element, ok := p.Element()
		if !ok {
			return newMappingError(entity.Type(), fmt.Errorf("tuple field %s has no element ordinal", p.Name()))
		}
		if ordinals[element] {
			return newMappingError(entity.Type(), fmt.Errorf("duplicate ordinal [%d]", element))
		}
		ordinals[element] = true
	}
	if len(ordinals) == 0 {
		return newMappingError(entity.Type(), errors.New("mapped tuple contains no elements"))
	}
	var missing []int
	for i := 0; i < len(ordinals); i++ {
		if !ordinals[i] {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		parts := make([]string, len(missing))
		for i, m := range missing {
			parts[i] = strconv.Itoa(m)
		}
		return newMappingError(entity.Type(), fmt.Errorf("mapped tuple has no ordinal mapping for ordinal(s): %s", strings.Join(parts, ", ")))
	}
	return nil
}

// CompositeVerifier runs all verifiers and joins their errors.
type CompositeVerifier []Verifier

func (c CompositeVerifier) Verify(entity *PersistentEntity) error {
	var errs []error
	for _, v := range c {
		if err := v.Verify(entity); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultVerifier is used by a MappingContext unless configured otherwise.
var DefaultVerifier Verifier = CompositeVerifier{BasicVerifier{}, TupleVerifier{}}
