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
	"reflect"
)

// ErrNotAnEntity is returned when a type without a marker is used as an entity.
var ErrNotAnEntity = errors.New("type is not a mapped entity")

// MappingError reports invalid mapping metadata of a struct.
type MappingError struct {
	Type reflect.Type
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("invalid mapping of %s: %v", e.Type, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func newMappingError(t reflect.Type, errs ...error) error {
	err := errors.Join(errs...)
	if err == nil {
		return nil
	}
	return &MappingError{Type: t, Err: err}
}
