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

package convert

import (
	"fmt"
	"reflect"
)

// UnresolvableTypeError is returned when no CQL type can be derived for a Go type.
type UnresolvableTypeError struct {
	Type reflect.Type
	// Property is empty when a bare type or value was resolved.
	Property string
}

func (e *UnresolvableTypeError) Error() string {
	subject := e.Type.String()
	if e.Property != "" {
		subject = fmt.Sprintf("%s of property %s", e.Type, e.Property)
	}
	return fmt.Sprintf("cannot resolve CQL type for %s; register a custom conversion or declare the type with the type tag option", subject)
}

// ConversionError is returned when a value cannot be converted between its stored and Go form.
type ConversionError struct {
	From reflect.Type
	To   reflect.Type
	Err  error
}

func (e *ConversionError) Error() string {
	from := "nil"
	if e.From != nil {
		from = e.From.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %s to %s: %v", from, e.To, e.Err)
	}
	return fmt.Sprintf("cannot convert %s to %s", from, e.To)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
