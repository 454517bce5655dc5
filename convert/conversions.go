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
	"reflect"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

type conversion struct {
	source reflect.Type
	target reflect.Type
	fn     func(reflect.Value) (reflect.Value, error)
}

type conversionKey struct {
	source reflect.Type
	target reflect.Type
}

// CustomConversions holds user supplied conversions. Writing conversions turn a Go type into the
// type handed to the driver; reading conversions turn a driver value into a Go type.
type CustomConversions struct {
	mu      sync.RWMutex
	writing map[reflect.Type]conversion
	reading map[conversionKey]conversion
}

// NewCustomConversions returns conversions with the defaults registered: google/uuid values
// are stored as gocql UUIDs, and int64 nanoseconds of day read into time.Duration.
func NewCustomConversions() *CustomConversions {
	c := &CustomConversions{
		writing: make(map[reflect.Type]conversion),
		reading: make(map[conversionKey]conversion),
	}
	RegisterWriting(c, func(u uuid.UUID) (gocql.UUID, error) {
		return gocql.UUID(u), nil
	})
	RegisterReading(c, func(u gocql.UUID) (uuid.UUID, error) {
		return uuid.UUID(u), nil
	})
	RegisterReading(c, func(nanos int64) (time.Duration, error) {
		return time.Duration(nanos), nil
	})
	return c
}

func newConversion[S, T any](fn func(S) (T, error)) conversion {
	return conversion{
		source: reflect.TypeOf((*S)(nil)).Elem(),
		target: reflect.TypeOf((*T)(nil)).Elem(),
		fn: func(v reflect.Value) (reflect.Value, error) {
			out, err := fn(v.Interface().(S))
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&out).Elem(), nil
		},
	}
}

// RegisterWriting adds a conversion applied when values of type S are written. The CQL type of
// S properties is resolved from T. A later registration for S replaces the earlier one.
func RegisterWriting[S, T any](c *CustomConversions, fn func(S) (T, error)) {
	conv := newConversion(fn)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writing[conv.source] = conv
}

// RegisterReading adds a conversion applied when a driver value of type S is read into T.
func RegisterReading[S, T any](c *CustomConversions, fn func(S) (T, error)) {
	conv := newConversion(fn)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading[conversionKey{conv.source, conv.target}] = conv
}

// WriteTarget returns the store type of a writing conversion for t.
func (c *CustomConversions) WriteTarget(t reflect.Type) (reflect.Type, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.writing[t]
	return conv.target, ok
}

// HasReading reports whether a reading conversion from source to target exists.
func (c *CustomConversions) HasReading(source, target reflect.Type) bool {
	_, ok := c.readingConversion(source, target)
	return ok
}

func (c *CustomConversions) readingConversion(source, target reflect.Type) (conversion, bool) {
	if c == nil {
		return conversion{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.reading[conversionKey{source, target}]
	return conv, ok
}

// convertForWrite applies the writing conversion of v's type, if any.
func (c *CustomConversions) convertForWrite(v reflect.Value) (reflect.Value, bool, error) {
	if c == nil || !v.IsValid() {
		return v, false, nil
	}
	c.mu.RLock()
	conv, ok := c.writing[v.Type()]
	c.mu.RUnlock()
	if !ok {
		return v, false, nil
	}
	out, err := conv.fn(v)
	return out, true, err
}

// convertForRead applies the reading conversion from v's type into target, if any.
func (c *CustomConversions) convertForRead(v reflect.Value, target reflect.Type) (reflect.Value, bool, error) {
	if !v.IsValid() {
		return v, false, nil
	}
	conv, ok := c.readingConversion(v.Type(), target)
	if !ok {
		return v, false, nil
	}
	out, err := conv.fn(v)
	return out, true, err
}
