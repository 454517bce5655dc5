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

package dataaccess

import (
	"errors"
	"fmt"
)

// Kind classifies a data access failure independent of the driver error behind it.
type Kind int

const (
	KindUncategorized Kind = iota
	KindAuthentication
	KindUnauthorized
	KindDriverTimeout
	KindReadTimeout
	KindWriteTimeout
	KindTruncate
	KindInsufficientReplicas
	KindTransientResource
	KindSchemaElementExists
	KindInvalidConfiguration
	KindInvalidQuery
	KindQuerySyntax
	KindConnectionFailure
	KindResourceFailure
	KindEmptyResult
)

var kindNames = map[Kind]string{
	KindUncategorized:        "uncategorized",
	KindAuthentication:       "authentication",
	KindUnauthorized:         "unauthorized",
	KindDriverTimeout:        "driver timeout",
	KindReadTimeout:          "read timeout",
	KindWriteTimeout:         "write timeout",
	KindTruncate:             "truncate",
	KindInsufficientReplicas: "insufficient replicas",
	KindTransientResource:    "transient resource",
	KindSchemaElementExists:  "schema element exists",
	KindInvalidConfiguration: "invalid configuration",
	KindInvalidQuery:         "invalid query",
	KindQuerySyntax:          "query syntax",
	KindConnectionFailure:    "connection failure",
	KindResourceFailure:      "resource failure",
	KindEmptyResult:          "empty result",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsTransient reports whether retrying the same operation may succeed.
func (k Kind) IsTransient() bool {
	switch k {
	case KindDriverTimeout, KindReadTimeout, KindWriteTimeout, KindInsufficientReplicas, KindTransientResource, KindConnectionFailure:
		return true
	}
	return false
}

// ErrEmptyResult is returned by reads that expected a row but found none.
var ErrEmptyResult = errors.New("empty result")

// Error is a translated driver error.
type Error struct {
	Kind    Kind
	Task    string
	CQL     string
	Message string
	Err     error

	// WasDataPresent is set for read timeouts.
	WasDataPresent bool
	// WriteType is set for write timeouts.
	WriteType string
	// Required and Alive are set for unavailable replicas.
	Required int
	Alive    int
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target *Error by kind, so errors.Is(err, &Error{Kind: KindReadTimeout}) works.
func (e *Error) Is(target error) bool {
	if target == ErrEmptyResult {
		return e.Kind == KindEmptyResult
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil && t.Message == ""
}

// KindOf returns the kind of a translated error, and KindUncategorized for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrEmptyResult) {
		return KindEmptyResult
	}
	return KindUncategorized
}
