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
	"context"
	"errors"

	"github.com/gocql/gocql"
)

// Translate wraps a driver error into an *Error. Errors that already are an *Error, and nil,
// are returned unchanged. The message has the form "task; CQL [cql]; driver message" when a
// task or statement is known.
func Translate(task, cql string, err error) error {
	if err == nil {
		return nil
	}
	var translated *Error
	if errors.As(err, &translated) {
		return err
	}
	e := &Error{Kind: KindUncategorized, Task: task, CQL: cql, Message: buildMessage(task, cql, err), Err: err}

	var readTimeout *gocql.RequestErrReadTimeout
	var writeTimeout *gocql.RequestErrWriteTimeout
	var unavailable *gocql.RequestErrUnavailable
	var alreadyExists *gocql.RequestErrAlreadyExists
	var requestErr gocql.RequestError

	switch {
	case errors.As(err, &readTimeout):
		e.Kind = KindReadTimeout
		e.WasDataPresent = readTimeout.DataPresent != 0
	case errors.As(err, &writeTimeout):
		e.Kind = KindWriteTimeout
		e.WriteType = writeTimeout.WriteType
	case errors.As(err, &unavailable):
		e.Kind = KindInsufficientReplicas
		e.Required = unavailable.Required
		e.Alive = unavailable.Alive
	case errors.As(err, &alreadyExists):
		e.Kind = KindSchemaElementExists
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gocql.ErrTimeoutNoResponse),
		errors.Is(err, gocql.ErrTooManyTimeouts):
		e.Kind = KindDriverTimeout
	case errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, gocql.ErrConnectionClosed),
		errors.Is(err, gocql.ErrNoStreams),
		errors.Is(err, gocql.ErrSessionClosed),
		errors.Is(err, gocql.ErrNoHosts),
		errors.Is(err, gocql.ErrNoConnectionsStarted),
		errors.Is(err, gocql.ErrUnavailable):
		e.Kind = KindConnectionFailure
	case errors.Is(err, gocql.ErrNotFound):
		e.Kind = KindEmptyResult
	case errors.As(err, &requestErr):
		e.Kind = kindOfCode(requestErr.Code())
	}
	return e
}

func kindOfCode(code int) Kind {
	switch code {
	case gocql.ErrCodeCredentials:
		return KindAuthentication
	case gocql.ErrCodeUnauthorized:
		return KindUnauthorized
	case gocql.ErrCodeReadTimeout:
		return KindReadTimeout
	case gocql.ErrCodeWriteTimeout, gocql.ErrCodeCASWriteUnknown:
		return KindWriteTimeout
	case gocql.ErrCodeTruncate:
		return KindTruncate
	case gocql.ErrCodeUnavailable:
		return KindInsufficientReplicas
	case gocql.ErrCodeOverloaded, gocql.ErrCodeBootstrapping:
		return KindTransientResource
	case gocql.ErrCodeAlreadyExists:
		return KindSchemaElementExists
	case gocql.ErrCodeConfig:
		return KindInvalidConfiguration
	case gocql.ErrCodeInvalid:
		return KindInvalidQuery
	case gocql.ErrCodeSyntax:
		return KindQuerySyntax
	case gocql.ErrCodeReadFailure, gocql.ErrCodeWriteFailure, gocql.ErrCodeFunctionFailure, gocql.ErrCodeCDCWriteFailure:
		return KindResourceFailure
	default:
		return KindUncategorized
	}
}

func buildMessage(task, cql string, err error) string {
	if task != "" || cql != "" {
		return task + "; CQL [" + cql + "]; " + err.Error()
	}
	return err.Error()
}
