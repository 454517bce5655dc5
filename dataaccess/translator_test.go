package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestError struct {
	code    int
	message string
}

func (f fakeRequestError) Code() int       { return f.code }
func (f fakeRequestError) Message() string { return f.message }
func (f fakeRequestError) Error() string   { return f.message }

func TestTranslateKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"read timeout", &gocql.RequestErrReadTimeout{DataPresent: 1}, KindReadTimeout},
		{"write timeout", &gocql.RequestErrWriteTimeout{WriteType: "SIMPLE"}, KindWriteTimeout},
		{"unavailable", &gocql.RequestErrUnavailable{Required: 3, Alive: 1}, KindInsufficientReplicas},
		{"already exists", &gocql.RequestErrAlreadyExists{Keyspace: "ks", Table: "t"}, KindSchemaElementExists},
		{"deadline", context.DeadlineExceeded, KindDriverTimeout},
		{"no response", gocql.ErrTimeoutNoResponse, KindDriverTimeout},
		{"no connections", gocql.ErrNoConnections, KindConnectionFailure},
		{"wrapped session closed", fmt.Errorf("query: %w", gocql.ErrSessionClosed), KindConnectionFailure},
		{"not found", gocql.ErrNotFound, KindEmptyResult},
		{"syntax", fakeRequestError{code: gocql.ErrCodeSyntax, message: "line 1:0 no viable alternative"}, KindQuerySyntax},
		{"invalid", fakeRequestError{code: gocql.ErrCodeInvalid, message: "unconfigured table"}, KindInvalidQuery},
		{"config", fakeRequestError{code: gocql.ErrCodeConfig}, KindInvalidConfiguration},
		{"credentials", fakeRequestError{code: gocql.ErrCodeCredentials}, KindAuthentication},
		{"unauthorized", fakeRequestError{code: gocql.ErrCodeUnauthorized}, KindUnauthorized},
		{"overloaded", fakeRequestError{code: gocql.ErrCodeOverloaded}, KindTransientResource},
		{"truncate", fakeRequestError{code: gocql.ErrCodeTruncate}, KindTruncate},
		{"write failure", fakeRequestError{code: gocql.ErrCodeWriteFailure}, KindResourceFailure},
		{"server", fakeRequestError{code: gocql.ErrCodeServer}, KindUncategorized},
		{"plain", errors.New("boom"), KindUncategorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate("task", "SELECT 1", tt.err)
			var translated *Error
			require.ErrorAs(t, err, &translated)
			assert.Equal(t, tt.expected, translated.Kind)
			assert.Equal(t, tt.expected, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTranslateDetails(t *testing.T) {
	err := Translate("", "", &gocql.RequestErrUnavailable{Required: 3, Alive: 1})
	var translated *Error
	require.ErrorAs(t, err, &translated)
	assert.Equal(t, 3, translated.Required)
	assert.Equal(t, 1, translated.Alive)
	assert.True(t, translated.Kind.IsTransient())

	err = Translate("", "", &gocql.RequestErrReadTimeout{DataPresent: 1})
	require.ErrorAs(t, err, &translated)
	assert.True(t, translated.WasDataPresent)

	err = Translate("", "", &gocql.RequestErrWriteTimeout{WriteType: "BATCH"})
	require.ErrorAs(t, err, &translated)
	assert.Equal(t, "BATCH", translated.WriteType)
}

func TestTranslateMessage(t *testing.T) {
	cause := fakeRequestError{code: gocql.ErrCodeInvalid, message: "unconfigured table people"}
	err := Translate("select by id", "SELECT * FROM people WHERE id = ?", cause)
	assert.EqualError(t, err, "select by id; CQL [SELECT * FROM people WHERE id = ?]; unconfigured table people")

	assert.EqualError(t, Translate("", "", cause), "unconfigured table people")
}

func TestTranslatePassThrough(t *testing.T) {
	assert.Nil(t, Translate("task", "cql", nil))

	first := Translate("task", "cql", gocql.ErrNoConnections)
	assert.Same(t, first, Translate("other", "other", first))
}

func TestErrorMatching(t *testing.T) {
	err := Translate("find", "SELECT", gocql.ErrNotFound)
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.ErrorIs(t, err, &Error{Kind: KindEmptyResult})
	assert.NotErrorIs(t, err, &Error{Kind: KindReadTimeout})
	assert.Equal(t, KindEmptyResult, KindOf(fmt.Errorf("wrapped: %w", ErrEmptyResult)))
	assert.Equal(t, "read timeout", KindReadTimeout.String())
	assert.False(t, KindQuerySyntax.IsTransient())
}
