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
	"fmt"
	"strings"
	"unicode"
)

// NamingStrategy derives table, type and column names from Go type and field names. The result
// is the exact name stored by Cassandra.
type NamingStrategy interface {
	TableName(typeName string) string
	UserTypeName(typeName string) string
	ColumnName(fieldName string) string
}

type conventionStrategy func(string) string

func (c conventionStrategy) TableName(typeName string) string    { return c(typeName) }
func (c conventionStrategy) UserTypeName(typeName string) string { return c(typeName) }
func (c conventionStrategy) ColumnName(fieldName string) string  { return c(fieldName) }

var (
	// SnakeCase turns FirstName into first_name. This is the default.
	SnakeCase NamingStrategy = conventionStrategy(toSnakeCase)
	// LowerCamelCase turns FirstName into firstName.
	LowerCamelCase NamingStrategy = conventionStrategy(toLowerCamel)
	// UpperCamelCase keeps FirstName.
	UpperCamelCase NamingStrategy = conventionStrategy(toUpperCamel)
	// UpperSnakeCase turns FirstName into FIRST_NAME.
	UpperSnakeCase NamingStrategy = conventionStrategy(func(s string) string { return strings.ToUpper(toSnakeCase(s)) })
	// UpperCase turns FirstName into FIRSTNAME.
	UpperCase NamingStrategy = conventionStrategy(strings.ToUpper)
	// CaseInsensitive turns FirstName into firstname, the way unquoted CQL identifiers behave.
	CaseInsensitive NamingStrategy = conventionStrategy(strings.ToLower)
	// ExactCase keeps the Go name as is.
	ExactCase NamingStrategy = conventionStrategy(func(s string) string { return s })
)

// NamingStrategyByName looks up a built in strategy by its configuration name.
func NamingStrategyByName(name string) (NamingStrategy, error) {
	switch strings.ToLower(name) {
	case "", "snake_case":
		return SnakeCase, nil
	case "lower_camel":
		return LowerCamelCase, nil
	case "upper_camel":
		return UpperCamelCase, nil
	case "upper_snake":
		return UpperSnakeCase, nil
	case "upper":
		return UpperCase, nil
	case "lower", "case_insensitive":
		return CaseInsensitive, nil
	case "exact":
		return ExactCase, nil
	default:
		return nil, fmt.Errorf("unknown naming strategy '%s'", name)
	}
}

// Transform applies fn to every name produced by s.
func Transform(s NamingStrategy, fn func(string) string) NamingStrategy {
	return &transformedStrategy{delegate: s, fn: fn}
}

type transformedStrategy struct {
	delegate NamingStrategy
	fn       func(string) string
}

func (t *transformedStrategy) TableName(typeName string) string {
	return t.fn(t.delegate.TableName(typeName))
}

func (t *transformedStrategy) UserTypeName(typeName string) string {
	return t.fn(t.delegate.UserTypeName(typeName))
}

func (t *transformedStrategy) ColumnName(fieldName string) string {
	return t.fn(t.delegate.ColumnName(fieldName))
}

// words splits a Go identifier into words, keeping initialisms together: UserID -> [User ID],
// HTTPServer -> [HTTP Server].
func words(s string) []string {
	runes := []rune(s)
	var result []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		switch {
		case cur == '_':
			if start < i {
				result = append(result, string(runes[start:i]))
			}
			start = i + 1
		case unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			if start < i {
				result = append(result, string(runes[start:i]))
			}
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			if start < i {
				result = append(result, string(runes[start:i]))
			}
			start = i
		}
	}
	if start < len(runes) {
		result = append(result, string(runes[start:]))
	}
	return result
}

func toSnakeCase(s string) string {
	w := words(s)
	for i := range w {
		w[i] = strings.ToLower(w[i])
	}
	return strings.Join(w, "_")
}

func toLowerCamel(s string) string {
	w := words(s)
	if len(w) == 0 {
		return s
	}
	w[0] = strings.ToLower(w[0])
	return strings.Join(w, "")
}

func toUpperCamel(s string) string {
	w := words(s)
	for i := range w {
		r := []rune(w[i])
		r[0] = unicode.ToUpper(r[0])
		w[i] = string(r)
	}
	return strings.Join(w, "")
}
