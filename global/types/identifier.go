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

package types

import (
	"regexp"
	"strings"
)

var unquotedIdentifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Identifier is a CQL name (keyspace, table, column, type or index). The internal form is the
// exact, case-sensitive name stored by Cassandra.
type Identifier struct {
	internal string
}

// IdentifierFromInternal creates an identifier from its exact stored form.
func IdentifierFromInternal(name string) Identifier {
	return Identifier{internal: name}
}

// IdentifierFromCql creates an identifier from the way it would be written in a CQL query:
// unquoted names are case-insensitive and fold to lower case, double-quoted names are kept
// exactly with "" unescaped to ".
func IdentifierFromCql(name string) Identifier {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return Identifier{internal: strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)}
	}
	return Identifier{internal: strings.ToLower(name)}
}

func (i Identifier) Internal() string {
	return i.internal
}

func (i Identifier) IsEmpty() bool {
	return i.internal == ""
}

// AsCql renders the identifier for a CQL statement. With pretty set, the identifier is only quoted
// when it has to be.
func (i Identifier) AsCql(pretty bool) string {
	if pretty && !NeedsQuotes(i.internal) {
		return i.internal
	}
	return `"` + strings.ReplaceAll(i.internal, `"`, `""`) + `"`
}

func (i Identifier) String() string {
	return i.AsCql(true)
}

// NeedsQuotes reports whether name must be double-quoted to survive a round trip through CQL.
func NeedsQuotes(name string) bool {
	return !unquotedIdentifier.MatchString(name) || IsReservedKeyword(name)
}
