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

import "strings"

// from https://cassandra.apache.org/doc/4.0/cassandra/cql/appendices.html#appendix-A
// a value of "true" means the keyword is truly reserved, while a value of "false" means the keyword is non-reserved/available in certain situations.
var reservedKeywords = map[string]bool{
	"ADD":          true,
	"AGGREGATE":    true,
	"ALL":          false,
	"ALLOW":        true,
	"ALTER":        true,
	"AND":          true,
	"ANY":          true,
	"APPLY":        true,
	"AS":           false,
	"ASC":          true,
	"ASCII":        false,
	"AUTHORIZE":    true,
	"BATCH":        true,
	"BEGIN":        true,
	"BIGINT":       false,
	"BLOB":         false,
	"BOOLEAN":      false,
	"BY":           true,
	"CLUSTERING":   false,
	"COLUMNFAMILY": true,
	"COMPACT":      false,
	"CONSISTENCY":  false,
	"COUNT":        false,
	"COUNTER":      false,
	"CREATE":       true,
	"CUSTOM":       false,
	"DECIMAL":      false,
	"DELETE":       true,
	"DESC":         true,
	"DISTINCT":     false,
	"DOUBLE":       false,
	"DROP":         true,
	"EACH_QUORUM":  true,
	"ENTRIES":      true,
	"EXISTS":       false,
	"FILTERING":    false,
	"FLOAT":        false,
	"FROM":         true,
	"FROZEN":       false,
	"FULL":         true,
	"GRANT":        true,
	"IF":           true,
	"IN":           true,
	"INDEX":        true,
	"INET":         true,
	"INFINITY":     true,
	"INSERT":       true,
	"INT":          false,
	"INTO":         true,
	"KEY":          false,
	"KEYSPACE":     true,
	"KEYSPACES":    true,
	"LEVEL":        false,
	"LIMIT":        true,
	"LIST":         false,
	"LOCAL_ONE":    true,
	"LOCAL_QUORUM": true,
	"MAP":          false,
	"MATERIALIZED": true,
	"MODIFY":       true,
	"NAN":          true,
	"NORECURSIVE":  true,
	"NOSUPERUSER":  false,
	"NOT":          true,
	"OF":           true,
	"ON":           true,
	"ONE":          true,
	"ORDER":        true,
	"PARTITION":    true,
	"PASSWORD":     true,
	"PER":          true,
	"PERMISSION":   false,
	"PERMISSIONS":  false,
	"PRIMARY":      true,
	"QUORUM":       true,
	"RENAME":       true,
	"REVOKE":       true,
	"SCHEMA":       true,
	"SELECT":       true,
	"SET":          true,
	"STATIC":       false,
	"STORAGE":      false,
	"SUPERUSER":    false,
	"TABLE":        true,
	"TEXT":         false,
	"TIME":         true,
	"TIMESTAMP":    false,
	"TIMEUUID":     false,
	"THREE":        true,
	"TO":           true,
	"TOKEN":        true,
	"TRUNCATE":     true,
	"TTL":          false,
	"TUPLE":        false,
	"TWO":          true,
	"TYPE":         false,
	"UNLOGGED":     true,
	"UPDATE":       true,
	"USE":          true,
	"USER":         false,
	"USERS":        false,
	"USING":        true,
	"UUID":         false,
	"VALUES":       false,
	"VARCHAR":      false,
	"VARINT":       false,
	"VIEW":         true,
	"WHERE":        true,
	"WITH":         true,
	"WRITETIME":    false,
	"BITSTRING":    false,
	"BYTE":         false,
	"COMPLEX":      false,
	"ENUM":         false,
	"INTERVAL":     false,
	"MACADDR":      false,
}

// IsReservedKeyword reports whether s is a truly reserved CQL keyword, ignoring case.
// Non-reserved keywords are valid unquoted identifiers.
func IsReservedKeyword(s string) bool {
	return reservedKeywords[strings.ToUpper(s)]
}
