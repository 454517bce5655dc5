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
	"strconv"
	"strings"

	"github.com/giangbb/scylla-mapping/global/types"
)

// TagKey is the struct tag key read by the mapping.
const TagKey = "cql"

type entityTag struct {
	name       string
	forceQuote bool
}

type propertyTag struct {
	skip          bool
	name          string
	forceQuote    bool
	keyType       types.KeyType
	ordinal       int
	ordering      types.Ordering
	element       int
	hasElement    bool
	explicitType  string
	frozen        bool
	set           bool
	indexed       bool
	indexName     string
	indexFunction types.IndexFunction
}

// splitTag splits a tag on commas outside of <...>.
func splitTag(tag string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range tag {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(tag[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(tag[start:]))
	return parts
}

func splitOption(opt string) (key, value string, hasValue bool) {
	key, value, hasValue = strings.Cut(opt, "=")
	return strings.TrimSpace(key), strings.TrimSpace(value), hasValue
}

func parseEntityTag(tag string) (entityTag, error) {
	var result entityTag
	if tag == "" {
		return result, nil
	}
	for _, opt := range splitTag(tag) {
		if opt == "" {
			continue
		}
		key, value, _ := splitOption(opt)
		switch key {
		case "name":
			result.name = value
		case "forceQuote":
			result.forceQuote = true
		default:
			return result, fmt.Errorf("unknown entity tag option '%s'", key)
		}
	}
	return result, nil
}

func parsePropertyTag(tag string) (propertyTag, error) {
	result := propertyTag{keyType: types.KeyTypeRegular, ordering: types.Ascending}
	if tag == "-" {
		result.skip = true
		return result, nil
	}
	if tag == "" {
		return result, nil
	}
	for _, opt := range splitTag(tag) {
		if opt == "" {
			continue
		}
		key, value, hasValue := splitOption(opt)
		switch key {
		case "name":
			result.name = value
		case "forceQuote":
			result.forceQuote = true
		case "partitionKey":
			result.keyType = types.KeyTypePartition
		case "clusteringKey":
			result.keyType = types.KeyTypeClustering
		case "static":
			result.keyType = types.KeyTypeStatic
		case "ordinal":
			n, err := strconv.Atoi(value)
			if err != nil {
				return result, fmt.Errorf("invalid ordinal '%s': %w", value, err)
			}
			result.ordinal = n
		case "order":
			o, err := types.ParseOrdering(value)
			if err != nil {
				return result, err
			}
			result.ordering = o
		case "type":
			if value == "" {
				return result, fmt.Errorf("empty type option")
			}
			result.explicitType = value
		case "frozen":
			result.frozen = true
		case "set":
			result.set = true
		case "element":
			n, err := strconv.Atoi(value)
			if err != nil {
				return result, fmt.Errorf("invalid element ordinal '%s': %w", value, err)
			}
			result.element = n
			result.hasElement = true
		case "index":
			result.indexed = true
			if hasValue {
				result.indexName = value
			}
		case "indexFunction":
			f, err := types.ParseIndexFunction(value)
			if err != nil {
				return result, err
			}
			result.indexed = true
			result.indexFunction = f
		case "transient":
			result.skip = true
		default:
			return result, fmt.Errorf("unknown tag option '%s'", key)
		}
	}
	return result, nil
}
