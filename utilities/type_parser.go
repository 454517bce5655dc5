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

package utilities

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/giangbb/scylla-mapping/global/types"
)

// UserTypeLookup resolves a user defined type referenced by name in a type string.
type UserTypeLookup func(name types.Identifier) (types.CqlDataType, error)

// ShallowUserTypes resolves every user type name to a reference without fields.
func ShallowUserTypes(keyspace string) UserTypeLookup {
	return func(name types.Identifier) (types.CqlDataType, error) {
		return types.NewUserDefinedTypeReference(keyspace, name), nil
	}
}

func ParseCqlTypeOrDie(typeStr string) types.CqlDataType {
	t, err := ParseCqlTypeString(typeStr, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseCqlTypeString converts a string representation of a Cassandra data type into a CqlDataType,
// validating it the way Cassandra does (e.g. "text", "map<text, frozen<list<int>>>",
// "tuple<int, address>"). Names that are not built in types are resolved as user types through
// userTypes. With a nil lookup they are rejected.
func ParseCqlTypeString(input string, userTypes UserTypeLookup) (types.CqlDataType, error) {
	p := &typeParser{input: input, userTypes: userTypes}
	p.tokenize()
	if p.err != nil {
		return nil, p.err
	}
	if len(p.tokens) == 0 {
		return nil, fmt.Errorf("empty type definition")
	}
	dt, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected '%s' after type in '%s'", p.tokens[p.pos].text, input)
	}
	return dt, nil
}

type tokenKind int

const (
	tokenName tokenKind = iota
	tokenQuotedName
	tokenOpen
	tokenClose
	tokenComma
)

type token struct {
	kind tokenKind
	text string
}

type typeParser struct {
	input     string
	tokens    []token
	pos       int
	err       error
	userTypes UserTypeLookup
}

func (p *typeParser) tokenize() {
	runes := []rune(p.input)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '<':
			p.tokens = append(p.tokens, token{kind: tokenOpen, text: "<"})
			i++
		case r == '>':
			p.tokens = append(p.tokens, token{kind: tokenClose, text: ">"})
			i++
		case r == ',':
			p.tokens = append(p.tokens, token{kind: tokenComma, text: ","})
			i++
		case r == '"':
			var sb strings.Builder
			sb.WriteRune('"')
			j := i + 1
			closed := false
			for j < len(runes) {
				if runes[j] == '"' {
					if j+1 < len(runes) && runes[j+1] == '"' {
						sb.WriteString(`""`)
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				sb.WriteRune(runes[j])
				j++
			}
			if !closed {
				p.err = fmt.Errorf("unterminated quoted name in '%s'", p.input)
				return
			}
			sb.WriteRune('"')
			p.tokens = append(p.tokens, token{kind: tokenQuotedName, text: sb.String()})
			i = j
		case r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for j < len(runes) && (runes[j] == '_' || runes[j] == '.' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			p.tokens = append(p.tokens, token{kind: tokenName, text: string(runes[i:j])})
			i = j
		default:
			p.err = fmt.Errorf("unexpected character '%c' in type '%s'", r, p.input)
			return
		}
	}
}

func (p *typeParser) next() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, true
}

func (p *typeParser) peek(kind tokenKind) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind
}

// parseArguments reads "<t1, t2, ...>" following a generic type name.
func (p *typeParser) parseArguments(name string, expected int) ([]types.CqlDataType, error) {
	if !p.peek(tokenOpen) {
		return nil, fmt.Errorf("data type definition missing in: '%s'", p.input)
	}
	p.pos++
	if p.peek(tokenClose) {
		return nil, fmt.Errorf("empty type definition in '%s'", p.input)
	}
	var args []types.CqlDataType
	for {
		dt, err := p.parseType()
		if err != nil {
			return nil, fmt.Errorf("failed to extract type for '%s': %w", name, err)
		}
		args = append(args, dt)
		t, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("missing closing type bracket in: '%s'", p.input)
		}
		if t.kind == tokenClose {
			break
		}
		if t.kind != tokenComma {
			return nil, fmt.Errorf("unexpected '%s' in: '%s'", t.text, p.input)
		}
	}
	if expected > 0 && len(args) != expected {
		return nil, fmt.Errorf("expected exactly %d types but found %d in: '%s'", expected, len(args), p.input)
	}
	return args, nil
}

func (p *typeParser) parseType() (types.CqlDataType, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of type '%s'", p.input)
	}
	if t.kind == tokenQuotedName {
		return p.userType(t.text)
	}
	if t.kind != tokenName {
		return nil, fmt.Errorf("unexpected '%s' in type '%s'", t.text, p.input)
	}
	name := strings.ToLower(t.text)
	switch name {
	case "frozen":
		args, err := p.parseArguments(name, 1)
		if err != nil {
			return nil, err
		}
		inner := args[0]
		if !inner.IsCollection() && inner.Code() != types.TUPLE && inner.Code() != types.UDT {
			return nil, fmt.Errorf("frozen types must be a collection, tuple or user type: '%s'", p.input)
		}
		return types.NewFrozenType(inner), nil
	case "list":
		args, err := p.parseArguments(name, 1)
		if err != nil {
			return nil, err
		}
		if args[0].IsCollection() {
			return nil, fmt.Errorf("lists cannot contain collections unless they are frozen")
		}
		return types.NewListType(args[0]), nil
	case "set":
		args, err := p.parseArguments(name, 1)
		if err != nil {
			return nil, err
		}
		if args[0].IsCollection() {
			return nil, fmt.Errorf("sets cannot contain collections unless they are frozen")
		}
		return types.NewSetType(args[0]), nil
	case "map":
		args, err := p.parseArguments(name, 2)
		if err != nil {
			return nil, err
		}
		if args[0].IsCollection() {
			return nil, fmt.Errorf("map key types must be scalar")
		}
		if args[1].IsCollection() {
			return nil, fmt.Errorf("map values cannot be collections unless they are frozen")
		}
		return types.NewMapType(args[0], args[1]), nil
	case "tuple":
		args, err := p.parseArguments(name, 0)
		if err != nil {
			return nil, err
		}
		return types.NewTupleType(args...), nil
	}
	if scalar, ok := types.ScalarTypeByName(name); ok {
		if p.peek(tokenOpen) {
			return nil, fmt.Errorf("unexpected data type definition: '%s'", p.input)
		}
		return scalar, nil
	}
	return p.userType(t.text)
}

func (p *typeParser) userType(name string) (types.CqlDataType, error) {
	if p.peek(tokenOpen) {
		return nil, fmt.Errorf("unexpected data type definition: '%s'", p.input)
	}
	if p.userTypes == nil {
		return nil, fmt.Errorf("unknown data type name: '%s' in type '%s'", name, p.input)
	}
	// drop a keyspace qualifier, user types are always resolved in their own keyspace
	if !strings.HasPrefix(name, `"`) {
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
	}
	return p.userTypes(types.IdentifierFromCql(name))
}
