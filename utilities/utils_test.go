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
	"errors"
	"testing"

	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCollectionDataType(t *testing.T) {
	testCases := []struct {
		input datatype.DataType
		want  bool
	}{
		{datatype.Varchar, false},
		{datatype.Blob, false},
		{datatype.Bigint, false},
		{datatype.Boolean, false},
		{datatype.Date, false},
		{datatype.NewMapType(datatype.Varchar, datatype.Boolean), true},
		{datatype.NewListType(datatype.Int), true},
		{datatype.NewSetType(datatype.Varchar), true},
	}

	for _, tt := range testCases {
		t.Run(tt.input.String(), func(t *testing.T) {
			got := IsCollection(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCqlTypeString(t *testing.T) {
	const NO_ERROR_EXPECTED = ""
	testCases := []struct {
		input    string
		wantType types.CqlDataType
		wantErr  string
	}{
		{"text", types.TypeText, NO_ERROR_EXPECTED},
		{"blob", types.TypeBlob, NO_ERROR_EXPECTED},
		{"TimeSTAmp", types.TypeTimestamp, NO_ERROR_EXPECTED},
		{"duration", types.TypeDuration, NO_ERROR_EXPECTED},
		{"map<text, boolean>", types.NewMapType(types.TypeText, types.TypeBoolean), NO_ERROR_EXPECTED},
		{"maP<vARCHar, varcHAr>", types.NewMapType(types.TypeVarchar, types.TypeVarchar), NO_ERROR_EXPECTED},
		{"map<varchar>", nil, "expected exactly 2 types but found 1 in: 'map<varchar>'"},
		{"map<varchar,varchar,varchar>", nil, "expected exactly 2 types but found 3 in: 'map<varchar,varchar,varchar>'"},
		{"map<>", nil, "empty type definition in 'map<>'"},
		{"int<>", nil, "unexpected data type definition: 'int<>'"},
		{"list<text>", types.NewListType(types.TypeText), NO_ERROR_EXPECTED},
		{"frozen<list<text>>", types.NewFrozenType(types.NewListType(types.TypeText)), NO_ERROR_EXPECTED},
		{"set<text", nil, "missing closing type bracket in: 'set<text'"},
		{"set", nil, "data type definition missing in: 'set'"},
		{"frozen", nil, "data type definition missing in: 'frozen'"},
		{"set<", nil, "failed"},
		{"frozen<int>", nil, "frozen types must be a collection, tuple or user type"},
		{"list<list<int>>", nil, "lists cannot contain collections unless they are frozen"},
		{"set<map<int, int>>", nil, "sets cannot contain collections unless they are frozen"},
		{"map<int, set<int>>", nil, "map values cannot be collections unless they are frozen"},
		{"unknown", nil, "unknown data type name: 'unknown'"},
		{"", nil, "empty type definition"},
		{"<>list", nil, "unexpected '<'"},
		{"text text", nil, "unexpected 'text' after type"},
		{"map<map<text,int>,text>", nil, "map key types must be scalar"},
		{"map<text, frozen<map<text,int>>>", types.NewMapType(types.TypeText, types.NewFrozenType(types.NewMapType(types.TypeText, types.TypeInt))), NO_ERROR_EXPECTED},
		{"map<timestamp, sdfs>", nil, "failed"},
		{"set<frozen<list<varchar>>>", types.NewSetType(types.NewFrozenType(types.NewListType(types.TypeVarchar))), NO_ERROR_EXPECTED},
		{"tuple<int, text, frozen<list<int>>>", types.NewTupleType(types.TypeInt, types.TypeText, types.NewFrozenType(types.NewListType(types.TypeInt))), NO_ERROR_EXPECTED},
		{"frozen<tuple<int, int>>", types.NewFrozenType(types.NewTupleType(types.TypeInt, types.TypeInt)), NO_ERROR_EXPECTED},
		{"tuple<>", nil, "empty type definition in 'tuple<>'"},
		{"list<'int'>", nil, "unexpected character"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseCqlTypeString(tc.input, nil)
			if tc.wantErr != "" {
				assert.Nil(t, got)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantType, got)
		})
	}
}

func TestParseCqlTypeStringWithUserTypes(t *testing.T) {
	address := types.NewUserDefinedTypeReference("ks", types.IdentifierFromCql("address"))
	quoted := types.NewUserDefinedTypeReference("ks", types.IdentifierFromInternal("Phone Number"))
	testCases := []struct {
		input    string
		wantType types.CqlDataType
	}{
		{"address", address},
		{"ADDRESS", address},
		{"ks.address", address},
		{"frozen<address>", types.NewFrozenType(address)},
		{"list<frozen<address>>", types.NewListType(types.NewFrozenType(address))},
		{`map<text, frozen<"Phone Number">>`, types.NewMapType(types.TypeText, types.NewFrozenType(quoted))},
		{"tuple<address, int>", types.NewTupleType(address, types.TypeInt)},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseCqlTypeString(tc.input, ShallowUserTypes("ks"))
			require.NoError(t, err)
			assert.Equal(t, tc.wantType, got)
		})
	}

	_, err := ParseCqlTypeString("address<int>", ShallowUserTypes("ks"))
	assert.Error(t, err)
	_, err = ParseCqlTypeString(`frozen<"address>`, ShallowUserTypes("ks"))
	assert.ErrorContains(t, err, "unterminated quoted name")

	lookupErr := errors.New("no such type")
	_, err = ParseCqlTypeString("list<frozen<missing>>", func(types.Identifier) (types.CqlDataType, error) {
		return nil, lookupErr
	})
	assert.ErrorIs(t, err, lookupErr)
}

func TestParseCqlTypeOrDie(t *testing.T) {
	assert.Equal(t, types.NewListType(types.TypeInt), ParseCqlTypeOrDie("list<int>"))
	assert.Panics(t, func() { ParseCqlTypeOrDie("list<") })
}

func TestFromDataCode(t *testing.T) {
	tests := []struct {
		input    datatype.DataType
		expected types.CqlDataType
	}{
		{datatype.Ascii, types.TypeAscii},
		{datatype.Bigint, types.TypeBigint},
		{datatype.Blob, types.TypeBlob},
		{datatype.Boolean, types.TypeBoolean},
		{datatype.Counter, types.TypeCounter},
		{datatype.Decimal, types.TypeDecimal},
		{datatype.Double, types.TypeDouble},
		{datatype.Float, types.TypeFloat},
		{datatype.Int, types.TypeInt},
		{datatype.Timestamp, types.TypeTimestamp},
		{datatype.Uuid, types.TypeUuid},
		{datatype.Varchar, types.TypeVarchar},
		{datatype.Varint, types.TypeVarint},
		{datatype.Timeuuid, types.TypeTimeuuid},
		{datatype.Inet, types.TypeInet},
		{datatype.Date, types.TypeDate},
		{datatype.Time, types.TypeTime},
		{datatype.Smallint, types.TypeSmallint},
		{datatype.Tinyint, types.TypeTinyint},
		{datatype.Duration, types.TypeDuration},
		{datatype.NewListType(datatype.Int), types.NewListType(types.TypeInt)},
		{datatype.NewSetType(datatype.Varchar), types.NewSetType(types.TypeVarchar)},
		{datatype.NewMapType(datatype.Uuid, datatype.Boolean), types.NewMapType(types.TypeUuid, types.TypeBoolean)},
		{
			datatype.NewListType(datatype.NewMapType(datatype.Int, datatype.Varchar)),
			types.NewListType(types.NewMapType(types.TypeInt, types.TypeVarchar)),
		},
		{datatype.NewTupleType(datatype.Int, datatype.Varchar), types.NewTupleType(types.TypeInt, types.TypeVarchar)},
	}
	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			got, err := FromDataCode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	unhandled := datatype.NewCustomType("foobar")
	for _, input := range []datatype.DataType{
		unhandled,
		datatype.NewListType(unhandled),
		datatype.NewMapType(datatype.Varchar, unhandled),
		datatype.NewMapType(unhandled, datatype.Varchar),
	} {
		_, err := FromDataCode(input)
		assert.ErrorContains(t, err, "unhandled type: custom(foobar)", input.String())
	}
}

func TestFromTypeInfo(t *testing.T) {
	udt := gocql.UDTTypeInfo{
		NativeType: gocql.NewNativeType(4, gocql.TypeUDT, ""),
		KeySpace:   "ks",
		Name:       "address",
		Elements: []gocql.UDTField{
			{Name: "street", Type: gocql.NewNativeType(4, gocql.TypeVarchar, "")},
			{Name: "zip", Type: gocql.NewNativeType(4, gocql.TypeInt, "")},
		},
	}
	wantUdt, err := types.NewUserDefinedType("ks", types.IdentifierFromInternal("address"),
		[]types.Identifier{types.IdentifierFromInternal("street"), types.IdentifierFromInternal("zip")},
		[]types.CqlDataType{types.TypeVarchar, types.TypeInt})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		input    gocql.TypeInfo
		expected types.CqlDataType
	}{
		{"int", gocql.NewNativeType(4, gocql.TypeInt, ""), types.TypeInt},
		{"timeuuid", gocql.NewNativeType(4, gocql.TypeTimeUUID, ""), types.TypeTimeuuid},
		{"duration", gocql.NewNativeType(4, gocql.TypeDuration, ""), types.TypeDuration},
		{
			"list",
			gocql.CollectionType{NativeType: gocql.NewNativeType(4, gocql.TypeList, ""), Elem: gocql.NewNativeType(4, gocql.TypeBigInt, "")},
			types.NewListType(types.TypeBigint),
		},
		{
			"set",
			gocql.CollectionType{NativeType: gocql.NewNativeType(4, gocql.TypeSet, ""), Elem: gocql.NewNativeType(4, gocql.TypeText, "")},
			types.NewSetType(types.TypeText),
		},
		{
			"map",
			gocql.CollectionType{
				NativeType: gocql.NewNativeType(4, gocql.TypeMap, ""),
				Key:        gocql.NewNativeType(4, gocql.TypeText, ""),
				Elem:       gocql.NewNativeType(4, gocql.TypeBoolean, ""),
			},
			types.NewMapType(types.TypeText, types.TypeBoolean),
		},
		{
			"tuple",
			gocql.TupleTypeInfo{
				NativeType: gocql.NewNativeType(4, gocql.TypeTuple, ""),
				Elems:      []gocql.TypeInfo{gocql.NewNativeType(4, gocql.TypeInt, ""), gocql.NewNativeType(4, gocql.TypeText, "")},
			},
			types.NewTupleType(types.TypeInt, types.TypeText),
		},
		{"udt", udt, wantUdt},
		{
			"user type by name",
			gocql.NewNativeType(4, gocql.TypeCustom, "frozen<address>"),
			types.NewFrozenType(types.NewUserDefinedTypeReference("ks", types.IdentifierFromCql("address"))),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromTypeInfo("ks", tc.input)
			require.NoError(t, err)
			assert.True(t, types.CqlTypesEqual(tc.expected, got), "expected %s but got %s", tc.expected, got)
		})
	}

	_, err = FromTypeInfo("ks", gocql.NewNativeType(4, gocql.TypeCustom, ""))
	assert.Error(t, err)
}

func TestSupportsPrimaryKey(t *testing.T) {
	assert.True(t, SupportsPrimaryKey(types.TypeText))
	assert.True(t, SupportsPrimaryKey(types.NewFrozenType(types.NewListType(types.TypeInt))))
	assert.False(t, SupportsPrimaryKey(types.NewListType(types.TypeInt)))
	assert.False(t, SupportsPrimaryKey(types.TypeCounter))
}
