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

	"github.com/datastax/go-cassandra-native-protocol/datatype"
	"github.com/datastax/go-cassandra-native-protocol/primitive"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/gocql/gocql"
)

var scalarTypes = map[primitive.DataTypeCode]types.CqlDataType{
	primitive.DataTypeCodeAscii:     types.TypeAscii,
	primitive.DataTypeCodeBigint:    types.TypeBigint,
	primitive.DataTypeCodeBlob:      types.TypeBlob,
	primitive.DataTypeCodeBoolean:   types.TypeBoolean,
	primitive.DataTypeCodeCounter:   types.TypeCounter,
	primitive.DataTypeCodeDecimal:   types.TypeDecimal,
	primitive.DataTypeCodeDouble:    types.TypeDouble,
	primitive.DataTypeCodeDuration:  types.TypeDuration,
	primitive.DataTypeCodeFloat:     types.TypeFloat,
	primitive.DataTypeCodeInt:       types.TypeInt,
	primitive.DataTypeCodeTimestamp: types.TypeTimestamp,
	primitive.DataTypeCodeUuid:      types.TypeUuid,
	primitive.DataTypeCodeText:      types.TypeText,
	primitive.DataTypeCodeVarchar:   types.TypeVarchar,
	primitive.DataTypeCodeVarint:    types.TypeVarint,
	primitive.DataTypeCodeTimeuuid:  types.TypeTimeuuid,
	primitive.DataTypeCodeInet:      types.TypeInet,
	primitive.DataTypeCodeDate:      types.TypeDate,
	primitive.DataTypeCodeTime:      types.TypeTime,
	primitive.DataTypeCodeSmallint:  types.TypeSmallint,
	primitive.DataTypeCodeTinyint:   types.TypeTinyint,
}

// IsCollection reports whether dt is a list, set or map.
func IsCollection(dt datatype.DataType) bool {
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeList, primitive.DataTypeCodeSet, primitive.DataTypeCodeMap:
		return true
	default:
		return false
	}
}

// FromDataCode converts a native protocol data type into a CqlDataType.
func FromDataCode(dt datatype.DataType) (types.CqlDataType, error) {
	if scalar, ok := scalarTypes[dt.GetDataTypeCode()]; ok {
		return scalar, nil
	}
	switch dt.GetDataTypeCode() {
	case primitive.DataTypeCodeList:
		lt, ok := dt.(datatype.ListType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", dt.String())
		}
		et, err := FromDataCode(lt.GetElementType())
		if err != nil {
			return nil, err
		}
		return types.NewListType(et), nil
	case primitive.DataTypeCodeMap:
		mt, ok := dt.(datatype.MapType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", dt.String())
		}
		kt, err := FromDataCode(mt.GetKeyType())
		if err != nil {
			return nil, err
		}
		vt, err := FromDataCode(mt.GetValueType())
		if err != nil {
			return nil, err
		}
		return types.NewMapType(kt, vt), nil
	case primitive.DataTypeCodeSet:
		st, ok := dt.(datatype.SetType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", dt.String())
		}
		et, err := FromDataCode(st.GetElementType())
		if err != nil {
			return nil, err
		}
		return types.NewSetType(et), nil
	case primitive.DataTypeCodeTuple:
		tt, ok := dt.(datatype.TupleType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", dt.String())
		}
		var elements []types.CqlDataType
		for _, fieldType := range tt.GetFieldTypes() {
			et, err := FromDataCode(fieldType)
			if err != nil {
				return nil, err
			}
			elements = append(elements, et)
		}
		return types.NewTupleType(elements...), nil
	case primitive.DataTypeCodeUdt:
		ut, ok := dt.(datatype.UserDefinedType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", dt.String())
		}
		var fieldNames []types.Identifier
		var fieldTypes []types.CqlDataType
		for i, name := range ut.GetFieldNames() {
			ft, err := FromDataCode(ut.GetFieldTypes()[i])
			if err != nil {
				return nil, err
			}
			fieldNames = append(fieldNames, types.IdentifierFromInternal(name))
			fieldTypes = append(fieldTypes, ft)
		}
		return types.NewUserDefinedType(ut.GetKeyspace(), types.IdentifierFromInternal(ut.GetName()), fieldNames, fieldTypes)
	default:
		return nil, fmt.Errorf("unhandled type: %s", dt.String())
	}
}

// FromTypeInfo converts a gocql type, as found in keyspace metadata and column infos, into a
// CqlDataType. User types reported by name only become shallow references in keyspace.
func FromTypeInfo(keyspace string, info gocql.TypeInfo) (types.CqlDataType, error) {
	// gocql numbers its types with the protocol codes
	if scalar, ok := scalarTypes[primitive.DataTypeCode(info.Type())]; ok {
		return scalar, nil
	}
	switch info.Type() {
	case gocql.TypeList, gocql.TypeSet:
		ct, ok := info.(gocql.CollectionType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", info)
		}
		et, err := FromTypeInfo(keyspace, ct.Elem)
		if err != nil {
			return nil, err
		}
		if info.Type() == gocql.TypeSet {
			return types.NewSetType(et), nil
		}
		return types.NewListType(et), nil
	case gocql.TypeMap:
		ct, ok := info.(gocql.CollectionType)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", info)
		}
		kt, err := FromTypeInfo(keyspace, ct.Key)
		if err != nil {
			return nil, err
		}
		vt, err := FromTypeInfo(keyspace, ct.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewMapType(kt, vt), nil
	case gocql.TypeTuple:
		tt, ok := info.(gocql.TupleTypeInfo)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", info)
		}
		elements := make([]types.CqlDataType, len(tt.Elems))
		for i, e := range tt.Elems {
			et, err := FromTypeInfo(keyspace, e)
			if err != nil {
				return nil, err
			}
			elements[i] = et
		}
		return types.NewTupleType(elements...), nil
	case gocql.TypeUDT:
		ut, ok := info.(gocql.UDTTypeInfo)
		if !ok {
			return nil, fmt.Errorf("unhandled type %s", info)
		}
		fieldNames := make([]types.Identifier, len(ut.Elements))
		fieldTypes := make([]types.CqlDataType, len(ut.Elements))
		for i, f := range ut.Elements {
			ft, err := FromTypeInfo(ut.KeySpace, f.Type)
			if err != nil {
				return nil, err
			}
			fieldNames[i] = types.IdentifierFromInternal(f.Name)
			fieldTypes[i] = ft
		}
		return types.NewUserDefinedType(ut.KeySpace, types.IdentifierFromInternal(ut.Name), fieldNames, fieldTypes)
	case gocql.TypeCustom:
		// schema metadata reports user types in column definitions by their CQL name
		if nt, ok := info.(gocql.NativeType); ok && nt.Custom() != "" {
			return ParseCqlTypeString(nt.Custom(), ShallowUserTypes(keyspace))
		}
		return nil, fmt.Errorf("unhandled type: %s", info)
	default:
		return nil, fmt.Errorf("unhandled type: %s", info)
	}
}

// SupportsPrimaryKey reports whether dt can be used in a primary key. Collections can only be
// used when frozen and counters never.
func SupportsPrimaryKey(dt types.CqlDataType) bool {
	return !dt.IsCollection() && dt.Code() != types.COUNTER && dt.Code() != types.DURATION
}
