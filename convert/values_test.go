package convert

import (
	"errors"
	"testing"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUdtValueMarshalling(t *testing.T) {
	info := gocql.UDTTypeInfo{
		NativeType: gocql.NewNativeType(4, gocql.TypeUDT, ""),
		KeySpace:   "ks",
		Name:       "address",
		Elements: []gocql.UDTField{
			{Name: "street", Type: gocql.NewNativeType(4, gocql.TypeVarchar, "")},
			{Name: "zip", Type: gocql.NewNativeType(4, gocql.TypeInt, "")},
		},
	}
	udt := types.NewUserDefinedTypeReference("ks", types.IdentifierFromInternal("address"))
	value := NewUdtValue(udt).Set(types.IdentifierFromInternal("street"), "Main")

	data, err := gocql.Marshal(info, value)
	require.NoError(t, err)

	out := NewUdtValue(udt)
	require.NoError(t, gocql.Unmarshal(info, data, out))
	assert.Equal(t, map[string]any{"street": "Main", "zip": nil}, out.Fields())
}

func TestTupleValueMarshalling(t *testing.T) {
	info := gocql.TupleTypeInfo{
		NativeType: gocql.NewNativeType(4, gocql.TypeTuple, ""),
		Elems: []gocql.TypeInfo{
			gocql.NewNativeType(4, gocql.TypeInt, ""),
			gocql.NewNativeType(4, gocql.TypeVarchar, ""),
		},
	}
	tuple := NewTupleValue(types.NewTupleType(types.TypeInt, types.TypeText), 1, "a")

	data, err := gocql.Marshal(info, tuple)
	require.NoError(t, err)

	out := NewTupleValue(tuple.Type())
	require.NoError(t, gocql.Unmarshal(info, data, out))
	assert.Equal(t, []any{1, "a"}, out.Values())
	assert.Equal(t, "a", out.Get(1))
}

type staticUserTypes map[string]*types.UserDefinedType

func (s staticUserTypes) UserType(keyspace string, name types.Identifier) (*types.UserDefinedType, error) {
	if udt, ok := s[keyspace+"."+name.Internal()]; ok {
		return udt, nil
	}
	return nil, errors.New("no such type")
}

func TestKeyspaceUserTypeResolver(t *testing.T) {
	address, err := types.NewUserDefinedType("ks", types.IdentifierFromInternal("address"),
		[]types.Identifier{types.IdentifierFromInternal("street")}, []types.CqlDataType{types.TypeText})
	require.NoError(t, err)
	resolver := &KeyspaceUserTypeResolver{Keyspace: "ks", Source: staticUserTypes{"ks.address": address}}

	udt, err := resolver.ResolveUserType(types.IdentifierFromInternal("address"))
	require.NoError(t, err)
	assert.Same(t, address, udt)

	_, err = resolver.ResolveUserType(types.IdentifierFromInternal("phone"))
	assert.EqualError(t, err, "user type phone not found in keyspace ks: no such type")
}

type Trip struct {
	mapping.Table
	ID     int `cql:"partitionKey"`
	Home   Address
	Stops  []Address
	Legs   map[string]Point
	Origin Point
}

func nativeType(t gocql.Type) gocql.NativeType {
	return gocql.NewNativeType(4, t, "")
}

func TestDriverRoundTrip(t *testing.T) {
	phoneInfo := gocql.UDTTypeInfo{
		NativeType: nativeType(gocql.TypeUDT),
		KeySpace:   "ks",
		Name:       "phone",
		Elements: []gocql.UDTField{
			{Name: "number", Type: nativeType(gocql.TypeVarchar)},
			{Name: "kind", Type: nativeType(gocql.TypeVarchar)},
		},
	}
	addressInfo := gocql.UDTTypeInfo{
		NativeType: nativeType(gocql.TypeUDT),
		KeySpace:   "ks",
		Name:       "address",
		Elements: []gocql.UDTField{
			{Name: "street", Type: nativeType(gocql.TypeVarchar)},
			{Name: "phones", Type: gocql.CollectionType{NativeType: nativeType(gocql.TypeList), Elem: phoneInfo}},
		},
	}
	pointInfo := gocql.TupleTypeInfo{
		NativeType: nativeType(gocql.TypeTuple),
		Elems:      []gocql.TypeInfo{nativeType(gocql.TypeDouble), nativeType(gocql.TypeDouble)},
	}

	c := newTestConverter(t)
	trip := &Trip{
		ID:     1,
		Home:   Address{Street: "Main", Phones: []Phone{{Number: "1", Kind: "cell"}, {Number: "2", Kind: "work"}}},
		Stops:  []Address{{Street: "Second", Phones: []Phone{{Number: "3", Kind: "home"}}}},
		Legs:   map[string]Point{"north": {X: 1, Y: 2}, "south": {X: -1, Y: -2}},
		Origin: Point{X: 3.5, Y: 4.5},
	}
	values, err := c.Write(trip)
	require.NoError(t, err)
	written := columnValues(values)

	tests := []struct {
		column   string
		info     gocql.TypeInfo
		read     func(t *testing.T, data []byte) any
		expected any
	}{
		{
			column: "home",
			info:   addressInfo,
			read: func(t *testing.T, data []byte) any {
				var fields map[string]any
				require.NoError(t, gocql.Unmarshal(addressInfo, data, &fields))
				var address Address
				require.NoError(t, c.ReadUDT(fields, &address))
				return address
			},
			expected: trip.Home,
		},
		{
			column: "stops",
			info:   gocql.CollectionType{NativeType: nativeType(gocql.TypeList), Elem: addressInfo},
			read: func(t *testing.T, data []byte) any {
				var elements []map[string]any
				require.NoError(t, gocql.Unmarshal(gocql.CollectionType{NativeType: nativeType(gocql.TypeList), Elem: addressInfo}, data, &elements))
				addresses := make([]Address, len(elements))
				for i, fields := range elements {
					require.NoError(t, c.ReadUDT(fields, &addresses[i]))
				}
				return addresses
			},
			expected: trip.Stops,
		},
		{
			column: "legs",
			info: gocql.CollectionType{
				NativeType: nativeType(gocql.TypeMap),
				Key:        nativeType(gocql.TypeVarchar),
				Elem:       pointInfo,
			},
			read: func(t *testing.T, data []byte) any {
				var legs map[string][]any
				info := gocql.CollectionType{NativeType: nativeType(gocql.TypeMap), Key: nativeType(gocql.TypeVarchar), Elem: pointInfo}
				require.NoError(t, gocql.Unmarshal(info, data, &legs))
				points := make(map[string]Point, len(legs))
				for name, elements := range legs {
					var p Point
					require.NoError(t, c.ReadTuple(elements, &p))
					points[name] = p
				}
				return points
			},
			expected: trip.Legs,
		},
		{
			column: "origin",
			info:   pointInfo,
			read: func(t *testing.T, data []byte) any {
				var elements []any
				require.NoError(t, gocql.Unmarshal(pointInfo, data, &elements))
				var p Point
				require.NoError(t, c.ReadTuple(elements, &p))
				return p
			},
			expected: trip.Origin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			data, err := gocql.Marshal(tt.info, written[tt.column])
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tt.read(t, data))
		})
	}
}
