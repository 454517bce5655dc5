package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCqlTypeString(t *testing.T) {
	udt := NewUserDefinedTypeReference("ks", IdentifierFromInternal("Address"))
	tests := []struct {
		dt       CqlDataType
		expected string
	}{
		{TypeInt, "int"},
		{NewListType(TypeText), "list<text>"},
		{NewSetType(NewFrozenType(NewListType(TypeInt))), "set<frozen<list<int>>>"},
		{NewMapType(TypeVarchar, TypeBigint), "map<varchar, bigint>"},
		{NewTupleType(TypeInt, TypeText, TypeDuration), "tuple<int, text, duration>"},
		{udt, `"Address"`},
		{NewListType(NewFrozenType(udt)), `list<frozen<"Address">>`},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dt.String())
		})
	}
}

func TestUserDefinedType(t *testing.T) {
	street := IdentifierFromCql("street")
	zip := IdentifierFromCql("zip")
	udt, err := NewUserDefinedType("ks", IdentifierFromCql("address"), []Identifier{street, zip}, []CqlDataType{TypeText, TypeInt})
	require.NoError(t, err)
	assert.Equal(t, UDT, udt.Code())
	assert.False(t, udt.IsShallow())
	assert.False(t, IsScalar(udt))
	ft, ok := udt.FieldType(zip)
	require.True(t, ok)
	assert.Equal(t, TypeInt, ft)
	_, ok = udt.FieldType(IdentifierFromCql("city"))
	assert.False(t, ok)

	_, err = NewUserDefinedType("ks", IdentifierFromCql("address"), []Identifier{street}, nil)
	assert.Error(t, err)

	assert.True(t, NewUserDefinedTypeReference("ks", IdentifierFromCql("address")).IsShallow())
}

func TestFreeze(t *testing.T) {
	list := NewListType(TypeInt)
	frozen := Freeze(list)
	assert.Equal(t, "frozen<list<int>>", frozen.String())
	assert.Same(t, frozen, Freeze(frozen))
	assert.Equal(t, list, Unfreeze(frozen))
	assert.Equal(t, TypeInt, Unfreeze(TypeInt))
	assert.True(t, NewListType(frozen).IsAnyFrozen())
}

func TestReferencedUserTypes(t *testing.T) {
	address := NewUserDefinedTypeReference("", IdentifierFromCql("address"))
	phone := NewUserDefinedTypeReference("", IdentifierFromCql("phone"))
	dt := NewMapType(TypeText, NewFrozenType(NewTupleType(address, NewListType(NewFrozenType(phone)))))
	assert.Equal(t, []Identifier{address.Name(), phone.Name()}, ReferencedUserTypes(dt))
	assert.Empty(t, ReferencedUserTypes(TypeInt))
	assert.Empty(t, ReferencedUserTypes(nil))
}

func TestScalarTypeByName(t *testing.T) {
	dt, ok := ScalarTypeByName("BigInt")
	require.True(t, ok)
	assert.Equal(t, TypeBigint, dt)
	_, ok = ScalarTypeByName("list")
	assert.False(t, ok)
}

func TestCqlTypesEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        CqlDataType
		b        CqlDataType
		expected bool
	}{
		{
			name:     "Same scalar types",
			a:        TypeInt,
			b:        TypeInt,
			expected: true,
		},
		{
			name:     "Different scalar types",
			a:        TypeInt,
			b:        TypeBigint,
			expected: false,
		},
		{
			name:     "Varchar and Text are equal",
			a:        TypeVarchar,
			b:        TypeText,
			expected: true,
		},
		{
			name:     "Same list types",
			a:        NewListType(TypeInt),
			b:        NewListType(TypeInt),
			expected: true,
		},
		{
			name:     "Different list types",
			a:        NewListType(TypeInt),
			b:        NewListType(TypeBigint),
			expected: false,
		},
		{
			name:     "Same set types",
			a:        NewSetType(TypeVarchar),
			b:        NewSetType(TypeVarchar),
			expected: true,
		},
		{
			name:     "Different set types",
			a:        NewSetType(TypeVarchar),
			b:        NewSetType(TypeText), // Should be true because Varchar == Text
			expected: true,
		},
		{
			name:     "Same map types",
			a:        NewMapType(TypeInt, TypeVarchar),
			b:        NewMapType(TypeInt, TypeVarchar),
			expected: true,
		},
		{
			name:     "Different map key types",
			a:        NewMapType(TypeInt, TypeVarchar),
			b:        NewMapType(TypeBigint, TypeVarchar),
			expected: false,
		},
		{
			name:     "Different map value types",
			a:        NewMapType(TypeInt, TypeVarchar),
			b:        NewMapType(TypeInt, TypeBigint),
			expected: false,
		},
		{
			name:     "Same frozen types",
			a:        NewFrozenType(NewListType(TypeInt)),
			b:        NewFrozenType(NewListType(TypeInt)),
			expected: true,
		},
		{
			name:     "Different frozen types",
			a:        NewFrozenType(NewListType(TypeInt)),
			b:        NewFrozenType(NewListType(TypeBigint)),
			expected: false,
		},
		{
			name:     "Nil types",
			a:        nil,
			b:        nil,
			expected: true,
		},
		{
			name:     "One nil type",
			a:        TypeInt,
			b:        nil,
			expected: false,
		},
		{
			name:     "Same tuple types",
			a:        NewTupleType(TypeInt, TypeText),
			b:        NewTupleType(TypeInt, TypeVarchar),
			expected: true,
		},
		{
			name:     "Tuples of different arity",
			a:        NewTupleType(TypeInt, TypeText),
			b:        NewTupleType(TypeInt),
			expected: false,
		},
		{
			name:     "User types compared by name",
			a:        NewUserDefinedTypeReference("ks", IdentifierFromCql("address")),
			b:        NewUserDefinedTypeReference("other", IdentifierFromCql("address")),
			expected: true,
		},
		{
			name:     "Different user types",
			a:        NewUserDefinedTypeReference("ks", IdentifierFromCql("address")),
			b:        NewUserDefinedTypeReference("ks", IdentifierFromCql("phone")),
			expected: false,
		},
		{
			name:     "Deeply nested equal types",
			a:        NewMapType(TypeInt, NewListType(NewFrozenType(TypeVarchar))),
			b:        NewMapType(TypeInt, NewListType(NewFrozenType(TypeText))),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CqlTypesEqual(tt.a, tt.b))
		})
	}
}
