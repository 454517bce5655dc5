package metadata

import (
	"testing"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleMetadata() *gocql.TableMetadata {
	return &gocql.TableMetadata{
		Keyspace: "ks",
		Name:     "people",
		Columns: map[string]*gocql.ColumnMetadata{
			"id":     {Name: "id", Kind: gocql.ColumnPartitionKey, Validator: "uuid"},
			"ts":     {Name: "ts", Kind: gocql.ColumnClusteringKey, Validator: "timestamp", Order: gocql.DESC},
			"region": {Name: "region", Kind: gocql.ColumnStatic, Validator: "text"},
			"home":   {Name: "home", Kind: gocql.ColumnRegular, Validator: "frozen<address>"},
			"name":   {Name: "name", Kind: gocql.ColumnRegular, Type: gocql.NewNativeType(4, gocql.TypeVarchar, "")},
		},
		OrderedColumns: []string{"id", "ts", "region", "home", "name"},
	}
}

func TestTableSchemaFromMetadata(t *testing.T) {
	table, err := TableSchemaFromMetadata("ks", peopleMetadata())
	require.NoError(t, err)

	assert.Equal(t, "people", table.Name.Internal())
	assert.Equal(t, []types.Identifier{id("id"), id("ts")}, table.GetPrimaryKeys())
	ts, err := table.GetColumn(id("ts"))
	require.NoError(t, err)
	assert.Equal(t, types.Descending, ts.Ordering)
	home, err := table.GetColumn(id("home"))
	require.NoError(t, err)
	assert.Equal(t, "frozen<address>", home.CQLType.String())
	assert.Equal(t, []types.Identifier{id("address")}, table.UserTypes())
	assert.True(t, table.HasColumn(id("region")))
	assert.False(t, table.HasColumn(id("missing")))
	_, err = table.GetColumn(id("missing"))
	assert.EqualError(t, err, "unknown column 'missing' in table ks.people")

	assert.Equal(t,
		"CREATE TABLE ks.people (id uuid, ts timestamp, region text STATIC, home frozen<address>, name varchar, "+
			"PRIMARY KEY (id, ts)) WITH CLUSTERING ORDER BY (ts DESC);",
		table.Describe())
}

func TestTableSchemaFromMetadataWithoutType(t *testing.T) {
	tm := &gocql.TableMetadata{
		Name:    "broken",
		Columns: map[string]*gocql.ColumnMetadata{"id": {Name: "id", Kind: gocql.ColumnPartitionKey}},
	}
	_, err := TableSchemaFromMetadata("ks", tm)
	assert.ErrorContains(t, err, "column id of table ks.broken")
}

func TestUserTypeFromMetadata(t *testing.T) {
	ut, err := UserTypeFromMetadata(&gocql.UserTypeMetadata{
		Keyspace:   "ks",
		Name:       "address",
		FieldNames: []string{"street", "phone"},
		FieldTypes: []gocql.TypeInfo{
			gocql.NewNativeType(4, gocql.TypeText, ""),
			gocql.NewNativeType(4, gocql.TypeCustom, "phone"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ks", ut.Keyspace())
	require.Len(t, ut.FieldTypes(), 2)
	assert.Equal(t, types.TypeText, ut.FieldTypes()[0])
	phone, ok := ut.FieldTypes()[1].(*types.UserDefinedType)
	require.True(t, ok)
	assert.True(t, phone.IsShallow())

	_, err = UserTypeFromMetadata(&gocql.UserTypeMetadata{Name: "bad", FieldNames: []string{"a"}})
	assert.Error(t, err)
}

func TestSameSchema(t *testing.T) {
	a, err := TableSchemaFromMetadata("ks", peopleMetadata())
	require.NoError(t, err)
	b, err := TableSchemaFromMetadata("ks", peopleMetadata())
	require.NoError(t, err)
	assert.True(t, a.SameTable(b))
	assert.True(t, a.SameSchema(b))

	changed := peopleMetadata()
	changed.Columns["name"] = &gocql.ColumnMetadata{Name: "name", Kind: gocql.ColumnRegular, Validator: "int"}
	c, err := TableSchemaFromMetadata("ks", changed)
	require.NoError(t, err)
	assert.False(t, a.SameSchema(c))
	assert.False(t, a.SameSchema(nil))
	assert.False(t, a.SameTable(nil))
}

func TestNewTableSchemaSortsPrimaryKeys(t *testing.T) {
	table := NewTableSchema("ks", id("t"), []*types.Column{
		{Name: id("c2"), CQLType: types.TypeInt, KeyType: types.KeyTypeClustering, PkPrecedence: 1},
		{Name: id("c1"), CQLType: types.TypeInt, KeyType: types.KeyTypeClustering, PkPrecedence: 0},
		{Name: id("v"), CQLType: types.TypeInt, KeyType: types.KeyTypeRegular},
		{Name: id("p"), CQLType: types.TypeInt, KeyType: types.KeyTypePartition},
	})
	assert.Equal(t, []types.Identifier{id("p"), id("c1"), id("c2")}, table.GetPrimaryKeys())
	assert.Equal(t, types.Ascending, table.Columns["c1"].Ordering)
	assert.Len(t, table.AllColumns(), 4)
}
