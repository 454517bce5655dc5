package metadata

import (
	"testing"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/stretchr/testify/assert"
)

func id(name string) types.Identifier {
	return types.IdentifierFromInternal(name)
}

func qualified(keyspace, name string) types.QualifiedName {
	return types.NewQualifiedName(id(keyspace), id(name))
}

func TestTableSpecificationCQL(t *testing.T) {
	tests := []struct {
		name     string
		spec     *TableSpecification
		expected string
	}{
		{
			name: "single partition key",
			spec: NewTableSpecification(qualified("", "users")).
				PartitionKeyColumn(id("id"), types.TypeUuid).
				Column(id("name"), types.TypeText),
			expected: "CREATE TABLE users (id uuid, name text, PRIMARY KEY (id));",
		},
		{
			name: "composite partition key with clustering order",
			spec: NewTableSpecification(qualified("ks", "events")).
				PartitionKeyColumn(id("tenant"), types.TypeText).
				PartitionKeyColumn(id("day"), types.TypeDate).
				ClusteredKeyColumn(id("at"), types.TypeTimestamp, types.Descending).
				ClusteredKeyColumn(id("seq"), types.TypeInt, "").
				StaticColumn(id("owner"), types.TypeText).
				Column(id("payload"), types.NewMapType(types.TypeText, types.TypeBlob)),
			expected: "CREATE TABLE ks.events (tenant text, day date, at timestamp, seq int, owner text STATIC, " +
				"payload map<text, blob>, PRIMARY KEY ((tenant, day), at, seq)) WITH CLUSTERING ORDER BY (at DESC, seq ASC);",
		},
		{
			name: "if not exists with options",
			spec: func() *TableSpecification {
				s := NewTableSpecification(qualified("ks", "Quoted")).
					PartitionKeyColumn(id("userId"), types.TypeInt).
					WithOption("comment", "it's mine").
					WithOption("gc_grace_seconds", 10).
					WithOption("compaction", map[string]string{"class": "LeveledCompactionStrategy"})
				s.IfNotExists = true
				return s
			}(),
			expected: `CREATE TABLE IF NOT EXISTS ks."Quoted" ("userId" int, PRIMARY KEY ("userId")) WITH ` +
				`comment = 'it''s mine' AND compaction = {'class': 'LeveledCompactionStrategy'} AND gc_grace_seconds = 10;`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.CQL())
		})
	}
}

func TestTableSpecificationColumnOrder(t *testing.T) {
	spec := NewTableSpecification(qualified("", "t")).
		Column(id("c"), types.TypeInt).
		StaticColumn(id("s"), types.TypeInt).
		ClusteredKeyColumn(id("b"), types.TypeInt, types.Ascending).
		PartitionKeyColumn(id("a"), types.TypeInt)

	var names []string
	for _, c := range spec.AllColumns() {
		names = append(names, c.Name.Internal())
	}
	assert.Equal(t, []string{"a", "b", "s", "c"}, names)
	assert.Len(t, spec.PartitionKeyColumns(), 1)
	assert.Len(t, spec.ClusteringKeyColumns(), 1)
	assert.Len(t, spec.StaticColumns(), 1)
	assert.Len(t, spec.Columns(), 1)
}

func TestUserTypeSpecificationCQL(t *testing.T) {
	spec := NewUserTypeSpecification(qualified("ks", "address")).
		Field(id("street"), types.TypeText).
		Field(id("phones"), types.NewListType(types.Freeze(types.NewUserDefinedTypeReference("ks", id("phone")))))
	assert.Equal(t, "CREATE TYPE ks.address (street text, phones list<frozen<phone>>);", spec.CQL())

	spec.IfNotExists = true
	assert.Equal(t, "CREATE TYPE IF NOT EXISTS ks.address (street text, phones list<frozen<phone>>);", spec.CQL())
}

func TestIndexSpecificationCQL(t *testing.T) {
	tests := []struct {
		name     string
		spec     *IndexSpecification
		expected string
	}{
		{
			name:     "unnamed",
			spec:     &IndexSpecification{Table: qualified("", "users"), Column: id("email")},
			expected: "CREATE INDEX ON users (email);",
		},
		{
			name: "named with function",
			spec: &IndexSpecification{
				Name: id("users_tags_idx"), Table: qualified("ks", "users"), Column: id("tags"),
				Function: types.IndexFunctionKeys, IfNotExists: true,
			},
			expected: "CREATE INDEX IF NOT EXISTS users_tags_idx ON ks.users (KEYS(tags));",
		},
		{
			name: "custom",
			spec: &IndexSpecification{
				Name: id("name_sasi"), Table: qualified("", "users"), Column: id("name"),
				Using:   "org.apache.cassandra.index.sasi.SASIIndex",
				Options: map[string]string{"mode": "CONTAINS"},
			},
			expected: "CREATE CUSTOM INDEX name_sasi ON users (name) USING 'org.apache.cassandra.index.sasi.SASIIndex' " +
				"WITH OPTIONS = {'mode': 'CONTAINS'};",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.CQL())
		})
	}
}

func TestDropSpecificationCQL(t *testing.T) {
	assert.Equal(t, "DROP TABLE ks.users;", (&DropTableSpecification{Name: qualified("ks", "users")}).CQL())
	assert.Equal(t, "DROP TABLE IF EXISTS users;", (&DropTableSpecification{Name: qualified("", "users"), IfExists: true}).CQL())
	assert.Equal(t, "DROP TYPE ks.address;", (&DropUserTypeSpecification{Name: qualified("ks", "address")}).CQL())
	assert.Equal(t, `DROP TYPE IF EXISTS "Address";`, (&DropUserTypeSpecification{Name: qualified("", "Address"), IfExists: true}).CQL())
}
