package schema

import (
	"testing"
	"time"

	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Phone struct {
	mapping.UserType
	Number string
	Kind   string
}

type Address struct {
	mapping.UserType
	Street string
	Phones []Phone
}

type Point struct {
	mapping.Tuple
	X float64 `cql:"element=0"`
	Y float64 `cql:"element=1"`
}

type Customer struct {
	mapping.Table
	Tenant   string         `cql:"partitionKey,ordinal=0"`
	ID       gocql.UUID     `cql:"partitionKey,ordinal=1"`
	Since    time.Time      `cql:"clusteringKey,order=desc"`
	Region   string         `cql:"static"`
	Email    string         `cql:"index"`
	Tags     map[string]int `cql:"index=customer_tags,indexFunction=keys"`
	Home     Address
	Location Point
}

type Track struct {
	mapping.Table
	Origin Point    `cql:"partitionKey"`
	Stops  []string `cql:"clusteringKey"`
}

type Orphan struct {
	mapping.Table
	Seq int `cql:"clusteringKey"`
}

type Empty struct {
	mapping.UserType
}

const (
	customerCQL = "CREATE TABLE ks.customer (tenant text, id uuid, since timestamp, region text STATIC, email text, " +
		"tags map<text, int>, home address, location tuple<double, double>, " +
		"PRIMARY KEY ((tenant, id), since)) WITH CLUSTERING ORDER BY (since DESC);"
	addressCQL = "CREATE TYPE ks.address (street text, phones frozen<list<frozen<phone>>>);"
	phoneCQL   = "CREATE TYPE ks.phone (number text, kind text);"
)

func newTestFactory(t *testing.T, values ...any) *SchemaFactory {
	mappingContext := mapping.NewMappingContext()
	require.NoError(t, mappingContext.Register(values...))
	factory, err := NewSchemaFactory(mappingContext, "ks")
	require.NoError(t, err)
	return factory
}

func entityOf(t *testing.T, factory *SchemaFactory, value any) *mapping.PersistentEntity {
	entity, err := factory.MappingContext().PersistentEntityOf(value)
	require.NoError(t, err)
	return entity
}

func TestCreateTableSpecification(t *testing.T) {
	factory := newTestFactory(t, Customer{}, Track{})

	tests := []struct {
		name        string
		value       any
		ifNotExists bool
		expected    string
	}{
		{"customer", Customer{}, false, customerCQL},
		{"if not exists", Customer{}, true, "CREATE TABLE IF NOT EXISTS ks.customer" + customerCQL[len("CREATE TABLE ks.customer"):]},
		{
			name:  "frozen primary key",
			value: Track{},
			expected: "CREATE TABLE ks.track (origin frozen<tuple<double, double>>, stops frozen<list<text>>, " +
				"PRIMARY KEY (origin, stops)) WITH CLUSTERING ORDER BY (stops ASC);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := factory.CreateTableSpecification(entityOf(t, factory, tt.value), tt.ifNotExists)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec.CQL())
		})
	}
}

func TestCreateTableSpecificationErrors(t *testing.T) {
	factory := newTestFactory(t, Customer{})
	_, err := factory.CreateTableSpecification(entityOf(t, factory, Address{}), false)
	assert.ErrorContains(t, err, "is not a table entity")

	lenient := mapping.NewMappingContext(mapping.WithVerifier(mapping.VerifierFunc(func(*mapping.PersistentEntity) error {
		return nil
	})))
	require.NoError(t, lenient.Register(Orphan{}, Empty{}))
	factory, err = NewSchemaFactory(lenient, "ks")
	require.NoError(t, err)

	_, err = factory.CreateTableSpecification(entityOf(t, factory, Orphan{}), false)
	assert.ErrorContains(t, err, "no partition key columns found")

	_, err = factory.CreateUserTypeSpecification(entityOf(t, factory, Empty{}), false)
	assert.ErrorContains(t, err, "no fields in user type")
}

func TestCreateIndexSpecifications(t *testing.T) {
	factory := newTestFactory(t, Customer{})
	specs, err := factory.CreateIndexSpecifications(entityOf(t, factory, Customer{}), false)
	require.NoError(t, err)

	var statements []string
	for _, spec := range specs {
		statements = append(statements, spec.CQL())
	}
	assert.Equal(t, []string{
		"CREATE INDEX ON ks.customer (email);",
		"CREATE INDEX customer_tags ON ks.customer (KEYS(tags));",
	}, statements)

	_, err = factory.CreateIndexSpecifications(entityOf(t, factory, Phone{}), false)
	assert.Error(t, err)
}

func TestCreateUserTypeSpecification(t *testing.T) {
	factory := newTestFactory(t, Customer{})

	spec, err := factory.CreateUserTypeSpecification(entityOf(t, factory, Address{}), false)
	require.NoError(t, err)
	assert.Equal(t, addressCQL, spec.CQL())

	spec, err = factory.CreateUserTypeSpecification(entityOf(t, factory, Phone{}), true)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TYPE IF NOT EXISTS ks.phone (number text, kind text);", spec.CQL())

	_, err = factory.CreateUserTypeSpecification(entityOf(t, factory, Customer{}), false)
	assert.ErrorContains(t, err, "is not a user type entity")
}

func TestDropSpecifications(t *testing.T) {
	factory := newTestFactory(t)
	assert.Equal(t, "DROP TABLE ks.customer;", factory.DropTableSpecification(id("customer"), false).CQL())
	assert.Equal(t, "DROP TYPE IF EXISTS ks.phone;", factory.DropUserTypeSpecification(id("phone"), true).CQL())

	unqualified, err := NewSchemaFactory(mapping.NewMappingContext(), "")
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE customer;", unqualified.DropTableSpecification(id("customer"), false).CQL())
}
