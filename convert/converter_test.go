package convert

import (
	"reflect"
	"testing"
	"time"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConverter(t *testing.T, opts ...Option) *MappingConverter {
	c, err := NewMappingConverter(mapping.NewMappingContext(), opts...)
	require.NoError(t, err)
	return c
}

func columnValues(values []ColumnValue) map[string]any {
	m := make(map[string]any, len(values))
	for _, v := range values {
		m[v.Column.Internal()] = v.Value
	}
	return m
}

func TestWrite(t *testing.T) {
	c := newTestConverter(t)
	id := gocql.TimeUUID()
	external := uuid.New()
	person := &Person{
		ID:       id,
		Name:     "Ann",
		Age:      30,
		Tags:     []string{"a"},
		Scores:   map[string]int{"x": 1},
		Flags:    map[string]struct{}{"f": {}},
		Home:     Address{Street: "Main", Phones: []Phone{{Number: "1", Kind: "cell"}}},
		Location: Point{X: 1.5, Y: 2.5},
		Color:    Green,
		External: external,
		Attrs:    map[string]any{"n": 1},
	}

	values, err := c.Write(person)
	require.NoError(t, err)
	assert.Equal(t, "id", values[0].Column.Internal())

	m := columnValues(values)
	assert.Equal(t, id, m["id"])
	assert.Equal(t, "Ann", m["name"])
	assert.Equal(t, 30, m["age"])
	assert.Equal(t, []any{"a"}, m["tags"])
	assert.Equal(t, map[any]any{"x": 1}, m["scores"])
	assert.Equal(t, []any{"f"}, m["flags"])
	assert.Equal(t, "green", m["color"])
	assert.Equal(t, gocql.UUID(external), m["external"])
	assert.Equal(t, map[any]any{"n": 1}, m["attrs"])
	assert.Nil(t, m["avatar"])
	assert.Nil(t, m["nicknames"])

	home, ok := m["home"].(*UdtValue)
	require.True(t, ok)
	assert.Equal(t, "address", home.Type().Name().Internal())
	street, _ := home.Get(types.IdentifierFromInternal("street"))
	assert.Equal(t, "Main", street)
	phones, _ := home.Get(types.IdentifierFromInternal("phones"))
	require.Len(t, phones, 1)
	phone := phones.([]any)[0].(*UdtValue)
	assert.Equal(t, map[string]any{"number": "1", "kind": "cell"}, phone.Fields())

	location, ok := m["location"].(*TupleValue)
	require.True(t, ok)
	assert.Equal(t, []any{1.5, 2.5}, location.Values())
}

func TestWriteRejectsNil(t *testing.T) {
	c := newTestConverter(t)
	_, err := c.Write(nil)
	assert.Error(t, err)
	var p *Person
	_, err = c.Write(p)
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	c := newTestConverter(t)
	id := gocql.TimeUUID()
	external := uuid.New()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	row := Row{
		"id":        id,
		"name":      "Ann",
		"age":       int64(30),
		"created":   created,
		"tags":      []string{"a", "b"},
		"flags":     []string{"f"},
		"scores":    map[string]int{"x": 1},
		"nicknames": nil,
		"home": map[string]any{
			"street": "Main",
			"phones": []map[string]any{{"number": "1", "kind": "cell"}},
		},
		"addresses":   []map[string]any{{"street": "Second"}},
		"location[0]": 1.5,
		"location[1]": 2.5,
		"color":       "green",
		"external":    gocql.UUID(external),
		"avatar":      "pic",
	}

	var person Person
	person.Score = 9.5
	require.NoError(t, c.Read(row, &person))

	assert.Equal(t, id, person.ID)
	assert.Equal(t, "Ann", person.Name)
	assert.Equal(t, 30, person.Age)
	assert.Equal(t, created, person.Created)
	assert.Equal(t, []string{"a", "b"}, person.Tags)
	assert.Equal(t, map[string]struct{}{"f": {}}, person.Flags)
	assert.Equal(t, map[string]int{"x": 1}, person.Scores)
	assert.Nil(t, person.Nicknames)
	assert.Equal(t, Address{Street: "Main", Phones: []Phone{{Number: "1", Kind: "cell"}}}, person.Home)
	assert.Equal(t, []Address{{Street: "Second"}}, person.Addresses)
	assert.Equal(t, Point{X: 1.5, Y: 2.5}, person.Location)
	assert.Equal(t, Green, person.Color)
	assert.Equal(t, external, person.External)
	require.NotNil(t, person.Avatar)
	assert.Equal(t, "pic", *person.Avatar)
	// columns missing from the row are left alone
	assert.Equal(t, 9.5, person.Score)
}

func TestReadErrors(t *testing.T) {
	c := newTestConverter(t)

	var person Person
	assert.Error(t, c.Read(Row{}, person))
	assert.ErrorIs(t, c.Read(Row{}, &Celsius{}), mapping.ErrNotAnEntity)

	err := c.Read(Row{"color": "purple"}, &person)
	assert.ErrorContains(t, err, "unknown color")

	err = c.Read(Row{"age": "thirty"}, &person)
	var conversionErr *ConversionError
	assert.ErrorAs(t, err, &conversionErr)
}

func TestReadAndWriteUDT(t *testing.T) {
	c := newTestConverter(t)
	value, err := c.WriteUDT(&Address{Street: "Main"})
	require.NoError(t, err)
	assert.Equal(t, "Main", value.Fields()["street"])
	assert.Nil(t, value.Fields()["phones"])

	var address Address
	require.NoError(t, c.ReadUDT(value, &address))
	assert.Equal(t, "Main", address.Street)

	_, err = c.WriteUDT(Point{})
	assert.ErrorContains(t, err, "is not a user type")
}

func TestReadAndWriteTuple(t *testing.T) {
	c := newTestConverter(t)
	value, err := c.WriteTuple(Point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "tuple<double, double>", value.Type().String())
	assert.Equal(t, []any{1.0, 2.0}, value.Values())

	var point Point
	require.NoError(t, c.ReadTuple([]any{3.0, 4.0}, &point))
	assert.Equal(t, Point{X: 3, Y: 4}, point)

	_, err = c.WriteTuple(Address{})
	assert.ErrorContains(t, err, "is not a tuple")
}

func TestConvertToColumnType(t *testing.T) {
	c := newTestConverter(t)
	external := uuid.New()

	v, err := c.ConvertToColumnType(external, ObjectColumnType)
	require.NoError(t, err)
	assert.Equal(t, gocql.UUID(external), v)

	v, err = c.ConvertToColumnType([]any{Red, Green}, ObjectColumnType)
	require.NoError(t, err)
	assert.Equal(t, []any{"red", "green"}, v)

	v, err = c.ConvertToColumnType(nil, ObjectColumnType)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.ConvertToColumnType(Point{X: 1, Y: 2}, nil)
	require.NoError(t, err)
	assert.IsType(t, &TupleValue{}, v)
}

func TestCustomConversions(t *testing.T) {
	conversions := NewCustomConversions()
	RegisterWriting(conversions, func(c Celsius) (float64, error) {
		return c.Degrees, nil
	})
	RegisterReading(conversions, func(f float64) (Celsius, error) {
		return Celsius{Degrees: f}, nil
	})
	c := newTestConverter(t, WithCustomConversions(conversions))

	v, err := c.ConvertToColumnType(Celsius{Degrees: 21.5}, ObjectColumnType)
	require.NoError(t, err)
	assert.Equal(t, 21.5, v)
	assert.True(t, conversions.HasReading(reflect.TypeOf(0.0), reflect.TypeOf(Celsius{})))
}

type Reading struct {
	mapping.Table
	Sensor string  `cql:"partitionKey"`
	At     int64   `cql:"clusteringKey"`
	Temp   Celsius `cql:"type=double"`
}

type readingKey struct {
	sensor string
	at     int64
}

func (k readingKey) MapID() mapping.MapID {
	return mapping.ID("Sensor", k.sensor).With("At", k.at)
}

func TestWriteWhere(t *testing.T) {
	conversions := NewCustomConversions()
	RegisterWriting(conversions, func(c Celsius) (float64, error) {
		return c.Degrees, nil
	})
	c := newTestConverter(t, WithCustomConversions(conversions))
	entity, err := c.MappingContext().PersistentEntityOf(Reading{})
	require.NoError(t, err)

	tests := []struct {
		name string
		id   any
	}{
		{"entity", &Reading{Sensor: "s1", At: 10, Temp: Celsius{Degrees: 1}}},
		{"map id", mapping.ID("Sensor", "s1").With("At", int64(10))},
		{"identifiable", readingKey{sensor: "s1", at: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := c.WriteWhere(tt.id, entity)
			require.NoError(t, err)
			require.Len(t, values, 2)
			assert.Equal(t, "sensor", values[0].Column.Internal())
			assert.Equal(t, "s1", values[0].Value)
			assert.Equal(t, int64(10), values[1].Value)
		})
	}

	values, err := c.WritePartitionKey(mapping.ID("Sensor", "s1"), entity)
	require.NoError(t, err)
	assert.Len(t, values, 1)

	_, err = c.WriteWhere(mapping.ID("Sensor", "s1"), entity)
	assert.ErrorContains(t, err, "missing value for primary key column at")

	_, err = c.WriteWhere(mapping.ID("Temp", 1.0), entity)
	assert.ErrorContains(t, err, "Temp is not a primary key property")

	_, err = c.WriteWhere("s1", entity)
	assert.Error(t, err)
}

func TestGetID(t *testing.T) {
	c := newTestConverter(t)
	id, err := c.GetID(Reading{Sensor: "s1", At: 10})
	require.NoError(t, err)
	assert.Equal(t, mapping.ID("Sensor", "s1").With("At", int64(10)), id)

	extracted, err := c.ExtractID(readingKey{sensor: "s2", at: 1})
	require.NoError(t, err)
	assert.Equal(t, "s2", extracted["Sensor"])

	extracted, err = c.ExtractID(id)
	require.NoError(t, err)
	assert.Equal(t, id, extracted)
}
