package schema

import (
	"context"
	"testing"
	"time"

	"github.com/giangbb/scylla-mapping/dataaccess"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/metadata"
	"github.com/giangbb/scylla-mapping/utilities"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CustomerView struct {
	mapping.Table `cql:"name=customer"`
	Tenant        string     `cql:"partitionKey,ordinal=0"`
	ID            gocql.UUID `cql:"partitionKey,ordinal=1"`
	Since         time.Time  `cql:"clusteringKey,order=desc"`
}

func recordEvents(publisher *utilities.EventPublisher[metadata.SchemaEvent]) *[]metadata.SchemaEvent {
	var events []metadata.SchemaEvent
	publisher.Register(utilities.SubscriberFunc[metadata.SchemaEvent](func(event metadata.SchemaEvent) {
		events = append(events, event)
	}))
	return &events
}

func TestSchemaCreatorSpecifications(t *testing.T) {
	creator := NewSchemaCreator(&recordingExecutor{}, newTestFactory(t, Customer{}, CustomerView{}))

	tables, err := creator.CreateTableSpecifications(false)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, customerCQL, tables[0].CQL())

	userTypes, err := creator.CreateUserTypeSpecifications(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"phone", "address"}, namesOf(userTypes))

	indexes, err := creator.CreateIndexSpecifications(false)
	require.NoError(t, err)
	assert.Len(t, indexes, 2)
}

func TestSchemaCreatorPublishesEvents(t *testing.T) {
	executor := &recordingExecutor{}
	publisher := utilities.NewPublisher[metadata.SchemaEvent]()
	events := recordEvents(publisher)
	creator := NewSchemaCreator(executor, newTestFactory(t, Customer{}), WithEventPublisher(publisher))

	require.NoError(t, creator.CreateUserTypes(context.Background(), false))
	require.NoError(t, creator.CreateTables(context.Background(), false))

	assert.Equal(t, []string{phoneCQL, addressCQL, customerCQL}, executor.statements)
	require.Len(t, *events, 3)
	assert.Equal(t, metadata.SchemaEvent{
		Type:     metadata.SchemaObjectCreated,
		Kind:     metadata.SchemaObjectUserType,
		Keyspace: "ks",
		Name:     id("phone"),
		CQL:      phoneCQL,
	}, (*events)[0])
	assert.Equal(t, metadata.SchemaObjectTable, (*events)[2].Kind)
	assert.Equal(t, id("customer"), (*events)[2].Name)
}

func TestSchemaCreatorTranslatesErrors(t *testing.T) {
	executor := &recordingExecutor{failOn: "CREATE TABLE", err: &gocql.RequestErrAlreadyExists{Keyspace: "ks", Table: "customer"}}
	publisher := utilities.NewPublisher[metadata.SchemaEvent]()
	events := recordEvents(publisher)
	creator := NewSchemaCreator(executor, newTestFactory(t, Customer{}), WithEventPublisher(publisher))

	err := creator.CreateTables(context.Background(), false)
	require.Error(t, err)
	var translated *dataaccess.Error
	require.ErrorAs(t, err, &translated)
	assert.Equal(t, dataaccess.KindSchemaElementExists, translated.Kind)
	assert.Equal(t, "create table", translated.Task)
	assert.Equal(t, customerCQL, translated.CQL)
	assert.Empty(t, *events)
}
