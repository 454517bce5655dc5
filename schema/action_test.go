package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaAction(t *testing.T) {
	tests := []struct {
		input    string
		expected SchemaAction
		wantErr  bool
	}{
		{"", ActionNone, false},
		{"none", ActionNone, false},
		{"CREATE", ActionCreate, false},
		{"create-if-not-exists", ActionCreateIfNotExists, false},
		{" recreate ", ActionRecreate, false},
		{"recreate_drop_unused", ActionRecreateDropUnused, false},
		{"migrate", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			action, err := ParseSchemaAction(tt.input)
			if tt.wantErr {
				assert.EqualError(t, err, "unknown schema action '"+tt.input+"'")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
		})
	}
}

func TestApplySchemaAction(t *testing.T) {
	indexes := []string{
		"CREATE INDEX ON ks.customer (email);",
		"CREATE INDEX customer_tags ON ks.customer (KEYS(tags));",
	}
	tests := []struct {
		name     string
		action   SchemaAction
		expected []string
	}{
		{"none", ActionNone, nil},
		{"create", ActionCreate, append([]string{phoneCQL, addressCQL, customerCQL}, indexes...)},
		{
			name:   "create if not exists",
			action: ActionCreateIfNotExists,
			expected: []string{
				"CREATE TYPE IF NOT EXISTS ks.phone (number text, kind text);",
				"CREATE TYPE IF NOT EXISTS ks.address (street text, phones frozen<list<frozen<phone>>>);",
				"CREATE TABLE IF NOT EXISTS ks.customer" + customerCQL[len("CREATE TABLE ks.customer"):],
				"CREATE INDEX IF NOT EXISTS ON ks.customer (email);",
				"CREATE INDEX IF NOT EXISTS customer_tags ON ks.customer (KEYS(tags));",
			},
		},
		{
			name:   "recreate",
			action: ActionRecreate,
			expected: append([]string{
				"DROP TABLE ks.customer;",
				"DROP TYPE ks.address;",
				"DROP TYPE ks.phone;",
				phoneCQL, addressCQL, customerCQL,
			}, indexes...),
		},
		{
			name:   "recreate drop unused",
			action: ActionRecreateDropUnused,
			expected: append([]string{
				"DROP TABLE ks.customer;",
				"DROP TABLE ks.legacy;",
				"DROP TYPE ks.address;",
				"DROP TYPE ks.phone;",
				"DROP TYPE ks.orphan;",
				phoneCQL, addressCQL, customerCQL,
			}, indexes...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &recordingExecutor{}
			factory := newTestFactory(t, Customer{})
			creator := NewSchemaCreator(executor, factory)
			dropper := NewSchemaDropper(executor, existingSchema(), factory)
			require.NoError(t, ApplySchemaAction(context.Background(), tt.action, creator, dropper))
			assert.Equal(t, tt.expected, executor.statements)
		})
	}
}

func TestApplySchemaActionErrors(t *testing.T) {
	creator := NewSchemaCreator(&recordingExecutor{}, newTestFactory(t, Customer{}))
	assert.EqualError(t, ApplySchemaAction(context.Background(), ActionRecreate, creator, nil),
		"schema action recreate needs a schema dropper")
	assert.Error(t, ApplySchemaAction(context.Background(), SchemaAction("bogus"), creator, nil))
}
