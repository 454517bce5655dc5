package schema

import (
	"context"
	"strings"

	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/metadata"
)

func id(name string) types.Identifier {
	return types.IdentifierFromInternal(name)
}

func udt(name string, fields map[string]types.CqlDataType, order ...string) *types.UserDefinedType {
	names := make([]types.Identifier, len(order))
	fieldTypes := make([]types.CqlDataType, len(order))
	for i, field := range order {
		names[i] = id(field)
		fieldTypes[i] = fields[field]
	}
	ut, err := types.NewUserDefinedType("ks", id(name), names, fieldTypes)
	if err != nil {
		panic(err)
	}
	return ut
}

func udtRef(name string) types.CqlDataType {
	return types.NewUserDefinedTypeReference("ks", id(name))
}

// recordingExecutor records statements and fails those containing failOn.
type recordingExecutor struct {
	statements []string
	failOn     string
	err        error
}

func (r *recordingExecutor) Exec(_ context.Context, cql string, _ ...any) error {
	if r.err != nil && strings.Contains(cql, r.failOn) {
		return r.err
	}
	r.statements = append(r.statements, cql)
	return nil
}

type fakeKeyspaceSchema struct {
	tables    []*metadata.TableSchema
	userTypes []*types.UserDefinedType
	err       error
}

func (f *fakeKeyspaceSchema) Tables(context.Context, string) ([]*metadata.TableSchema, error) {
	return f.tables, f.err
}

func (f *fakeKeyspaceSchema) UserTypes(context.Context, string) ([]*types.UserDefinedType, error) {
	return f.userTypes, f.err
}

func tableSchema(name string) *metadata.TableSchema {
	return metadata.NewTableSchema("ks", id(name), []*types.Column{
		{Name: id("id"), CQLType: types.TypeUuid, KeyType: types.KeyTypePartition},
	})
}
