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

package schematool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/giangbb/scylla-mapping/convert"
	"github.com/giangbb/scylla-mapping/global/config"
	"github.com/giangbb/scylla-mapping/global/constants"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/giangbb/scylla-mapping/mapping"
	"github.com/giangbb/scylla-mapping/metadata"
	otelgo "github.com/giangbb/scylla-mapping/otel"
	"github.com/giangbb/scylla-mapping/schema"
	"github.com/giangbb/scylla-mapping/session"
	"github.com/giangbb/scylla-mapping/utilities"
	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// Actions handled by the tool in addition to the schema actions.
const (
	// ActionPrint writes the CQL of the mapped schema without connecting.
	ActionPrint = "print"
	// ActionDrop drops the mapped tables and user types, or all of them with --drop-unused.
	ActionDrop = "drop"
	// ActionDescribe writes the CQL of the schema found in the keyspace.
	ActionDescribe = "describe"
)

// Session is the cluster connection the tool works with. *session.Executor implements it.
type Session interface {
	Exec(ctx context.Context, cql string, values ...any) error
	KeyspaceMetadata(keyspace string) (*gocql.KeyspaceMetadata, error)
	AwaitSchemaAgreement(ctx context.Context) error
	Close()
}

var openSession = func(cfg *types.SessionConfig, opts ...session.Option) (Session, error) {
	return session.Open(cfg, opts...)
}

var stdout io.Writer = os.Stdout

// Run executes the schema tool. 'args' shouldn't include the executable (i.e. os.Args[1:]).
// entities are the mapped structs whose schema is managed.
func Run(ctx context.Context, args []string, entities ...any) error {
	cliArgs, err := config.ParseCliArgs(args)
	if err != nil {
		return err
	}

	if cliArgs.Version {
		fmt.Fprintf(stdout, "Version - %s\n", constants.ReleaseVersion)
		return nil
	}

	cfg, err := config.ParseConfig(cliArgs)
	if err != nil {
		return err
	}

	logger, err := config.ParseLoggerConfig(cliArgs)
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer logger.Sync()
	cfg.Logger = logger

	logger.Info("Release Version:" + constants.ReleaseVersion)
	logger.Debug("Configuration - ", zap.Any("session", cfg.Session), zap.Any("mapping", cfg.Mapping))
	return NewTool(cfg, stdout).Run(ctx, entities...)
}

// Tool applies one action to the schema of a set of entities.
type Tool struct {
	config *types.Config
	out    io.Writer
	logger *zap.Logger
}

func NewTool(cfg *types.Config, out io.Writer) *Tool {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tool{config: cfg, out: out, logger: logger}
}

func (t *Tool) action() string {
	return strings.ToLower(strings.TrimSpace(t.config.Mapping.SchemaAction))
}

func (t *Tool) Run(ctx context.Context, entities ...any) error {
	factory, err := t.schemaFactory(entities)
	if err != nil {
		return err
	}

	action := t.action()
	if action == ActionPrint {
		return t.print(schema.NewSchemaCreator(nil, factory, schema.WithLogger(t.logger)))
	}
	var schemaAction schema.SchemaAction
	if action != ActionDrop && action != ActionDescribe {
		if schemaAction, err = schema.ParseSchemaAction(action); err != nil {
			return err
		}
		if schemaAction == schema.ActionRecreate && t.config.CliArgs != nil && t.config.CliArgs.DropUnused {
			schemaAction = schema.ActionRecreateDropUnused
		}
		if schemaAction == schema.ActionNone {
			t.logger.Info("schema action is none, nothing to do")
			return nil
		}
	}

	otelInst, shutdown, err := otelgo.NewOpenTelemetry(ctx, otelConfig(t.config.Otel), t.logger)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.logger.Warn("failed to shut down OpenTelemetry", zap.Error(err))
		}
	}()

	sess, err := openSession(t.config.Session, session.WithLogger(t.logger), session.WithTelemetry(otelInst))
	if err != nil {
		return fmt.Errorf("unable to connect: %w", err)
	}
	defer sess.Close()

	store := metadata.NewMetadataStore(t.logger, sess)
	events := utilities.NewPublisher[metadata.SchemaEvent]()
	events.Register(store)
	events.Register(utilities.SubscriberFunc[metadata.SchemaEvent](func(event metadata.SchemaEvent) {
		t.logger.Info("schema "+string(event.Type),
			zap.String("kind", string(event.Kind)),
			zap.String("keyspace", event.Keyspace),
			zap.String("name", event.Name.Internal()))
	}))
	opts := []schema.Option{schema.WithLogger(t.logger), schema.WithEventPublisher(events)}
	creator := schema.NewSchemaCreator(sess, factory, opts...)
	dropper := schema.NewSchemaDropper(sess, store, factory, opts...)

	switch action {
	case ActionDescribe:
		return t.describe(ctx, store)
	case ActionDrop:
		dropUnused := t.config.CliArgs != nil && t.config.CliArgs.DropUnused
		if err := dropper.DropTables(ctx, dropUnused); err != nil {
			return err
		}
		if err := dropper.DropUserTypes(ctx, dropUnused); err != nil {
			return err
		}
	default:
		if err := schema.ApplySchemaAction(ctx, schemaAction, creator, dropper); err != nil {
			return err
		}
	}
	return sess.AwaitSchemaAgreement(ctx)
}

func (t *Tool) schemaFactory(entities []any) (*schema.SchemaFactory, error) {
	keyspace := t.config.Session.Keyspace
	if keyspace == "" {
		return nil, errors.New("a keyspace is required, set session.keyspace or --keyspace")
	}
	naming, err := mapping.NamingStrategyByName(t.config.Mapping.NamingStrategy)
	if err != nil {
		return nil, err
	}
	mappingContext := mapping.NewMappingContext(mapping.WithNamingStrategy(naming), mapping.WithLogger(t.logger))
	if err := mappingContext.Register(entities...); err != nil {
		return nil, err
	}
	opts := []convert.Option{convert.WithLogger(t.logger)}
	if t.config.Mapping.TypeCacheSize > 0 {
		opts = append(opts, convert.WithCacheSize(t.config.Mapping.TypeCacheSize))
	}
	return schema.NewSchemaFactory(mappingContext, keyspace, opts...)
}

// print writes user types in creation order, then tables and their indexes.
func (t *Tool) print(creator *schema.SchemaCreator) error {
	userTypes, err := creator.CreateUserTypeSpecifications(false)
	if err != nil {
		return err
	}
	tables, err := creator.CreateTableSpecifications(false)
	if err != nil {
		return err
	}
	indexes, err := creator.CreateIndexSpecifications(false)
	if err != nil {
		return err
	}
	var specs []metadata.Specification
	for _, s := range userTypes {
		specs = append(specs, s)
	}
	for _, s := range tables {
		specs = append(specs, s)
	}
	for _, s := range indexes {
		specs = append(specs, s)
	}
	return t.write(specs)
}

// describe writes the user types and tables that exist in the keyspace.
func (t *Tool) describe(ctx context.Context, store *metadata.MetadataStore) error {
	keyspace := t.config.Session.Keyspace
	userTypes, err := store.UserTypes(ctx, keyspace)
	if err != nil {
		return err
	}
	set := schema.NewUserTypeSet()
	for _, ut := range userTypes {
		spec := metadata.NewUserTypeSpecification(types.NewQualifiedName(types.IdentifierFromInternal(keyspace), ut.Name()))
		for i, name := range ut.FieldNames() {
			spec.Field(name, ut.FieldTypes()[i])
		}
		set.Add(spec)
	}
	ordered, err := set.CreationOrder()
	if err != nil {
		return err
	}

	tables, err := store.Tables(ctx, keyspace)
	if err != nil {
		return err
	}
	var specs []metadata.Specification
	for _, s := range ordered {
		specs = append(specs, s)
	}
	for _, table := range tables {
		specs = append(specs, table.Specification())
	}
	return t.write(specs)
}

func (t *Tool) write(specs []metadata.Specification) error {
	for _, spec := range specs {
		if _, err := fmt.Fprintln(t.out, spec.CQL()); err != nil {
			return err
		}
	}
	return nil
}

func otelConfig(o *types.OtelConfig) *otelgo.OTelConfig {
	if o == nil {
		return nil
	}
	return &otelgo.OTelConfig{
		OTELEnabled:      o.Enabled,
		ServiceName:      o.ServiceName,
		ServiceVersion:   constants.ReleaseVersion,
		Exporter:         o.Exporter,
		ProjectID:        o.ProjectID,
		CredentialsFile:  o.CredentialsFile,
		TracerEndpoint:   o.Traces.Endpoint,
		MetricEndpoint:   o.Metrics.Endpoint,
		MetricInterval:   o.Metrics.Interval,
		TraceSampleRatio: o.Traces.SamplingRatio,
	}
}
