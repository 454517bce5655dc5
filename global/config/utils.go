package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/giangbb/scylla-mapping/global/constants"
	"github.com/giangbb/scylla-mapping/global/types"
)

const envPrefix = "SCYLLA_MAPPING_"

var readFile = os.ReadFile

var environ = os.Environ

func applyEnvOverrides(session *yamlSession) error {
	var overrides envSession
	err := env.ParseWithOptions(&overrides, env.Options{
		Prefix:      envPrefix,
		Environment: env.ToMap(environ()),
	})
	if err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if len(overrides.Hosts) > 0 {
		session.Hosts = overrides.Hosts
	}
	if overrides.Port != 0 {
		session.Port = overrides.Port
	}
	if overrides.Keyspace != "" {
		session.Keyspace = overrides.Keyspace
	}
	if overrides.LocalDC != "" {
		session.LocalDC = overrides.LocalDC
	}
	if overrides.Username != "" {
		session.Username = overrides.Username
	}
	if overrides.Password != "" {
		session.Password = overrides.Password
	}
	if overrides.Consistency != "" {
		session.Consistency = overrides.Consistency
	}
	if overrides.Timeout != 0 {
		timeout := Duration(overrides.Timeout)
		session.Timeout = &timeout
	}
	return nil
}

func toSessionConfig(s *yamlSession) *types.SessionConfig {
	return &types.SessionConfig{
		Hosts:           s.Hosts,
		Port:            s.Port,
		Keyspace:        s.Keyspace,
		LocalDC:         s.LocalDC,
		Username:        s.Username,
		Password:        s.Password,
		Consistency:     s.Consistency,
		ProtoVersion:    s.ProtoVersion,
		NumConns:        s.NumConns,
		Timeout:         s.Timeout.orDefault(constants.DefaultTimeout),
		ConnectTimeout:  s.ConnectTimeout.orDefault(constants.DefaultConnectTimeout),
		PageSize:        s.PageSize,
		DisableInitHost: s.DisableInitHost,
	}
}

func toMappingConfig(m *yamlMapping) *types.MappingConfig {
	return &types.MappingConfig{
		NamingStrategy:     m.NamingStrategy,
		SchemaAction:       m.SchemaAction,
		StatementCacheSize: m.StatementCacheSize,
		TypeCacheSize:      m.TypeCacheSize,
	}
}

func toOtelConfig(o *yamlOtelConfig) *types.OtelConfig {
	otel := &types.OtelConfig{
		Enabled:         o.Enabled,
		ServiceName:     o.ServiceName,
		Exporter:        o.Exporter,
		ProjectID:       o.ProjectID,
		CredentialsFile: o.CredentialsFile,
	}
	otel.Metrics.Endpoint = o.Metrics.Endpoint
	otel.Metrics.Interval = o.Metrics.Interval.orDefault(constants.DefaultMetricsInterval)
	otel.Traces.Endpoint = o.Traces.Endpoint
	otel.Traces.SamplingRatio = o.Traces.SamplingRatio
	return otel
}
