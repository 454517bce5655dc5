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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giangbb/scylla-mapping/global/constants"
)

const (
	DefaultLogLevel       = "info"
	DefaultNamingStrategy = "snake_case"
	DefaultOtelExporter   = "otlp"
	DefaultLogFile        = "/var/log/scylla-mapping/output.log"
)

var validLogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

func validateCliArgs(args *rawCliArgs) error {
	level := strings.ToLower(args.LogLevel)
	for _, valid := range validLogLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level '%s', must be one of %s", args.LogLevel, strings.Join(validLogLevels, ", "))
}

// validateAndApplyDefaults fills in missing sections and values after the file is loaded
func validateAndApplyDefaults(cfg *yamlConfig) error {
	if cfg.Session == nil {
		cfg.Session = &yamlSession{}
	}
	if cfg.Session.Port == 0 {
		cfg.Session.Port = constants.DefaultPort
	}
	if cfg.Session.Port < 0 || cfg.Session.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Session.Port)
	}
	if cfg.Session.Consistency == "" {
		cfg.Session.Consistency = constants.DefaultConsistency
	}
	if cfg.Session.ProtoVersion == 0 {
		cfg.Session.ProtoVersion = constants.DefaultProtoVersion
	}
	if cfg.Session.NumConns == 0 {
		cfg.Session.NumConns = constants.DefaultNumConns
	}
	if cfg.Session.NumConns < 0 {
		return fmt.Errorf("invalid number of connections, must be greater than 0 (provided: %d)", cfg.Session.NumConns)
	}
	if cfg.Session.PageSize == 0 {
		cfg.Session.PageSize = constants.DefaultPageSize
	}

	if cfg.Mapping == nil {
		cfg.Mapping = &yamlMapping{}
	}
	if cfg.Mapping.NamingStrategy == "" {
		cfg.Mapping.NamingStrategy = DefaultNamingStrategy
	}
	if cfg.Mapping.StatementCacheSize == 0 {
		cfg.Mapping.StatementCacheSize = constants.DefaultStatementCacheSize
	}
	if cfg.Mapping.TypeCacheSize == 0 {
		cfg.Mapping.TypeCacheSize = constants.DefaultTypeCacheSize
	}

	if cfg.Otel == nil {
		cfg.Otel = &yamlOtelConfig{
			Enabled: false,
		}
	} else if cfg.Otel.Enabled {
		if cfg.Otel.Traces.SamplingRatio < 0 || cfg.Otel.Traces.SamplingRatio > 1 {
			return errors.New("sampling ratio for otel traces should be between 0 and 1")
		}
		if cfg.Otel.Exporter == "" {
			cfg.Otel.Exporter = DefaultOtelExporter
		}
		if cfg.Otel.ServiceName == "" {
			cfg.Otel.ServiceName = constants.ServiceName
		}
	}

	if cfg.LoggerConfig == nil {
		cfg.LoggerConfig = &yamlLoggerConfig{}
	}
	return nil
}
