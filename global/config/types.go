package config

import (
	"fmt"
	"time"
)

type yamlConfig struct {
	Session      *yamlSession      `yaml:"session"`
	Mapping      *yamlMapping      `yaml:"mapping"`
	Otel         *yamlOtelConfig   `yaml:"otel"`
	LoggerConfig *yamlLoggerConfig `yaml:"loggerConfig"`
}

type yamlLoggerConfig struct {
	OutputType string `yaml:"outputType"`
	Filename   string `yaml:"fileName"`
	MaxSize    int    `yaml:"maxSize"`    // megabytes
	MaxBackups int    `yaml:"maxBackups"` // number of rotated files kept
	MaxAge     int    `yaml:"maxAge"`     // days
	Compress   bool   `yaml:"compress"`
}

type yamlSession struct {
	Hosts           []string  `yaml:"hosts"`
	Port            int       `yaml:"port"`
	Keyspace        string    `yaml:"keyspace"`
	LocalDC         string    `yaml:"localDC"`
	Username        string    `yaml:"username"`
	Password        string    `yaml:"password"`
	Consistency     string    `yaml:"consistency"`
	ProtoVersion    int       `yaml:"protoVersion"`
	NumConns        int       `yaml:"numConns"`
	PageSize        int       `yaml:"pageSize"`
	DisableInitHost bool      `yaml:"disableInitialHostLookup"`
	Timeout         *Duration `yaml:"timeout"`
	ConnectTimeout  *Duration `yaml:"connectTimeout"`
}

type yamlMapping struct {
	NamingStrategy     string `yaml:"namingStrategy"`
	SchemaAction       string `yaml:"schemaAction"`
	StatementCacheSize int    `yaml:"statementCacheSize"`
	TypeCacheSize      int    `yaml:"typeCacheSize"`
}

type yamlOtelConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServiceName     string `yaml:"serviceName"`
	Exporter        string `yaml:"exporter"`
	ProjectID       string `yaml:"projectId"`
	CredentialsFile string `yaml:"credentialsFile"`
	Metrics         struct {
		Endpoint string    `yaml:"endpoint"`
		Interval *Duration `yaml:"interval"`
	} `yaml:"metrics"`
	Traces struct {
		Endpoint      string  `yaml:"endpoint"`
		SamplingRatio float64 `yaml:"samplingRatio"`
	} `yaml:"traces"`
}

// envSession holds session settings read from the environment. Set values win over the config file.
type envSession struct {
	Hosts       []string      `env:"HOSTS" envSeparator:","`
	Port        int           `env:"PORT"`
	Keyspace    string        `env:"KEYSPACE"`
	LocalDC     string        `env:"LOCAL_DC"`
	Username    string        `env:"USERNAME"`
	Password    string        `env:"PASSWORD"`
	Consistency string        `env:"CONSISTENCY"`
	Timeout     time.Duration `env:"TIMEOUT"`
}

// Duration is a wrapper around time.Duration to support YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(dur)
	return nil
}

func (d *Duration) orDefault(def time.Duration) time.Duration {
	if d == nil {
		return def
	}
	return time.Duration(*d)
}
