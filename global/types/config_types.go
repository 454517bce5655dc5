package types

import (
	"time"

	"go.uber.org/zap"
)

type CliArgs struct {
	Version        bool
	ConfigFilePath string
	LogLevel       string
	Keyspace       string
	Hosts          []string
	Action         string
	DropUnused     bool
}

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	// Exporter is "otlp" or "gcp"
	Exporter  string
	ProjectID string
	// CredentialsFile is only used by the gcp exporter
	CredentialsFile string
	Metrics         struct {
		Endpoint string
		Interval time.Duration
	}
	Traces struct {
		Endpoint      string
		SamplingRatio float64
	}
}

type SessionConfig struct {
	Hosts           []string
	Port            int
	Keyspace        string
	LocalDC         string
	Username        string
	Password        string
	Consistency     string
	ProtoVersion    int
	NumConns        int
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	PageSize        int
	DisableInitHost bool
}

type MappingConfig struct {
	// NamingStrategy is one of snake_case, lower_camel, upper_camel, upper_snake, upper, lower, exact
	NamingStrategy     string
	SchemaAction       string
	StatementCacheSize int
	TypeCacheSize      int
}

type LoggerConfig struct {
	OutputType string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Config is the fully resolved configuration of a mapping session.
type Config struct {
	CliArgs *CliArgs
	Session *SessionConfig
	Mapping *MappingConfig
	Otel    *OtelConfig
	Logger  *zap.Logger
}
