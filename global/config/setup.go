package config

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/giangbb/scylla-mapping/global/types"
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

type rawCliArgs struct {
	Version    bool     `yaml:"version" help:"Show current version" short:"v" default:"false" env:"SCYLLA_MAPPING_VERSION"`
	Config     *os.File `yaml:"-" help:"YAML configuration file" short:"f" env:"SCYLLA_MAPPING_CONFIG_FILE"` // Not available in the configuration file
	LogLevel   string   `yaml:"log-level" help:"Log level configuration." default:"info" env:"SCYLLA_MAPPING_LOG_LEVEL"`
	Keyspace   string   `yaml:"keyspace" help:"Keyspace of the mapped tables and user types. Overrides the config file." short:"k" env:"SCYLLA_MAPPING_KEYSPACE"`
	Hosts      []string `yaml:"hosts" help:"Comma separated contact points. Overrides the config file." env:"SCYLLA_MAPPING_HOSTS"`
	Action     string   `yaml:"action" help:"Schema action (none, create, create_if_not_exists, recreate, recreate_drop_unused). Overrides the config file." short:"a" env:"SCYLLA_MAPPING_SCHEMA_ACTION"`
	DropUnused bool     `yaml:"drop-unused" help:"Also drop tables and user types no entity maps." default:"false" env:"SCYLLA_MAPPING_DROP_UNUSED"`
}

func ParseCliArgs(args []string) (*types.CliArgs, error) {
	var parsed rawCliArgs

	parser, err := kong.New(&parsed)
	if err != nil {
		return nil, err
	}

	if _, err = parser.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %v", err)
	}

	if parsed.LogLevel == "" {
		parsed.LogLevel = DefaultLogLevel
	}
	if err = validateCliArgs(&parsed); err != nil {
		return nil, err
	}

	configFilePath := ""
	if parsed.Config != nil {
		configFilePath = parsed.Config.Name()
		_ = parsed.Config.Close()
	}

	return &types.CliArgs{
		Version:        parsed.Version,
		ConfigFilePath: configFilePath,
		LogLevel:       parsed.LogLevel,
		Keyspace:       parsed.Keyspace,
		Hosts:          parsed.Hosts,
		Action:         parsed.Action,
		DropUnused:     parsed.DropUnused,
	}, nil
}

// ParseLoggerConfig builds the logger of args: a JSON console logger, or a rotated file logger
// when the config file sets loggerConfig.outputType to "file".
func ParseLoggerConfig(args *types.CliArgs) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	err := level.UnmarshalText([]byte(args.LogLevel))
	if err != nil {
		return nil, err
	}

	var loggerConfig *yamlLoggerConfig = nil
	if args.ConfigFilePath != "" {
		config, err := readConfigFile(args.ConfigFilePath)
		if err != nil {
			return nil, err
		}
		loggerConfig = config.LoggerConfig
	}

	if loggerConfig != nil && loggerConfig.OutputType == "file" {
		return setupFileLogger(level, loggerConfig)
	}

	return setupConsoleLogger(level)
}

// setupFileLogger() configures a zap.Logger for file output using a lumberjack.Logger for log rotation.
func setupFileLogger(level zap.AtomicLevel, loggerConfig *yamlLoggerConfig) (*zap.Logger, error) {
	filename := loggerConfig.Filename
	if filename == "" {
		filename = DefaultLogFile
	}
	maxAge := loggerConfig.MaxAge
	if maxAge == 0 {
		maxAge = 3 // days
	}
	maxBackups := loggerConfig.MaxBackups
	if maxBackups == 0 {
		maxBackups = 10
	}
	rotationalLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    loggerConfig.MaxSize, // megabytes, default 100MB
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
		Compress:   loggerConfig.Compress,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotationalLogger),
		level,
	)
	return zap.New(core), nil
}

// setupConsoleLogger() configures a zap.Logger for console output.
func setupConsoleLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	config := zap.Config{
		Encoding:         "json",
		Level:            level,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			CallerKey:      "caller",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
	}

	return config.Build()
}

func readConfigFile(path string) (*yamlConfig, error) {
	fileData, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config yamlConfig
	if err = yaml.Unmarshal(fileData, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	err = validateAndApplyDefaults(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseConfig resolves the session, mapping and otel settings. Precedence, lowest first: defaults,
// the config file, SCYLLA_MAPPING_* environment variables, cli flags.
func ParseConfig(args *types.CliArgs) (*types.Config, error) {
	config := &yamlConfig{}
	if args.ConfigFilePath != "" {
		var err error
		config, err = readConfigFile(args.ConfigFilePath)
		if err != nil {
			return nil, err
		}
	} else if err := validateAndApplyDefaults(config); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(config.Session); err != nil {
		return nil, err
	}
	if args.Keyspace != "" {
		config.Session.Keyspace = args.Keyspace
	}
	if len(args.Hosts) > 0 {
		config.Session.Hosts = args.Hosts
	}
	if args.Action != "" {
		config.Mapping.SchemaAction = args.Action
	}

	session := toSessionConfig(config.Session)
	if len(session.Hosts) == 0 {
		return nil, fmt.Errorf("no contact points configured, set session.hosts, %sHOSTS or --hosts", envPrefix)
	}
	return &types.Config{
		CliArgs: args,
		Session: session,
		Mapping: toMappingConfig(config.Mapping),
		Otel:    toOtelConfig(config.Otel),
	}, nil
}

// LoadConfig parses args and resolves the complete configuration including the logger.
func LoadConfig(args []string) (*types.Config, error) {
	cliArgs, err := ParseCliArgs(args)
	if err != nil {
		return nil, err
	}
	config, err := ParseConfig(cliArgs)
	if err != nil {
		return nil, err
	}
	logger, err := ParseLoggerConfig(cliArgs)
	if err != nil {
		return nil, err
	}
	config.Logger = logger
	return config, nil
}
