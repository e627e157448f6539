package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const (
	configName      = ".xrbt"
	configType      = "yaml"
	envPrefix       = "XRBT"
	envKeySeparator = "_"
)

const (
	DefaultLogLevel        = "INFO"
	DefaultLogEncoder      = "plain"
	DefaultMetricsExporter = "none"
	DefaultMetricsAddr     = ":9464"
	DefaultMetricsInterval = 10 * time.Second
	DefaultBenchTrees      = 8
	DefaultBenchSize       = 100_000
	DefaultBenchWorkers    = 4
)

var ErrInvalidConfig = errors.New("[config] invalid config")

// Config is the configuration of the xrbt command. Field tags use
// mapstructure for viper unmarshalling.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Bench   BenchConfig   `mapstructure:"bench"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
	// File tees the logs into this file when set.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Exporter string        `mapstructure:"exporter"`
	Addr     string        `mapstructure:"addr"`
	Interval time.Duration `mapstructure:"interval"`
}

type BenchConfig struct {
	Trees   int `mapstructure:"trees"`
	Size    int `mapstructure:"size"`
	Workers int `mapstructure:"workers"`
}

func (cfg *Config) Validate() error {
	if _, err := observability.ParseExporterKind(cfg.Metrics.Exporter); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if !xlog.IsLogLevel(cfg.Log.Level) {
		return infra.WrapErrorStackWithMessage(ErrInvalidConfig, "log level "+cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Encoder) {
	case "plain", "json":
	default:
		return infra.WrapErrorStackWithMessage(ErrInvalidConfig, "log encoder "+cfg.Log.Encoder)
	}
	if cfg.Bench.Trees <= 0 || cfg.Bench.Size <= 0 || cfg.Bench.Workers <= 0 {
		return infra.WrapErrorStackWithMessage(ErrInvalidConfig,
			fmt.Sprintf("bench trees %d, size %d, workers %d", cfg.Bench.Trees, cfg.Bench.Size, cfg.Bench.Workers))
	}
	return nil
}

// LoggerOptions translates the log section into xlog options.
func (cfg *Config) LoggerOptions() []xlog.XLoggerOption {
	enc := xlog.PlainText
	if strings.EqualFold(cfg.Log.Encoder, "json") {
		enc = xlog.JSON
	}
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Log.Level)),
		xlog.WithXLoggerEncoder(enc),
	}
	if len(cfg.Log.File) > 0 {
		dir, name := filepath.Split(cfg.Log.File)
		opts = append(opts,
			xlog.WithXLoggerStdOutWriter(),
			xlog.WithXLoggerFileCore(&xlog.FileCoreConfig{
				FilePath: filepath.Clean(dir),
				Filename: name,
			}),
		)
	}
	return opts
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.encoder", DefaultLogEncoder)
	viperCfg.SetDefault("log.file", "")
	viperCfg.SetDefault("metrics.exporter", DefaultMetricsExporter)
	viperCfg.SetDefault("metrics.addr", DefaultMetricsAddr)
	viperCfg.SetDefault("metrics.interval", DefaultMetricsInterval)
	viperCfg.SetDefault("bench.trees", DefaultBenchTrees)
	viperCfg.SetDefault("bench.size", DefaultBenchSize)
	viperCfg.SetDefault("bench.workers", DefaultBenchWorkers)
}

// Load reads the configuration from defaults, the config file, the
// XRBT_* env vars and the flags, the latter taking precedence.
// flags maps a config key like "bench.trees" to the flag name; only
// the flags changed on the command line override the other sources.
// A missing config file is not an error.
func Load(configPath string, fs *pflag.FlagSet, flags map[string]string) (*Config, error) {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, infra.WrapErrorStackWithMessage(err, "read config")
		}
	}

	if fs != nil {
		for key, name := range flags {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := viperCfg.BindPFlag(key, f); err != nil {
				return nil, infra.WrapErrorStackWithMessage(err, "bind flag "+name)
			}
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
