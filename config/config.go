package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Feed source names accepted in feed.source.
const (
	SourceBinance = "binance"
	SourceRedis   = "redis"
	SourceKafka   = "kafka"
)

// Wire schemas accepted in feed.schema.
const (
	SchemaBinance = "binance"
	SchemaGeneric = "generic"
)

type Config struct {
	Feed      FeedConfig      `mapstructure:"feed"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Render    RenderConfig    `mapstructure:"render"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

type FeedConfig struct {
	Source         string        `mapstructure:"source"` // binance, redis or kafka
	Schema         string        `mapstructure:"schema"` // empty picks the source default
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Backoff        BackoffConfig `mapstructure:"backoff"`
}

type BackoffConfig struct {
	Initial    time.Duration `mapstructure:"initial"`
	Max        time.Duration `mapstructure:"max"`
	Multiplier float64       `mapstructure:"multiplier"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Seed    bool          `mapstructure:"seed"` // seed the table from the 24h ticker endpoint
}

type WSConfig struct {
	URL     string   `mapstructure:"url"`
	Streams []string `mapstructure:"streams"`
}

type RedisConfig struct {
	Addr     string   `mapstructure:"addr"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
	Channels []string `mapstructure:"channels"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type RenderConfig struct {
	Tick          time.Duration `mapstructure:"tick"`
	ChartInterval string        `mapstructure:"chart_interval"`
	ChartCandles  int           `mapstructure:"chart_candles"`
}

type WatchlistConfig struct {
	Symbols []string `mapstructure:"symbols"`
	Refresh string   `mapstructure:"refresh"` // cron spec, e.g. "@midnight"
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
	Console     bool   `mapstructure:"console"`     // also log to stdout (off while the dashboard owns the terminal)
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
// A missing config file is not an error; defaults and env still apply.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	for _, p := range searchPaths() {
		v.AddConfigPath(p)
	}

	// Support environment variables with dot notation (e.g., FEED_SOURCE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.source", SourceBinance)
	v.SetDefault("feed.schema", "")
	v.SetDefault("feed.connect_timeout", 10*time.Second)
	v.SetDefault("feed.backoff.initial", time.Second)
	v.SetDefault("feed.backoff.max", 30*time.Second)
	v.SetDefault("feed.backoff.multiplier", 2.0)

	v.SetDefault("binance.ws.url", "wss://fstream.binance.com/ws")
	v.SetDefault("binance.ws.streams", []string{"!ticker@arr"})
	v.SetDefault("binance.rest.base_url", "https://fapi.binance.com")
	v.SetDefault("binance.rest.timeout", 10*time.Second)
	v.SetDefault("binance.rest.seed", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channels", []string{"tickers"})

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "tickers")
	v.SetDefault("kafka.group_id", "tickerdash")

	v.SetDefault("render.tick", 250*time.Millisecond)
	v.SetDefault("render.chart_interval", "1h")
	v.SetDefault("render.chart_candles", 48)

	v.SetDefault("watchlist.refresh", "@midnight")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "logs/tickerdash.log")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.console", false)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
}

func searchPaths() []string {
	paths := []string{"./config", "."}
	if ex, err := os.Executable(); err == nil && !strings.Contains(ex, "go-build") {
		paths = append(paths, filepath.Join(filepath.Dir(ex), "../config"))
	}
	return paths
}

// Validate checks the fields the engine cannot run without.
func (c *Config) Validate() error {
	switch c.Feed.Source {
	case SourceBinance:
		if c.Binance.WS.URL == "" {
			return errors.New("binance.ws.url is required")
		}
	case SourceRedis:
		if c.Redis.Addr == "" || len(c.Redis.Channels) == 0 {
			return errors.New("redis.addr and redis.channels are required")
		}
	case SourceKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return errors.New("kafka.brokers and kafka.topic are required")
		}
	default:
		return fmt.Errorf("unknown feed.source %q", c.Feed.Source)
	}

	switch c.Feed.Schema {
	case "", SchemaBinance, SchemaGeneric:
	default:
		return fmt.Errorf("unknown feed.schema %q", c.Feed.Schema)
	}

	if c.Render.Tick <= 0 {
		return errors.New("render.tick must be positive")
	}
	if c.Feed.Backoff.Initial <= 0 || c.Feed.Backoff.Max < c.Feed.Backoff.Initial {
		return fmt.Errorf("invalid feed.backoff: initial=%s max=%s",
			c.Feed.Backoff.Initial, c.Feed.Backoff.Max)
	}
	return nil
}

// WireSchema returns the configured schema or the default for the source.
func (f FeedConfig) WireSchema() string {
	if f.Schema != "" {
		return f.Schema
	}
	if f.Source == SourceBinance {
		return SchemaBinance
	}
	return SchemaGeneric
}
