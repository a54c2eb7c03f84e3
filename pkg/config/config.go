package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOCKPRED"

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Upstream struct {
		BaseURL        string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
		UserAgent      string        `yaml:"user_agent"`
		IndexSymbol    string        `yaml:"index_symbol" default:"^N225"`
		RateSymbol     string        `yaml:"rate_symbol" default:"^TNX"`
		ReferenceYears int           `yaml:"reference_years" default:"2"`
		QuoteLookup    bool          `yaml:"quote_lookup" default:"true"`
	} `yaml:"upstream"`
	Model struct {
		ArtifactPath string        `yaml:"artifact_path" default:"model/model.json"`
		ServiceURL   string        `yaml:"service_url"`
		Timeout      time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"model"`
	Cache struct {
		Backend   string        `yaml:"backend" default:"memory"`
		SeriesTTL time.Duration `yaml:"series_ttl" default:"5m"`
		NameTTL   time.Duration `yaml:"name_ttl" default:"24h"`
		Redis     struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stockpred:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"30"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"1"`
	} `yaml:"ratelimit"`
	Archive struct {
		Enabled    bool   `yaml:"enabled"`
		Backend    string `yaml:"backend" default:"kafka"`
		Topic      string `yaml:"topic" default:"price-bars"`
		Table      string `yaml:"table" default:"price_bars"`
		BufferSize int    `yaml:"buffer_size" default:"256"`
		Consume    bool   `yaml:"consume" default:"true"`
	} `yaml:"archive"`
	Logging struct {
		Level        string        `yaml:"level" default:"info"`
		Format       string        `yaml:"format" default:"console"`
		Output       string        `yaml:"output" default:"stdout"`
		CollectTopic string        `yaml:"collect_topic"`
		FlushEvery   time.Duration `yaml:"flush_every" default:"30s"`
		FlushCount   int           `yaml:"flush_count" default:"100"`
	} `yaml:"logging"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"stockpred-archive"`
			StartOffset string        `yaml:"start_offset" default:"earliest"`
			Workers     int           `yaml:"workers" default:"1"`
			BufferSize  int           `yaml:"buffer_size" default:"10"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic    string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockpred"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// envOverrides lists the settings that can be changed from the environment,
// e.g. STOCKPRED_SERVER_PORT. Unset variables leave the file value alone.
type envOverrides struct {
	Environment        string   `envconfig:"ENVIRONMENT"`
	ServerPort         int      `envconfig:"SERVER_PORT"`
	UpstreamBaseURL    string   `envconfig:"UPSTREAM_BASE_URL"`
	ModelArtifactPath  string   `envconfig:"MODEL_ARTIFACT_PATH"`
	ModelServiceURL    string   `envconfig:"MODEL_SERVICE_URL"`
	CacheBackend       string   `envconfig:"CACHE_BACKEND"`
	RedisAddr          string   `envconfig:"REDIS_ADDR"`
	RedisPassword      string   `envconfig:"REDIS_PASSWORD"`
	RateLimitEnabled   *bool    `envconfig:"RATELIMIT_ENABLED"`
	ArchiveEnabled     *bool    `envconfig:"ARCHIVE_ENABLED"`
	ArchiveBackend     string   `envconfig:"ARCHIVE_BACKEND"`
	LogLevel           string   `envconfig:"LOG_LEVEL"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	ClickHouseHost     string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePassword string   `envconfig:"CLICKHOUSE_PASSWORD"`
}

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with STOCKPRED_* environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	c.apply(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) apply(env envOverrides) {
	setString(&c.Environment, env.Environment)
	setString(&c.Upstream.BaseURL, env.UpstreamBaseURL)
	setString(&c.Model.ArtifactPath, env.ModelArtifactPath)
	setString(&c.Model.ServiceURL, env.ModelServiceURL)
	setString(&c.Cache.Backend, env.CacheBackend)
	setString(&c.Cache.Redis.Addr, env.RedisAddr)
	setString(&c.Cache.Redis.Password, env.RedisPassword)
	setString(&c.Archive.Backend, env.ArchiveBackend)
	setString(&c.Logging.Level, env.LogLevel)
	setString(&c.ClickHouse.Host, env.ClickHouseHost)
	setString(&c.ClickHouse.Password, env.ClickHousePassword)
	if env.ServerPort > 0 {
		c.Server.Port = env.ServerPort
	}
	if env.RateLimitEnabled != nil {
		c.RateLimit.Enabled = *env.RateLimitEnabled
	}
	if env.ArchiveEnabled != nil {
		c.Archive.Enabled = *env.ArchiveEnabled
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.ReferenceYears <= 0 {
		return fmt.Errorf("upstream.reference_years must be positive")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.SeriesTTL < 0 || c.Cache.NameTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("ratelimit needs capacity >= 1 and refill_per_sec > 0")
	}
	if c.Archive.Enabled {
		switch c.Archive.Backend {
		case "kafka":
			if len(c.Kafka.Brokers) == 0 {
				return fmt.Errorf("kafka.brokers cannot be empty for the kafka archive")
			}
			if c.Archive.Topic == "" {
				return fmt.Errorf("archive.topic is required for the kafka archive")
			}
		case "clickhouse":
			if c.ClickHouse.Host == "" {
				return fmt.Errorf("clickhouse.host is required for the clickhouse archive")
			}
		default:
			return fmt.Errorf("archive.backend must be 'kafka' or 'clickhouse', got '%s'", c.Archive.Backend)
		}
	}
	if c.Logging.CollectTopic != "" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when logging.collect_topic is set")
	}
	return nil
}

// NeedsKafka reports whether any component talks to Kafka.
func (c *Config) NeedsKafka() bool {
	return (c.Archive.Enabled && c.Archive.Backend == "kafka") || c.Logging.CollectTopic != ""
}

// NeedsClickHouse reports whether bars land in ClickHouse, directly or via the consumer.
func (c *Config) NeedsClickHouse() bool {
	if !c.Archive.Enabled {
		return false
	}
	return c.Archive.Backend == "clickhouse" || c.Archive.Consume
}
