package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PriceCast/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"5000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		StaticDir       string        `yaml:"static_dir"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
		RateLimit       struct {
			Enabled bool    `yaml:"enabled" default:"true"`
			RPS     float64 `yaml:"rps" default:"5"`
			Burst   int     `yaml:"burst" default:"10"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis struct {
		Window           int           `yaml:"window" default:"30"`
		HistoryTail      int           `yaml:"history_tail" default:"30"`
		MinObservations  int           `yaml:"min_observations" default:"20"`
		DefaultPeriod    string        `yaml:"default_period" default:"6mo"`
		BatchConcurrency int           `yaml:"batch_concurrency" default:"4"`
		Timeout          time.Duration `yaml:"timeout" default:"20s"`
	} `yaml:"analysis"`
	Forecast struct {
		Engine   string `yaml:"engine" default:"heuristic"`
		Fallback bool   `yaml:"fallback" default:"true"`
	} `yaml:"forecast"`
	TimeGPT struct {
		BaseURL         string        `yaml:"base_url" default:"https://api.nixtla.io"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout" default:"30s"`
		MaxObservations int           `yaml:"max_observations" default:"90"`
		Attempts        int           `yaml:"attempts" default:"3"`
	} `yaml:"timegpt"`
	Yahoo struct {
		BaseURL        string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0"`
		Timeout        time.Duration `yaml:"timeout" default:"15s"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"2"`
		Burst          int           `yaml:"burst" default:"4"`
		MaxRetryTime   time.Duration `yaml:"max_retry_time" default:"20s"`
	} `yaml:"yahoo"`
	Cache struct {
		Backend   string        `yaml:"backend" default:"memory"`
		SeriesTTL time.Duration `yaml:"series_ttl" default:"5m"`
		InfoTTL   time.Duration `yaml:"info_ttl" default:"24h"`
	} `yaml:"cache"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Snapshots struct {
		Backend string `yaml:"backend" default:"csv"`
		Dir     string `yaml:"dir" default:"data"`
	} `yaml:"snapshots"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"pricecast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"pricecast.analysis"`
		LogsTopic    string   `yaml:"logs_topic" default:"pricecast.logs"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Scheduler struct {
		Enabled     bool     `yaml:"enabled"`
		Cron        string   `yaml:"cron" default:"0 18 * * 1-5"`
		Symbols     []string `yaml:"symbols"`
		Period      string   `yaml:"period" default:"1y"`
		Concurrency int      `yaml:"concurrency" default:"4"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML on top of the default tags, so explicit zero values in the file win.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Default returns a configuration built from the default tags only.
func Default() *Config {
	c, _ := Parse(nil)
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PRICECAST_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PRICECAST_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("PRICECAST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PRICECAST_FORECAST_ENGINE"); v != "" {
		c.Forecast.Engine = v
	}
	if v := os.Getenv("PRICECAST_SNAPSHOT_DIR"); v != "" {
		c.Snapshots.Dir = v
	}
	if v := os.Getenv("PRICECAST_SYMBOLS"); v != "" {
		c.Scheduler.Symbols = util.SplitList(v)
	}
	if v := os.Getenv("NIXTLA_API_KEY"); v != "" {
		c.TimeGPT.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Analysis.MinObservations < 2 {
		return fmt.Errorf("analysis.min_observations must be at least 2, got %d", c.Analysis.MinObservations)
	}
	if c.Analysis.Window < c.Analysis.MinObservations {
		return fmt.Errorf("analysis.window (%d) must be >= analysis.min_observations (%d)",
			c.Analysis.Window, c.Analysis.MinObservations)
	}
	if c.Analysis.BatchConcurrency <= 0 {
		return fmt.Errorf("analysis.batch_concurrency must be positive")
	}
	switch c.Forecast.Engine {
	case "heuristic":
	case "timegpt":
		if c.TimeGPT.APIKey == "" {
			return fmt.Errorf("timegpt.api_key is required when forecast.engine is 'timegpt'")
		}
	default:
		return fmt.Errorf("forecast.engine must be 'heuristic' or 'timegpt', got '%s'", c.Forecast.Engine)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered", "none":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis', 'layered' or 'none', got '%s'", c.Cache.Backend)
	}
	switch c.Snapshots.Backend {
	case "csv", "clickhouse", "none":
	default:
		return fmt.Errorf("snapshots.backend must be 'csv', 'clickhouse' or 'none', got '%s'", c.Snapshots.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Scheduler.Enabled {
		if len(c.Scheduler.Symbols) == 0 {
			return fmt.Errorf("scheduler.symbols cannot be empty when the scheduler is enabled")
		}
		if c.Snapshots.Backend == "none" {
			return fmt.Errorf("scheduler requires a snapshots backend")
		}
	}
	return nil
}
