package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Server.Port != 5000 {
		t.Fatalf("unexpected port %d", c.Server.Port)
	}
	if c.Analysis.Window != 30 || c.Analysis.MinObservations != 20 {
		t.Fatalf("unexpected analysis defaults %+v", c.Analysis)
	}
	if c.Forecast.Engine != "heuristic" || !c.Forecast.Fallback {
		t.Fatalf("unexpected forecast defaults %+v", c.Forecast)
	}
	if c.Cache.SeriesTTL != 5*time.Minute {
		t.Fatalf("unexpected series ttl %v", c.Cache.SeriesTTL)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestParseKeepsExplicitZeroValues(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 8081
  rate_limit:
    enabled: false
metrics:
  enabled: false
analysis:
  window: 60
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 8081 || c.Server.RateLimit.Enabled || c.Metrics.Enabled {
		t.Fatalf("explicit values lost: %+v", c.Server)
	}
	if c.Analysis.Window != 60 || c.Analysis.MinObservations != 20 {
		t.Fatalf("unexpected analysis %+v", c.Analysis)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad engine", func(c *Config) { c.Forecast.Engine = "arima" }},
		{"timegpt without key", func(c *Config) { c.Forecast.Engine = "timegpt" }},
		{"window below threshold", func(c *Config) { c.Analysis.Window = 10 }},
		{"bad snapshot backend", func(c *Config) { c.Snapshots.Backend = "s3" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"scheduler without symbols", func(c *Config) { c.Scheduler.Enabled = true }},
	}
	for _, tc := range cases {
		c := Default()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("PRICECAST_PORT", "9000")
	t.Setenv("PRICECAST_SYMBOLS", "AAPL,MSFT")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "test" || c.Server.Port != 9000 {
		t.Fatalf("unexpected config %+v", c)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
	if len(c.Scheduler.Symbols) != 2 {
		t.Fatalf("unexpected symbols %v", c.Scheduler.Symbols)
	}
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if c.Snapshots.Backend != "csv" || len(c.Scheduler.Symbols) != 5 {
		t.Fatalf("unexpected shipped config %+v", c.Scheduler)
	}
}
