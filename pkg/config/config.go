package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"FinCast/pkg/logger"
)

const (
	PriceSourceSynthetic  = "synthetic"
	PriceSourceFinnhub    = "finnhub"
	PriceSourceClickHouse = "clickhouse"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		AllowedOrigins  []string      `yaml:"allowed_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Prediction struct {
		DefaultDays    int           `yaml:"default_days" default:"10"`
		MinDays        int           `yaml:"min_days" default:"7"`
		MaxDays        int           `yaml:"max_days" default:"14"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"20s"`
		PriceSource    string        `yaml:"price_source" default:"synthetic"`
		Symbols        []string      `yaml:"symbols" default:"[\"AAPL\",\"GOOGL\",\"MSFT\",\"TSLA\",\"AMZN\",\"META\",\"NVDA\",\"AMD\",\"RELIANCE\",\"TCS\",\"INFY\",\"HDFCBANK\",\"SBIN\",\"NIFTY\",\"SENSEX\"]"`

		// SyntheticFallback serves the random walk when the live source fails.
		SyntheticFallback bool  `yaml:"synthetic_fallback" default:"true"`
		SyntheticSeed     int64 `yaml:"synthetic_seed"`
	} `yaml:"prediction"`
	RateLimit struct {
		Enabled           bool    `yaml:"enabled" default:"true"`
		RequestsPerMinute float64 `yaml:"requests_per_minute" default:"30"`
		Burst             int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	Cache struct {
		PriceTTL time.Duration `yaml:"price_ttl" default:"60s"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Finnhub struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		Timeout           time.Duration `yaml:"timeout" default:"8s"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"1"`
		MaxRetries        uint64        `yaml:"max_retries" default:"3"`
	} `yaml:"finnhub"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"fincast"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		Table        string        `yaml:"table" default:"daily_closes"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Analytics struct {
		SentimentURL string        `yaml:"sentiment_url"`
		NarrativeURL string        `yaml:"narrative_url"`
		Timeout      time.Duration `yaml:"timeout" default:"12s"`
		MaxRetries   uint64        `yaml:"max_retries" default:"2"`
	} `yaml:"analytics"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		ReportsTopic  string   `yaml:"reports_topic" default:"fincast.reports"`
		RequestsTopic string   `yaml:"requests_topic" default:"fincast.analyze-requests"`
		DigestTopic   string   `yaml:"digest_topic" default:"fincast.log-digest"`
		Compression   string   `yaml:"compression" default:"gzip"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"200ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"fincast-analyzer"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"fincast.analyze-requests.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Scheduler struct {
		Enabled   bool     `yaml:"enabled"`
		Spec      string   `yaml:"spec" default:"0 */30 * * * *"`
		Watchlist []string `yaml:"watchlist" default:"[\"AAPL\",\"MSFT\",\"NVDA\"]"`
		Days      int      `yaml:"days" default:"14"`
	} `yaml:"scheduler"`
}

// Load reads a YAML file on top of the struct defaults. An empty path yields
// the defaults alone.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then applies
// environment overrides and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if path == "" {
		return &c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		c.Prediction.PriceSource = strings.ToLower(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("SENTIMENT_SERVICE_URL"); v != "" {
		c.Analytics.SentimentURL = v
	}
	if v := os.Getenv("NARRATIVE_SERVICE_URL"); v != "" {
		c.Analytics.NarrativeURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production", "test":
	case "":
		return errors.New("environment is required")
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	p := c.Prediction
	if p.MinDays < 7 || p.MaxDays > 14 || p.MinDays > p.DefaultDays || p.DefaultDays > p.MaxDays {
		return fmt.Errorf("prediction days must satisfy 7 <= min(%d) <= default(%d) <= max(%d) <= 14",
			p.MinDays, p.DefaultDays, p.MaxDays)
	}
	switch p.PriceSource {
	case PriceSourceSynthetic:
	case PriceSourceFinnhub:
		if c.Finnhub.APIKey == "" {
			return errors.New("finnhub.api_key is required when price_source is finnhub")
		}
	case PriceSourceClickHouse:
		if !c.ClickHouse.Enabled {
			return errors.New("clickhouse.enabled must be true when price_source is clickhouse")
		}
	default:
		return fmt.Errorf("prediction.price_source must be one of synthetic, finnhub, clickhouse; got %q", p.PriceSource)
	}
	if len(p.Symbols) == 0 {
		return errors.New("prediction.symbols cannot be empty")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return errors.New("kafka.consumer requires kafka.enabled")
	}

	if c.Scheduler.Enabled {
		if _, err := cron.NewParser(CronParseOptions).Parse(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler.spec: %w", err)
		}
		if len(c.Scheduler.Watchlist) == 0 {
			return errors.New("scheduler.watchlist cannot be empty")
		}
	}
	return nil
}

// CronParseOptions accepts the six-field form with seconds as well as descriptors.
const CronParseOptions = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
