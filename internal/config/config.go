package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Rates       RatesConfig    `mapstructure:"rates"`
	DART        DARTConfig     `mapstructure:"dart"`
	AI          AIConfig       `mapstructure:"ai"`
	News        NewsConfig     `mapstructure:"news"`
	Forecast    ForecastConfig `mapstructure:"forecast"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RatesConfig points at the external rate-series provider that serves
// the daily US/KR 10Y observations.
type RatesConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
	CacheTTL   string `mapstructure:"cache_ttl"`
}

// DARTConfig configures access to the Korean regulator's open filings
// API (opendart.fss.or.kr).
type DARTConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`
	FilingsTTL string `mapstructure:"filings_ttl"`
	StaticTTL  string `mapstructure:"static_ttl"`
}

// AIConfig configures the OpenAI-compatible completion endpoint used
// for commentary and chat. BaseURL may point at any compatible
// provider.
type AIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	Timeout     int    `mapstructure:"timeout"`
	AnalysisTTL string `mapstructure:"analysis_ttl"`
}

type NewsConfig struct {
	USFeedURL string `mapstructure:"us_feed_url"`
	KRFeedURL string `mapstructure:"kr_feed_url"`
	Timeout   int    `mapstructure:"timeout"`
	CacheTTL  string `mapstructure:"cache_ttl"`
}

type ForecastConfig struct {
	FilePath string `mapstructure:"file_path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("dart.api_key", "DART_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind DART_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("ai.api_key", "AI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind AI_API_KEY environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	for name, value := range map[string]string{
		"rates.cache_ttl":  config.Rates.CacheTTL,
		"dart.filings_ttl": config.DART.FilingsTTL,
		"dart.static_ttl":  config.DART.StaticTTL,
		"ai.analysis_ttl":  config.AI.AnalysisTTL,
		"news.cache_ttl":   config.News.CacheTTL,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("rates.service_url", "http://localhost:3001")
	viper.SetDefault("rates.timeout", 30)
	viper.SetDefault("rates.cache_ttl", "30m")

	viper.SetDefault("dart.api_key", "")
	viper.SetDefault("dart.base_url", "https://opendart.fss.or.kr/api")
	viper.SetDefault("dart.timeout", 30)
	viper.SetDefault("dart.filings_ttl", "6h")
	viper.SetDefault("dart.static_ttl", "24h")

	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("ai.model", "qwen/qwen3-32b")
	viper.SetDefault("ai.timeout", 60)
	viper.SetDefault("ai.analysis_ttl", "1h")

	viper.SetDefault("news.us_feed_url", "https://news.google.com/rss/search?q=federal+reserve+interest+rate&hl=en-US&gl=US&ceid=US:en")
	viper.SetDefault("news.kr_feed_url", "https://news.google.com/rss/search?q=%ED%95%9C%EA%B5%AD%EC%9D%80%ED%96%89+%EA%B8%B0%EC%A4%80%EA%B8%88%EB%A6%AC&hl=ko&gl=KR&ceid=KR:ko")
	viper.SetDefault("news.timeout", 15)
	viper.SetDefault("news.cache_ttl", "30m")

	viper.SetDefault("forecast.file_path", "static/data/forecast.json")
}

// CacheTTLOrDefault parses a duration string, falling back when it is
// empty or malformed. Load validates the configured values, so the
// fallback mostly serves zero-value configs in tests.
func CacheTTLOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
