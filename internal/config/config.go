package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Fortnite      FortniteConfig      `mapstructure:"fortnite"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Email         EmailConfig         `mapstructure:"email"`
	History       HistoryConfig       `mapstructure:"history"`
	Search        SearchConfig        `mapstructure:"search"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// FortniteConfig holds upstream catalog API configuration
type FortniteConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`        // seconds, shop fetches
	SearchTimeout        int    `mapstructure:"search_timeout"` // seconds, search fetches
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	RefreshInterval      int    `mapstructure:"refresh_interval"` // minutes between shop refreshes
	MaxWorkers           int    `mapstructure:"max_workers"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// EmailConfig holds the delivery provider configuration
type EmailConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from"`
}

// HistoryConfig bounds local shop-history retention
type HistoryConfig struct {
	MaxDays int `mapstructure:"max_days"`
}

// SearchConfig bounds the search cache
type SearchConfig struct {
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`
	MaxResults      int `mapstructure:"max_results"`
}

// NotificationsConfig bounds the subscribe/unsubscribe endpoints
type NotificationsConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "localhost")

	viper.SetDefault("fortnite.base_url", "https://fortnite-api.com")
	viper.SetDefault("fortnite.timeout", 10)
	viper.SetDefault("fortnite.search_timeout", 3)
	viper.SetDefault("fortnite.max_retries", 3)
	viper.SetDefault("fortnite.max_requests_per_second", 5)
	viper.SetDefault("fortnite.refresh_interval", 15)
	viper.SetDefault("fortnite.max_workers", 4)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "itemshop")
	viper.SetDefault("database.user", "itemshop_user")
	viper.SetDefault("database.password", "itemshop_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "itemshop_consumer")
	viper.SetDefault("redis.min_idle_time", 120)

	viper.SetDefault("email.base_url", "https://api.resend.com")
	viper.SetDefault("email.api_key", "")
	viper.SetDefault("email.from", "Item Shop <updates@fortniteshop.site>")

	viper.SetDefault("history.max_days", 30)

	viper.SetDefault("search.cache_ttl_minutes", 30)
	viper.SetDefault("search.max_results", 25)

	viper.SetDefault("notifications.requests_per_minute", 5)
}
