package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kapu/youtube-channel-analyzer/internal/analytics"
	"github.com/kapu/youtube-channel-analyzer/internal/constants"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	YouTube  YouTubeConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Run      RunConfig
	Ranking  RankingConfig
	Logging  LoggingConfig
}

type YouTubeConfig struct {
	APIKeys          []string
	OAuthCredentials string
	OAuthToken       string
}

// APIKey returns the first configured key, or "" when none is set.
func (c YouTubeConfig) APIKey() string {
	if len(c.APIKeys) == 0 {
		return ""
	}
	return c.APIKeys[0]
}

// UsesOAuth reports whether the installed-app OAuth flow is configured.
func (c YouTubeConfig) UsesOAuth() bool {
	return c.OAuthCredentials != ""
}

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RunConfig struct {
	ChannelsFile     string
	MaxVideosToFetch int
	FetchFromAPI     bool
	AnalyzeFromDB    bool
	FetchConcurrency int
}

// FetchesAllVideos reports whether the playlist walk is unbounded.
func (c RunConfig) FetchesAllVideos() bool {
	return c.MaxVideosToFetch <= 0
}

type RankingConfig struct {
	AscendingMetrics []string
}

type LoggingConfig struct {
	Level  string
	File   string
	Format string
}

// Load reads the environment (and .env when present) and validates the result.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("config validation failed", err)
	}
	return cfg, nil
}

// Read reads the environment without validating, so callers can apply
// command-line overrides first.
func Read() *Config {
	_ = godotenv.Load()

	return &Config{
		YouTube: YouTubeConfig{
			APIKeys:          collectAPIKeys("YOUTUBE_API_KEY"),
			OAuthCredentials: getEnv("YOUTUBE_OAUTH_CREDENTIALS", ""),
			OAuthToken:       getEnv("YOUTUBE_OAUTH_TOKEN", "token.json"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			SQLitePath: getEnv("DATABASE_NAME", constants.DatabaseConfig.DefaultSQLiteFile),
			Postgres: PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", "localhost"),
				Port:     getEnvInt("POSTGRES_PORT", 5432),
				User:     getEnv("POSTGRES_USER", "postgres"),
				Password: getEnv("POSTGRES_PASSWORD", ""),
				Database: getEnv("POSTGRES_DB", "youtube_analytics"),
			},
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Run: RunConfig{
			ChannelsFile:     getEnv("CHANNELS_FILE", "channels_default.txt"),
			MaxVideosToFetch: getEnvInt("MAX_VIDEOS_TO_FETCH", constants.FetchConfig.DefaultMaxVideos),
			FetchFromAPI:     getEnvBool("FETCH_FROM_API", true),
			AnalyzeFromDB:    getEnvBool("ANALYZE_FROM_DB", true),
			FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", constants.FetchConfig.DefaultConcurrency),
		},
		Ranking: RankingConfig{
			AscendingMetrics: util.SplitCommaSeparated(getEnvOrEmpty("RANK_ASCENDING_METRICS", "min_duration_sec")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			File:   getEnv("LOG_FILE", ""),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Run.FetchFromAPI && c.YouTube.APIKey() == "" && !c.YouTube.UsesOAuth() {
		return errors.NewValidationError("YOUTUBE_API_KEY or YOUTUBE_OAUTH_CREDENTIALS is required when FETCH_FROM_API is enabled", "YOUTUBE_API_KEY", "")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.NewValidationError("DATABASE_NAME is required", "DATABASE_NAME", c.Database.SQLitePath)
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" {
			return errors.NewValidationError("POSTGRES_HOST is required", "POSTGRES_HOST", "")
		}
		if c.Database.Postgres.Database == "" {
			return errors.NewValidationError("POSTGRES_DB is required", "POSTGRES_DB", "")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver), "DB_DRIVER", c.Database.Driver)
	}

	if c.Run.FetchConcurrency < 1 {
		return errors.NewValidationError("FETCH_CONCURRENCY must be at least 1", "FETCH_CONCURRENCY", c.Run.FetchConcurrency)
	}

	for _, metric := range c.Ranking.AscendingMetrics {
		if !analytics.IsRankedMetric(metric) {
			return errors.NewValidationError(fmt.Sprintf("unknown ranked metric %q", metric), "RANK_ASCENDING_METRICS", metric)
		}
	}

	return nil
}

// RankedMetrics builds the ranking table with the configured ascending metrics.
func (c *Config) RankedMetrics() ([]analytics.RankedMetric, error) {
	return analytics.RankedMetricsWithAscending(c.Ranking.AscendingMetrics)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrEmpty keeps an explicitly empty value; only an unset key gets the default.
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// collectAPIKeys gathers KEY and KEY_1..KEY_5, skipping template placeholders and duplicates.
func collectAPIKeys(prefix string) []string {
	keys := make([]string, 0)
	candidates := []string{prefix}
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, fmt.Sprintf("%s_%d", prefix, i))
	}

	for _, envKey := range candidates {
		value := strings.TrimSpace(os.Getenv(envKey))
		if value == "" || strings.Contains(value, "YOUR_") || util.Contains(keys, value) {
			continue
		}
		keys = append(keys, value)
	}
	return keys
}
