package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Engine   EngineConfig
	Log      LogConfig
}

// EngineConfig holds itinerary-planning-engine tuning knobs: cache sizing,
// provider rate limits, and deadlines.
type EngineConfig struct {
	GeocodingCacheTTL     time.Duration `mapstructure:"GEOCODING_CACHE_TTL"`
	TransitCacheTTL       time.Duration `mapstructure:"TRANSIT_CACHE_TTL"`
	MaxCacheEntries       int           `mapstructure:"MAX_CACHE_ENTRIES"`
	UseRedisL2            bool          `mapstructure:"USE_REDIS_L2"`
	RequestsPerSecond     float64       `mapstructure:"REQUESTS_PER_SECOND"`
	RequestsPerDay        int           `mapstructure:"REQUESTS_PER_DAY"`
	OptimizationTimeout   time.Duration `mapstructure:"OPTIMIZATION_TIMEOUT"`
	FallbackTimeout       time.Duration `mapstructure:"FALLBACK_TIMEOUT"`
	MapProviderBaseURL    string        `mapstructure:"MAP_PROVIDER_BASE_URL"`
	MapProviderAPIKey     string        `mapstructure:"MAP_PROVIDER_API_KEY"`
	UseRealMapProvider    bool          `mapstructure:"USE_REAL_MAP_PROVIDER"`
}

// LogConfig holds structured-logger settings.
type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"` // "json" (production) or "console" (development)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "tripweaver")
	viper.SetDefault("POSTGRES_PASSWORD", "tripweaver_secret")
	viper.SetDefault("POSTGRES_DB", "tripweaver_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("GEOCODING_CACHE_TTL", "720h") // 30 days; addresses rarely move
	viper.SetDefault("TRANSIT_CACHE_TTL", "5m")
	viper.SetDefault("MAX_CACHE_ENTRIES", 10000)
	viper.SetDefault("USE_REDIS_L2", false)
	viper.SetDefault("REQUESTS_PER_SECOND", 10.0)
	viper.SetDefault("REQUESTS_PER_DAY", 2500)
	viper.SetDefault("OPTIMIZATION_TIMEOUT", "8s")
	viper.SetDefault("FALLBACK_TIMEOUT", "2s")
	viper.SetDefault("MAP_PROVIDER_BASE_URL", "")
	viper.SetDefault("MAP_PROVIDER_API_KEY", "")
	viper.SetDefault("USE_REAL_MAP_PROVIDER", false)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Engine ──────────────────────────────────────────
	cfg.Engine = EngineConfig{
		GeocodingCacheTTL:   viper.GetDuration("GEOCODING_CACHE_TTL"),
		TransitCacheTTL:     viper.GetDuration("TRANSIT_CACHE_TTL"),
		MaxCacheEntries:     viper.GetInt("MAX_CACHE_ENTRIES"),
		UseRedisL2:          viper.GetBool("USE_REDIS_L2"),
		RequestsPerSecond:   viper.GetFloat64("REQUESTS_PER_SECOND"),
		RequestsPerDay:      viper.GetInt("REQUESTS_PER_DAY"),
		OptimizationTimeout: viper.GetDuration("OPTIMIZATION_TIMEOUT"),
		FallbackTimeout:     viper.GetDuration("FALLBACK_TIMEOUT"),
		MapProviderBaseURL:  viper.GetString("MAP_PROVIDER_BASE_URL"),
		MapProviderAPIKey:   viper.GetString("MAP_PROVIDER_API_KEY"),
		UseRealMapProvider:  viper.GetBool("USE_REAL_MAP_PROVIDER"),
	}

	// ── Logging ─────────────────────────────────────────
	cfg.Log = LogConfig{
		Level:  viper.GetString("LOG_LEVEL"),
		Format: viper.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}
