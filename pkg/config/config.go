package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Series   SeriesConfig
	Sweep    SweepConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SeriesConfig tunes recurring-series extension.
type SeriesConfig struct {
	Location             *time.Location
	MaxHorizonMonths     int
	DefaultHorizonMonths int
	LockTTL              time.Duration
}

// SweepConfig controls the periodic extension of every active series.
type SweepConfig struct {
	Enabled       bool
	Interval      time.Duration
	Workers       int
	Retries       int
	HorizonMonths int
}

// KafkaConfig points the series event publisher at a broker. Publishing is off without brokers.
type KafkaConfig struct {
	Brokers     []string
	SeriesTopic string
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled       bool
	Endpoint      string
	SamplingRatio float64
	ServiceName   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	loc, err := time.LoadLocation(v.GetString("SERIES_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("load SERIES_TIMEZONE: %w", err)
	}
	maxHorizon := positiveOr(v.GetInt("SERIES_MAX_HORIZON_MONTHS"), 12)
	defaultHorizon := positiveOr(v.GetInt("SERIES_DEFAULT_HORIZON_MONTHS"), 1)
	if defaultHorizon > maxHorizon {
		defaultHorizon = maxHorizon
	}
	cfg.Series = SeriesConfig{
		Location:             loc,
		MaxHorizonMonths:     maxHorizon,
		DefaultHorizonMonths: defaultHorizon,
		LockTTL:              parseDuration(v.GetString("SERIES_LOCK_TTL"), 2*time.Minute),
	}

	cfg.Sweep = SweepConfig{
		Enabled:       v.GetBool("ENABLE_SERIES_SWEEP"),
		Interval:      parseDuration(v.GetString("SERIES_SWEEP_INTERVAL"), 24*time.Hour),
		Workers:       positiveOr(v.GetInt("SERIES_SWEEP_WORKERS"), 1),
		Retries:       v.GetInt("SERIES_SWEEP_RETRIES"),
		HorizonMonths: defaultHorizon,
	}

	cfg.Kafka = KafkaConfig{
		Brokers:     splitAndTrim(v.GetString("KAFKA_BROKERS")),
		SeriesTopic: v.GetString("KAFKA_SERIES_TOPIC"),
	}

	cfg.Tracing = TracingConfig{
		Enabled:       v.GetBool("OTEL_ENABLED"),
		Endpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SamplingRatio: v.GetFloat64("OTEL_SAMPLING_RATIO"),
		ServiceName:   v.GetString("OTEL_SERVICE_NAME"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schedule")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SERIES_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("SERIES_MAX_HORIZON_MONTHS", 12)
	v.SetDefault("SERIES_DEFAULT_HORIZON_MONTHS", 1)
	v.SetDefault("SERIES_LOCK_TTL", "2m")

	v.SetDefault("ENABLE_SERIES_SWEEP", false)
	v.SetDefault("SERIES_SWEEP_INTERVAL", "24h")
	v.SetDefault("SERIES_SWEEP_WORKERS", 2)
	v.SetDefault("SERIES_SWEEP_RETRIES", 2)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_SERIES_TOPIC", "class-series.extended")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)
	v.SetDefault("OTEL_SERVICE_NAME", "schedule-api")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
