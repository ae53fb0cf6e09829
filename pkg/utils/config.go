package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Booking  BookingConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	Timezone       string
	RequestTimeout time.Duration
	StorageDriver  string // postgres | memory
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	MaxConns       int32
	LockTimeout    time.Duration
	TxMaxRetries   int
	TxRetryBackoff time.Duration
	AutoMigrate    bool
}

type BookingConfig struct {
	ReferenceAttempts    int
	UpcomingDefaultLimit int
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Location resolves the configured timezone, UTC when unset or unknown.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "cinema-ledger")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("STORAGE_DRIVER", "postgres")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_LOCK_TIMEOUT", "2s")
	v.SetDefault("DB_TX_MAX_RETRIES", 3)
	v.SetDefault("DB_TX_RETRY_BACKOFF", "25ms")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("BOOKING_REFERENCE_ATTEMPTS", 10)
	v.SetDefault("UPCOMING_DEFAULT_LIMIT", 10)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "30s")
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	setDefaults(v)

	// .env is optional, plain environment variables are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Port:           v.GetString("PORT"),
			Debug:          v.GetBool("DEBUG"),
			LogPath:        v.GetString("LOG_PATH"),
			Timezone:       v.GetString("TIMEZONE"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			StorageDriver:  v.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			Name:           v.GetString("DB_NAME"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASS"),
			MaxConns:       v.GetInt32("DB_MAX_CONNS"),
			LockTimeout:    v.GetDuration("DB_LOCK_TIMEOUT"),
			TxMaxRetries:   v.GetInt("DB_TX_MAX_RETRIES"),
			TxRetryBackoff: v.GetDuration("DB_TX_RETRY_BACKOFF"),
			AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),
		},
		Booking: BookingConfig{
			ReferenceAttempts:    v.GetInt("BOOKING_REFERENCE_ATTEMPTS"),
			UpcomingDefaultLimit: v.GetInt("UPCOMING_DEFAULT_LIMIT"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("CACHE_TTL"),
		},
	}

	return config, nil
}
