// Package config loads the service settings from an env file and the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	AppHost  string
	AppPort  string
	LogLevel string

	StoreDriver string

	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresMaxOpenConns int
	PostgresMaxIdleConns int
	PostgresQueryTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecretKey string
	JWTExp       time.Duration
}

// Load reads the env file at path if it exists, then the process environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(path)

	v := viper.New()
	v.SetDefault("APP_HOST", "localhost")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "user")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_DB", "ledger")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", 16)
	v.SetDefault("POSTGRES_MAX_IDLE_CONNS", 8)
	v.SetDefault("POSTGRES_QUERY_TIMEOUT", "5s")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "ledger.transactions")
	v.SetDefault("JWT_SECRET_KEY", "my_super_secret_key")
	v.SetDefault("JWT_EXP", "24h")
	v.AutomaticEnv()

	cfg := &Config{
		AppHost:          v.GetString("APP_HOST"),
		AppPort:          v.GetString("APP_PORT"),
		LogLevel:         v.GetString("APP_LOG_LEVEL"),
		StoreDriver:      strings.ToLower(v.GetString("STORE_DRIVER")),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		LoginRateLimit:   v.GetString("LOGIN_RATE_LIMIT"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:       v.GetString("KAFKA_TOPIC"),
		JWTSecretKey:     v.GetString("JWT_SECRET_KEY"),
	}

	var err error
	if cfg.PostgresPort, err = getInt(v, "POSTGRES_PORT"); err != nil {
		return nil, err
	}
	if cfg.PostgresMaxOpenConns, err = getInt(v, "POSTGRES_MAX_OPEN_CONNS"); err != nil {
		return nil, err
	}
	if cfg.PostgresMaxIdleConns, err = getInt(v, "POSTGRES_MAX_IDLE_CONNS"); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt(v, "REDIS_DB"); err != nil {
		return nil, err
	}
	if cfg.PostgresQueryTimeout, err = getDuration(v, "POSTGRES_QUERY_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.JWTExp, err = getDuration(v, "JWT_EXP"); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, cfg.StoreDriver)
	}

	return cfg, nil
}

// PostgresDSN returns the connection URL for the pgx driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

// viper's GetInt and GetDuration swallow parse errors and return zero.
func getInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer: %w", key, err)
	}
	return n, nil
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
