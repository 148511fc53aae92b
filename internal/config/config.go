package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

const (
	defaultAppName         = "MinLedger"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultMySQLPort       = 3306
	defaultMaxOpenConns    = 100
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute

	configFileEnvVar = "CONFIG_FILE"
)

// MySQL holds the MySQL connection settings used when STORE_DRIVER=mysql.
type MySQL struct {
	Host            string        `yaml:"host" env:"MYSQL_HOST"`
	Port            int           `yaml:"port" env:"MYSQL_PORT"`
	User            string        `yaml:"user" env:"MYSQL_USER"`
	Password        string        `yaml:"password" env:"MYSQL_PASSWORD"`
	DBName          string        `yaml:"db_name" env:"MYSQL_DB"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MYSQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MYSQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"MYSQL_CONN_MAX_LIFETIME"`
}

// DSN returns the go-sql-driver DSN for the configured server.
func (m MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		m.User, m.Password, m.Host, m.Port, m.DBName)
}

// Config captures application runtime configuration. Values come from
// built-in defaults, then an optional YAML file named by CONFIG_FILE, then
// environment variables.
type Config struct {
	AppName        string        `yaml:"app_name" env:"APP_NAME"`
	AppEnv         string        `yaml:"app_env" env:"APP_ENV"`
	Port           string        `yaml:"port" env:"PORT"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" env:"LOG_FORMAT"`
	StoreDriver    string        `yaml:"store_driver" env:"STORE_DRIVER"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath     string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	MySQL          MySQL         `yaml:"mysql"`
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL"`
	ShutdownPeriod time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL"`
	RateLimit      int           `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	OTELEndpoint   string        `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
}

// Default returns the configuration used when nothing is overridden: an
// in-memory store on port 8080.
func Default() Config {
	return Config{
		AppName:     defaultAppName,
		AppEnv:      defaultAppEnv,
		Port:        defaultPort,
		LogLevel:    defaultLogLevel,
		LogFormat:   defaultLogFormat,
		StoreDriver: DriverMemory,
		MySQL: MySQL{
			Port:            defaultMySQLPort,
			MaxOpenConns:    defaultMaxOpenConns,
			MaxIdleConns:    defaultMaxIdleConns,
			ConnMaxLifetime: defaultConnMaxLifetime,
		},
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}
}

// Load reads configuration values and validates them.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configFileEnvVar); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the selected store driver has what it needs.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set for the sqlite store")
		}
	case DriverMySQL:
		if c.MySQL.Host == "" || c.MySQL.DBName == "" {
			return errors.New("MYSQL_HOST and MYSQL_DB must be set for the mysql store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ShutdownPeriod <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %s", c.ShutdownPeriod)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %d", c.RateLimit)
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
