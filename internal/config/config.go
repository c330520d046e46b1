package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environments recognised by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

var schemaName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Config is the process configuration assembled from the environment.
type Config struct {
	Host               string `validate:"required"`
	Port               int    `validate:"min=1,max=65535"`
	Env                string `validate:"oneof=development production test"`
	RedisURL           string `validate:"required"`
	RedisNamespace     string `validate:"required"`
	MigrationsDir      string `validate:"required"`
	RateLimitPerMinute int    `validate:"gte=0"`
	Database           Database
	CORS               CORS
}

// Database holds PostgreSQL connection settings.
type Database struct {
	URL            string
	Host           string `validate:"required_without=URL"`
	Port           int    `validate:"min=1,max=65535"`
	Name           string `validate:"required_without=URL"`
	User           string
	Password       string
	Schema         string `validate:"required,max=63"`
	PoolMin        int32  `validate:"gte=0"`
	PoolMax        int32  `validate:"gt=0,gtefield=PoolMin"`
	ConnectTimeout time.Duration
}

// CORS controls the cross-origin headers of the API.
type CORS struct {
	Origin      string `validate:"required"`
	Credentials bool
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment without overriding variables that are already set,
// then builds and validates a Config. Missing dotenv files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Host:               getEnv("HOST", "127.0.0.1"),
		Port:               intVar("PORT", 3000),
		Env:                getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment)),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisNamespace:     getEnv("REDIS_NAMESPACE", "tour-packages"),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		RateLimitPerMinute: intVar("RATE_LIMIT_PER_MINUTE", 100),
		Database: Database{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     intVar("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tour_packages_db"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Schema:   getEnv("DB_SCHEMA", "public"),
			PoolMin:  int32(intVar("DB_POOL_MIN", 2)),
			PoolMax:  int32(intVar("DB_POOL_MAX", 10)),
		},
		CORS: CORS{
			Origin:      getEnv("CORS_ORIGIN", "*"),
			Credentials: os.Getenv("CORS_CREDENTIALS") == "true",
		},
	}

	timeout, err := getDuration("DB_CONNECT_TIMEOUT", 2*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Database.ConnectTimeout = timeout

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the schema identifier.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !schemaName.MatchString(c.Database.Schema) {
		return fmt.Errorf("invalid configuration: invalid database schema name %q", c.Database.Schema)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL assembled from
// the individual DB_* settings.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

// getDuration accepts Go durations ("2s") or a bare number of milliseconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}
