package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Search   SearchConfig   `koanf:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string     `koanf:"host"`
	Port    int        `koanf:"port"`
	Mode    string     `koanf:"mode"`
	Timeout string     `koanf:"timeout"`
	CORS    CORSConfig `koanf:"cors"`
	// TrustRequestID reuses a well-formed upstream X-Request-ID header.
	TrustRequestID bool `koanf:"trust_request_id"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
//
// Driver picks the store; Engine picks the query layer that runs searches on
// it. Both engines share one connection pool.
type DatabaseConfig struct {
	Driver       string         `koanf:"driver"`
	Engine       string         `koanf:"engine"`
	DebugQueries bool           `koanf:"debug_queries"`
	SeedFile     string         `koanf:"seed_file"`
	SQLite       SQLiteConfig   `koanf:"sqlite"`
	Postgres     PostgresConfig `koanf:"postgres"`
	MySQL        MySQLConfig    `koanf:"mysql"`
	Pool         PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	Charset  string `koanf:"charset"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// MetricsConfig holds prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// SearchConfig holds paging defaults for the search endpoints.
type SearchConfig struct {
	DefaultPageSize int    `koanf:"default_page_size"`
	MaxPageSize     int    `koanf:"max_page_size"`
	DefaultStrategy string `koanf:"default_strategy"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__DATABASE__POOL__MAX_IDLE_CONNS=20 overrides database.pool.max_idle_conns.
//
// Before the environment is read, variables from envFiles (default ".env") are
// loaded into the process environment. Missing files are skipped and variables
// already set in the environment win.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values. It also
// normalizes whitespace and fills defaults for optional fields.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}

	if c.Metrics.Enabled {
		path := strings.TrimSpace(c.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("invalid metrics.path %q: must start with '/'", c.Metrics.Path)
		}
		c.Metrics.Path = path
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Whitespace-only durations mean unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)

	if err := validateOptionalDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}
	if ma := c.Server.CORS.MaxAge; ma != "" {
		d, err := time.ParseDuration(ma)
		if err != nil {
			return fmt.Errorf("invalid server.cors.max_age %q: must be a valid duration (e.g. \"24h\", \"3600s\"): %w", ma, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.cors.max_age %q: must be greater than 0", ma)
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	db := &c.Database

	switch db.Driver {
	case "sqlite":
		sqlitePath := strings.TrimSpace(db.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		db.SQLite.Path = sqlitePath
	case "postgres":
		if err := c.validatePostgres(); err != nil {
			return err
		}
	case "mysql":
		if err := validateMySQL(&db.MySQL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q, %q", db.Driver, "sqlite", "postgres", "mysql")
	}

	engine := strings.ToLower(strings.TrimSpace(db.Engine))
	switch engine {
	case "":
		db.Engine = "gorm"
	case "gorm", "bun":
		db.Engine = engine
	default:
		return fmt.Errorf("invalid database.engine %q: must be one of %q, %q", db.Engine, "gorm", "bun")
	}

	db.SeedFile = strings.TrimSpace(db.SeedFile)
	db.Pool.ConnMaxLifetime = strings.TrimSpace(db.Pool.ConnMaxLifetime)
	return validateOptionalDuration("database.pool.conn_max_lifetime", db.Pool.ConnMaxLifetime)
}

func (c *Config) validatePostgres() error {
	pg := &c.Database.Postgres

	host := strings.TrimSpace(pg.Host)
	if host == "" {
		return fmt.Errorf("database.postgres.host is required when driver is postgres")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}
	user := strings.TrimSpace(pg.User)
	if user == "" {
		return fmt.Errorf("database.postgres.user is required when driver is postgres")
	}
	dbName := strings.TrimSpace(pg.DBName)
	if dbName == "" {
		return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
	}

	sslMode := strings.TrimSpace(pg.SSLMode)
	switch sslMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
	}
	if c.Server.Mode == gin.ReleaseMode {
		switch sslMode {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
		}
	}

	pg.Host = host
	pg.User = user
	pg.DBName = dbName
	pg.SSLMode = sslMode
	return nil
}

func validateMySQL(my *MySQLConfig) error {
	host := strings.TrimSpace(my.Host)
	if host == "" {
		return fmt.Errorf("database.mysql.host is required when driver is mysql")
	}
	if my.Port < 1 || my.Port > 65535 {
		return fmt.Errorf("invalid database.mysql.port %d: must be between 1 and 65535", my.Port)
	}
	user := strings.TrimSpace(my.User)
	if user == "" {
		return fmt.Errorf("database.mysql.user is required when driver is mysql")
	}
	dbName := strings.TrimSpace(my.DBName)
	if dbName == "" {
		return fmt.Errorf("database.mysql.dbname is required when driver is mysql")
	}
	charset := strings.TrimSpace(my.Charset)
	if charset == "" {
		charset = "utf8mb4"
	}

	my.Host = host
	my.User = user
	my.DBName = dbName
	my.Charset = charset
	return nil
}

func (c *Config) validateSearch() error {
	s := &c.Search
	if s.DefaultPageSize == 0 {
		s.DefaultPageSize = 20
	}
	if s.MaxPageSize == 0 {
		s.MaxPageSize = 100
	}
	if s.DefaultPageSize < 0 {
		return fmt.Errorf("invalid search.default_page_size %d: must be positive", s.DefaultPageSize)
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("invalid search.max_page_size %d: must be at least search.default_page_size (%d)", s.MaxPageSize, s.DefaultPageSize)
	}

	strategy := strings.ToLower(strings.TrimSpace(s.DefaultStrategy))
	switch strategy {
	case "":
		s.DefaultStrategy = "complex"
	case "simple", "complex":
		s.DefaultStrategy = strategy
	default:
		return fmt.Errorf("invalid search.default_strategy %q: must be one of %q, %q", s.DefaultStrategy, "simple", "complex")
	}
	return nil
}

// validateOptionalDuration accepts an empty value or a positive Go duration.
func validateOptionalDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", key, value)
	}
	return nil
}
