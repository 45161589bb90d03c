package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
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
	Auth     AuthConfig     `koanf:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Mode       string `koanf:"mode"`
	CSRFSecret string `koanf:"csrf_secret"`
	Timeout    string `koanf:"timeout"`
	// TrustedProxies lists the proxy IPs or CIDRs allowed to set
	// X-Forwarded-For. Empty means the peer address is the client IP.
	TrustedProxies []string        `koanf:"trusted_proxies"`
	CORS           CORSConfig      `koanf:"cors"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig limits login and registration attempts per client IP.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
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

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret   string `koanf:"jwt_secret"`
	TokenExpiry string `koanf:"token_expiry"`
	CookieName  string `koanf:"cookie_name"`
}

// DefaultCookieName is used when auth.cookie_name is not set.
const DefaultCookieName = "session"

const envPrefix = "APP__"

// Load reads the YAML file at configPath, overlays APP__ environment
// variables and validates the result.
//
// A double underscore separates levels and a single one stays in the key:
// APP__SERVER__PORT sets server.port, APP__AUTH__JWT_SECRET sets
// auth.jwt_secret.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", configPath, err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps APP__SERVER__CSRF_SECRET to server.csrf_secret.
func envKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, envPrefix)), "__", ".")
}

// Validate checks cross-field constraints and supported values, and normalizes
// whitespace in the fields it checks.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	return c.validateLog()
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

	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	if err := positiveDuration("server.timeout", c.Server.Timeout, false); err != nil {
		return err
	}
	for i, proxy := range c.Server.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if !validProxy(proxy) {
			return fmt.Errorf("invalid server.trusted_proxies entry %q: must be an IP address or CIDR", c.Server.TrustedProxies[i])
		}
		c.Server.TrustedProxies[i] = proxy
	}

	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	if err := positiveDuration("server.cors.max_age", c.Server.CORS.MaxAge, false); err != nil {
		return err
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
	}
	return nil
}

func validProxy(s string) bool {
	if _, err := netip.ParsePrefix(s); err == nil {
		return true
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	case "postgres":
		if err := c.Database.Postgres.validate(c.Server.Mode); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	return positiveDuration("database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime, false)
}

// sslModes maps each libpq sslmode to whether it encrypts and authenticates
// the server well enough for release mode.
var sslModes = map[string]bool{
	"disable":     false,
	"allow":       false,
	"prefer":      false,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

func (pg *PostgresConfig) validate(mode string) error {
	for _, f := range []struct {
		key string
		v   *string
	}{
		{"host", &pg.Host},
		{"user", &pg.User},
		{"dbname", &pg.DBName},
	} {
		*f.v = strings.TrimSpace(*f.v)
		if *f.v == "" {
			return fmt.Errorf("database.postgres.%s is required when driver is postgres", f.key)
		}
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}

	pg.SSLMode = strings.TrimSpace(pg.SSLMode)
	secure, ok := sslModes[pg.SSLMode]
	if !ok {
		return fmt.Errorf("invalid database.postgres.sslmode %q", pg.SSLMode)
	}
	if mode == gin.ReleaseMode && !secure {
		return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be require, verify-ca or verify-full", pg.SSLMode, mode)
	}
	return nil
}

func (c *Config) validateAuth() error {
	secret := strings.TrimSpace(c.Auth.JWTSecret)
	if secret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(secret) < 32 {
		return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
	}
	if c.Server.Mode == gin.ReleaseMode && secretClasses(secret) < 3 {
		return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	c.Auth.JWTSecret = secret

	c.Auth.TokenExpiry = strings.TrimSpace(c.Auth.TokenExpiry)
	if err := positiveDuration("auth.token_expiry", c.Auth.TokenExpiry, true); err != nil {
		return err
	}

	name := strings.TrimSpace(c.Auth.CookieName)
	if name == "" {
		name = DefaultCookieName
	}
	if strings.ContainsAny(name, " ;,=\t") {
		return fmt.Errorf("invalid auth.cookie_name %q", c.Auth.CookieName)
	}
	c.Auth.CookieName = name
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if _, ok := logLevels[level]; !ok {
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}
	c.Log.Level = level

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	if _, ok := logFormats[format]; !ok {
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	c.Log.Format = format
	return nil
}

// TokenExpiryDuration returns auth.token_expiry as a duration. Validate must
// have succeeded first.
func (c *AuthConfig) TokenExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.TokenExpiry)
	return d
}

// positiveDuration checks that v parses as a duration greater than zero.
// An empty v is accepted unless required is set.
func positiveDuration(name, v string, required bool) error {
	if v == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, v)
	}
	return nil
}

// secretClasses reports how many of lowercase, uppercase, digits and other
// runes occur in secret.
func secretClasses(secret string) int {
	var seen [4]bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			seen[0] = true
		case unicode.IsUpper(r):
			seen[1] = true
		case unicode.IsDigit(r):
			seen[2] = true
		default:
			seen[3] = true
		}
	}
	n := 0
	for _, ok := range seen {
		if ok {
			n++
		}
	}
	return n
}
