package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Pool defaults applied to unset PoolConfig fields.
const (
	defaultMaxIdleConns    = 10
	defaultMaxOpenConns    = 100
	defaultConnMaxLifetime = time.Hour
)

// SetupDatabase opens the configured database and sizes its connection pool.
// gorm logs through log: every statement when log has debug enabled,
// otherwise only slow statements and errors. Query arguments are never
// logged, so emails and password hashes stay out of the log.
func SetupDatabase(cfg *DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}

	pool, err := cfg.Pool.resolve()
	if err != nil {
		return nil, err
	}
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if log.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.NewSlogLogger(log.With(slog.String("component", "gorm")), gormlogger.Config{
			LogLevel:                  level,
			SlowThreshold:             slowQueryThreshold,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	log.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_idle_conns", pool.MaxIdleConns),
		slog.Int("max_open_conns", pool.MaxOpenConns),
		slog.Duration("conn_max_lifetime", pool.ConnMaxLifetime),
	)
	return db, nil
}

// poolSettings is a PoolConfig with defaults filled in and the lifetime parsed.
type poolSettings struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func (p PoolConfig) resolve() (poolSettings, error) {
	s := poolSettings{
		MaxIdleConns:    defaultMaxIdleConns,
		MaxOpenConns:    defaultMaxOpenConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
	}
	if p.MaxIdleConns > 0 {
		s.MaxIdleConns = p.MaxIdleConns
	}
	if p.MaxOpenConns > 0 {
		s.MaxOpenConns = p.MaxOpenConns
	}
	if p.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(p.ConnMaxLifetime)
		if err != nil {
			return poolSettings{}, fmt.Errorf("invalid pool.conn_max_lifetime %q: %w", p.ConnMaxLifetime, err)
		}
		s.ConnMaxLifetime = d
	}
	return s, nil
}

func dialectorFor(cfg *DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
			}
		}
		return sqlite.Open(sqliteDSN(cfg.SQLite.Path)), nil
	case "postgres":
		return postgres.Open(postgresDSN(&cfg.Postgres)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// sqliteDSN opens path in WAL mode with a busy timeout and immediate write
// transactions, so concurrent location saves wait for each other instead of
// failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	q := url.Values{
		"_pragma": {"busy_timeout(5000)", "journal_mode(WAL)", "foreign_keys(1)"},
		"_txlock": {"immediate"},
	}
	return path + "?" + q.Encode()
}

func postgresDSN(cfg *PostgresConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
