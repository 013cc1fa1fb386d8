package schema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnsupportedDriver is returned for URLs with an unknown scheme.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

const (
	connectTimeoutSeconds = 10
	connMaxLifetime       = time.Hour
	connMaxIdleTime       = 10 * time.Second
)

// Dialect identifies a supported database family.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Target is a parsed connection URL.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ParseURL maps a SQLAlchemy-style database URL to a driver DSN.
// Accepted forms: postgres://, postgresql://, postgresql+<driver>://,
// sqlite:///path, sqlite:// (in memory) and file: URIs.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("database URL is empty")
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		if strings.HasPrefix(raw, "file:") {
			return Target{Dialect: DialectSQLite, DSN: raw}, nil
		}
		return Target{}, fmt.Errorf("%w: %q has no scheme", ErrUnsupportedDriver, raw)
	}
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "postgres", "postgresql":
		dsn := "postgres://" + rest
		u, err := url.Parse(dsn)
		if err != nil {
			return Target{}, fmt.Errorf("parsing database URL: %w", err)
		}
		q := u.Query()
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", fmt.Sprint(connectTimeoutSeconds))
		}
		u.RawQuery = q.Encode()
		return Target{Dialect: DialectPostgres, DSN: u.String()}, nil
	case "sqlite":
		// sqlite:///relative.db, sqlite:////abs/path.db, sqlite:// for memory.
		path := strings.TrimPrefix(rest, "/")
		if path == "" || path == ":memory:" {
			return Target{Dialect: DialectSQLite, DSN: ":memory:"}, nil
		}
		return Target{Dialect: DialectSQLite, DSN: path}, nil
	default:
		return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedDriver, scheme)
	}
}

// Open connects to the database at raw and verifies the connection.
func Open(ctx context.Context, raw string) (*gorm.DB, error) {
	target, err := ParseURL(raw)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch target.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(target.DSN)
	case DialectSQLite:
		dialector = sqlite.Open(target.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", target.Dialect, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}
	if target.Dialect == DialectSQLite {
		// Each new connection to :memory: would see an empty database, so
		// keep exactly one and never recycle it.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeoutSeconds*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
