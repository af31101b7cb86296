package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/eslsoft/vocsync/internal/infrastructure/config"
)

var instrumentedDrivers = map[string]string{}

func init() {
	for name, system := range map[string]otelsql.DriverOption{
		"sqlite3":  otelsql.WithSystem(semconv.DBSystemSqlite),
		"postgres": otelsql.WithSystem(semconv.DBSystemPostgreSQL),
	} {
		driver, err := otelsql.Register(
			name,
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsClose(),
			otelsql.TraceRowsAffected(),
			system,
		)
		if err != nil {
			panic(fmt.Sprintf("register %s driver with otel: %v", name, err))
		}
		instrumentedDrivers[name] = driver
	}
}

// DB is a local store connection together with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Dialect string
}

// Open connects to the local store configured in cfg.
func Open(cfg *config.Config) (*DB, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}

	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := OpenDSN(ctx, driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		_ = db.Close()
	}, nil
}

// OpenDSN opens and pings an instrumented connection for driver ("sqlite3" or "postgres").
func OpenDSN(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case "postgres":
		return openPostgres(ctx, dsn)
	case "sqlite3":
		return openSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openPostgres(ctx context.Context, dsn string) (*DB, error) {
	rawDB, err := sql.Open(instrumentedDrivers["postgres"], dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := otelsql.RecordStats(rawDB); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("record postgres stats: %w", err)
	}

	return &DB{DB: rawDB, Dialect: dialect.Postgres}, nil
}

func openSQLite(ctx context.Context, dsn string) (*DB, error) {
	rawDB, err := sql.Open(instrumentedDrivers["sqlite3"], dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	rawDB.SetMaxOpenConns(1)
	rawDB.SetMaxIdleConns(1)

	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	if err := otelsql.RecordStats(rawDB); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("record sqlite stats: %w", err)
	}

	return &DB{DB: rawDB, Dialect: dialect.SQLite}, nil
}
