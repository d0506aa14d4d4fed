package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/storage/database/migrations"
)

// Engines
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite3"
	EngineMemory   = "memory" // in-process repositories, see package inmemdb
)

func postgresDSN(dbName string, conf *core.Config) string {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN returns the DSN of the sqlite3 database file `name` (":memory:" for a private in-memory one).
func SQLiteDSN(name string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", name)
}

// Open opens the configured SQL database and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch conf.Database.Engine {
	case EnginePostgres:
		db, err = sqlx.Open(EnginePostgres, postgresDSN(conf.Database.Name, conf))
	case EngineSQLite:
		db, err = sqlx.Open(EngineSQLite, SQLiteDSN(conf.Database.Name))
		if err == nil {
			// sqlite only supports one writer
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 20
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func prepareGoose(db *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect(db.DriverName())
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	if err := prepareGoose(db); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Up(db.DB, "."); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, ...) against db, reporting to out.
func RunMigrations(db *sqlx.DB, out io.Writer, command string, args ...string) error {
	if err := prepareGoose(db); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	goose.SetLogger(log.New(out, "", 0))
	return goose.Run(command, db.DB, ".", args...)
}
