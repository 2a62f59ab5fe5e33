// Package repositories opens the client's local SQLite database, applies
// its migrations and exposes the repositories built on it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/accountkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/accountkeeper/internal/client/repositories/localstorage"
	"github.com/dmitrijs2005/accountkeeper/internal/client/repositories/messages"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB           *sql.DB
	LocalStorage localstorage.Repository
	Messages     messages.Repository
}

// Close closes the underlying database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// DSN turns a database file path into a modernc.org/sqlite data source
// name. Several CLI processes may share the file, so writers wait on the
// lock instead of failing immediately.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:           db,
		LocalStorage: localstorage.NewSQLiteRepository(db),
		Messages:     messages.NewSQLiteRepository(db),
	}, nil
}
