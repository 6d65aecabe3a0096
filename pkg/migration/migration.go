// Package migration накатывает встроенные SQL-миграции на пул pgx через golang-migrate.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultTable       = "schema_migrations"
	defaultLockTimeout = 30 * time.Second
)

// ErrDirtySchema - предыдущая миграция упала посередине, схему нужно чинить вручную.
var ErrDirtySchema = errors.New("database schema is dirty")

// Options описывает, откуда брать миграции и где хранить версию схемы.
type Options struct {
	FS          fs.FS
	Dir         string        // каталог внутри FS
	Table       string        // по умолчанию schema_migrations
	LockTimeout time.Duration // по умолчанию 30s
}

// Runner применяет миграции к базе, на которую смотрит пул.
type Runner struct {
	pool *pgxpool.Pool
	opts Options
	log  zerolog.Logger
}

// NewRunner создает Runner, подставляя значения по умолчанию в opts.
func NewRunner(pool *pgxpool.Pool, opts Options) *Runner {
	if opts.Table == "" {
		opts.Table = defaultTable
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	return &Runner{
		pool: pool,
		opts: opts,
		log:  log.With().Str("component", "migration").Str("table", opts.Table).Logger(),
	}
}

// Up применяет новые миграции и возвращает версию схемы после них.
func (r *Runner) Up(ctx context.Context) (uint, error) {
	var version uint
	err := r.withMigrate(ctx, func(m *migrate.Migrate) error {
		before, _, err := readVersion(m)
		if err != nil {
			return err
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}

		after, dirty, err := readVersion(m)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("%w at version %d", ErrDirtySchema, after)
		}
		version = after

		if after == before {
			r.log.Info().Uint("version", after).Msg("database schema is up to date")
		} else {
			r.log.Info().Uint("from", before).Uint("to", after).Msg("database schema migrated")
		}
		return nil
	})
	return version, err
}

// Version возвращает текущую версию схемы и признак dirty. Пустая база - версия 0.
func (r *Runner) Version(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := r.withMigrate(ctx, func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = readVersion(m)
		return err
	})
	return version, dirty, err
}

func readVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// withMigrate открывает экземпляр migrate поверх пула на время fn.
func (r *Runner) withMigrate(ctx context.Context, fn func(m *migrate.Migrate) error) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database is not reachable: %w", err)
	}

	source, err := iofs.New(r.opts.FS, r.opts.Dir)
	if err != nil {
		return fmt.Errorf("open migrations %q: %w", r.opts.Dir, err)
	}

	driver, err := postgres.WithInstance(stdlib.OpenDBFromPool(r.pool), &postgres.Config{
		MigrationsTable: r.opts.Table,
	})
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("init postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("init migrate: %w", err)
	}
	m.LockTimeout = r.opts.LockTimeout
	m.Log = migrateLogger{log: r.log}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			r.log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrate")
		}
	}()
	return fn(m)
}

// migrateLogger пишет сообщения golang-migrate в zerolog.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}
