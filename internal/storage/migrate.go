package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationsFS returns dir as a filesystem, or the migrations compiled into
// the binary when dir is empty.
func MigrationsFS(dir string) fs.FS {
	if dir == "" {
		sub, err := fs.Sub(embeddedMigrations, "migrations")
		if err != nil {
			panic(err) // the embed pattern guarantees the directory
		}
		return sub
	}
	return os.DirFS(dir)
}

// MigrationNames lists the .sql files of fsys in apply order
func MigrationNames(fsys fs.FS) ([]string, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".sql") {
			migrations = append(migrations, f.Name())
		}
	}
	sort.Strings(migrations)
	return migrations, nil
}

// migrationLock serializes concurrent migrators across processes
const migrationLock = 7_220_431

// RunMigrations executes all pending .sql migrations from fsys, one
// transaction per file, and returns the names it applied.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := MigrationNames(fsys)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range names {
		ok, err := applyMigration(ctx, pool, fsys, name)
		if err != nil {
			return done, err
		}
		if ok {
			done = append(done, name)
		}
	}
	return done, nil
}

// applyMigration runs one file unless it is already recorded. The check and
// the apply share a transaction holding the migration lock.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, name string) (bool, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return false, fmt.Errorf("failed to read migration %s: %w", name, err)
	}

	applied := false
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLock); err != nil {
			return fmt.Errorf("failed to take migration lock: %w", err)
		}

		rows, _ := tx.Query(ctx, `SELECT name FROM schema_migrations WHERE name = $1`, name)
		seen, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if len(seen) > 0 {
			slog.Debug("migration already applied", "migration", name)
			return nil
		}

		slog.Info("applying migration", "migration", name)
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		slog.Info("migration applied successfully", "migration", name)
	}
	return applied, nil
}

// MigrateFromDSN runs migrations from dir (or the embedded set) against dsn
func MigrateFromDSN(ctx context.Context, dsn, dir string) ([]string, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return RunMigrations(ctx, pool, MigrationsFS(dir))
}
