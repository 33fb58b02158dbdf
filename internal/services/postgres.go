package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresProbe checks the database over its own small database/sql pool,
// so readiness does not compete with request traffic for pgx connections.
type PostgresProbe struct {
	db       *sql.DB
	expected []string
}

// NewPostgresProbe opens a probe connection. expected lists the migration
// names that must be recorded in schema_migrations before the database is ready.
func NewPostgresProbe(dsn string, expected []string) (*PostgresProbe, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres probe: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PostgresProbe{
		db:       db,
		expected: expected,
	}, nil
}

// Name implements Probe
func (p *PostgresProbe) Name() string {
	return "postgres"
}

// HealthCheck pings the database and checks that no migration is pending
func (p *PostgresProbe) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if len(p.expected) == 0 {
		return nil
	}

	pending, err := p.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("pending migrations: %s", strings.Join(pending, ", "))
	}
	return nil
}

// Pending returns the expected migrations not yet applied
func (p *PostgresProbe) Pending(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []string
	for _, want := range p.expected {
		if !applied[want] {
			pending = append(pending, want)
		}
	}
	return pending, nil
}

// Close closes the probe connection
func (p *PostgresProbe) Close() error {
	return p.db.Close()
}
