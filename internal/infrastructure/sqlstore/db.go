// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package sqlstore implements the meeting, agent and user lookups on a relational database.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Drivers registered with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Supported database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const tracerName = "github.com/victor-cyril/Agenda-AI/internal/infrastructure/sqlstore"

// DB is a database handle that knows the placeholder style of its driver.
type DB struct {
	*sql.DB
	driver string
}

// Open opens and pings a database. Queries of this package are written with "?"
// placeholders and rebound for drivers that number them.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// An in-memory database exists per connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}

	return &DB{DB: sqlDB, driver: driver}, nil
}

// Driver returns the driver name of the handle.
func (db *DB) Driver() string {
	return db.driver
}

// IsReady pings the database.
func (db *DB) IsReady(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) rebind(query string) string {
	return rebind(db.driver, query)
}

// rebind rewrites "?" placeholders to "$1", "$2"... for postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func (db *DB) startSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	system := "postgresql"
	if db.driver == DriverSQLite {
		system = "sqlite"
	}
	return otel.Tracer(tracerName).Start(ctx, "sql."+operation+" "+table,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
