/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

var (
	globalMu sync.RWMutex
	globalDB *bun.DB
)

// GetDB returns the global Bun database instance.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalDB
}

// SetDB replaces the global Bun database instance.
func SetDB(db *bun.DB) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalDB = db
}

// InitDB opens the database described by cfg and installs it as the
// global instance.
func InitDB(ctx context.Context, cfg *ConnectionConfig) (*bun.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	SetDB(db)
	return db, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalDB == nil {
		return nil
	}
	err := globalDB.Close()
	globalDB = nil
	return err
}

// Open connects to the database described by cfg, applying environment
// overrides, pool settings and query hooks, and verifies the connection.
func Open(ctx context.Context, cfg *ConnectionConfig) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	overrideFromEnv(cfg)
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	sqlDB, dialect, err := openSQL(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	configureConnectionPool(sqlDB, cfg)

	db := bun.NewDB(sqlDB, dialect)
	if err := addHooks(db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	db.RegisterModel(RegisteredModelInstances()...)
	if cfg.AutoCreate {
		if err := CreateTables(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	GetLogger().Info("Database connected successfully", "type", cfg.Type, "host", cfg.Host, "dbname", cfg.DBName)
	return db, nil
}

func openSQL(cfg *ConnectionConfig) (*sql.DB, schema.Dialect, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeMySQL:
		sqlDB, err := sql.Open("mysql", mysqlDSN(cfg))
		return sqlDB, mysqldialect.New(), err
	case TypePostgres, "postgresql":
		sqlDB, err := sql.Open("postgres", postgresDSN(cfg))
		return sqlDB, pgdialect.New(), err
	case TypePgx:
		connCfg, err := pgx.ParseConfig(postgresDSN(cfg))
		if err != nil {
			return nil, nil, err
		}
		return stdlib.OpenDB(*connCfg), pgdialect.New(), nil
	case TypeSQLite, "sqlite3":
		sqlDB, err := sql.Open(sqliteshim.ShimName, sqliteDSN(cfg))
		return sqlDB, sqlitedialect.New(), err
	case TypeMSSQL, "sqlserver":
		sqlDB, err := sql.Open("sqlserver", mssqlDSN(cfg))
		return sqlDB, mssqldialect.New(), err
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s, supported types: %v",
			cfg.Type, []string{TypeMySQL, TypePostgres, TypePgx, TypeSQLite, TypeMSSQL})
	}
}

func mysqlDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.Local
	c.Timeout = cfg.ConnectTimeout
	c.ReadTimeout = cfg.ReadTimeout
	c.WriteTimeout = cfg.WriteTimeout
	if cfg.Charset != "" {
		c.Params = map[string]string{"charset": cfg.Charset}
	}
	return c.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

// sqliteDSN keeps ":memory:" and "file:" names and adds ".db" to bare names.
func sqliteDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	name := cfg.DBName
	if name == ":memory:" || strings.HasPrefix(name, "file:") || strings.HasSuffix(name, ".db") {
		return name
	}
	return name + ".db"
}

func mssqlDSN(cfg *ConnectionConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	q := url.Values{}
	q.Set("database", cfg.DBName)
	q.Set("connection timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

func isMemorySQLite(cfg *ConnectionConfig) bool {
	if t := strings.ToLower(cfg.Type); t != TypeSQLite && t != "sqlite3" {
		return false
	}
	dsn := sqliteDSN(cfg)
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func configureConnectionPool(sqlDB *sql.DB, cfg *ConnectionConfig) {
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	// every connection to an in-memory database sees its own empty schema
	if isMemorySQLite(cfg) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}
}

func addHooks(db *bun.DB, cfg *ConnectionConfig) error {
	if cfg.EnableQueryLog {
		switch cfg.QueryLogStyle {
		case QueryLogBundebug:
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		default:
			db.AddQueryHook(NewQueryHook(FromEnv("DB_QUERY_LOG")))
		}
	}
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(cfg.SlowQueryTime, GetLogger()))
	}
	if cfg.EnableMetrics {
		hook, err := NewMetricsHook(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register query metrics: %w", err)
		}
		db.AddQueryHook(hook)
	}
	return nil
}
