/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

// Package devicestore persists registered devices and their bcrypt password hashes.
package devicestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/carverauto/tachyon/pkg/logger"
)

// Supported values of Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const defaultSQLiteDSN = "tachyon.db"

var (
	// ErrDeviceNotFound is returned when no device has the requested name.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrIncorrectPassword is returned when the password does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")

	errUnsupportedDriver = errors.New("unsupported database driver")
	errEmptyField        = errors.New("device name, ip address and password are required")
)

// Config selects the database. An empty driver means sqlite.
type Config struct {
	Driver   string `json:"driver" yaml:"driver"`
	DSN      string `json:"dsn" yaml:"dsn"`
	HashCost int    `json:"hash_cost" yaml:"hash_cost"`
}

// Device is a registered device. The password hash never leaves the store.
type Device struct {
	ID         int64
	DeviceName string
	IPAddress  string
	CreatedAt  time.Time
}

// Store is safe for concurrent use.
type Store struct {
	db       *sql.DB
	driver   string
	hashCost int
	logger   logger.Logger
}

// Open connects to the configured database and creates the devices table if needed.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	sqlDriver, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" && driver == DriverSQLite {
		dsn = defaultSQLiteDSN
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, driver, cfg.HashCost, log)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// New wraps an open database and ensures the schema. hashCost 0 means bcrypt.DefaultCost.
func New(ctx context.Context, db *sql.DB, driver string, hashCost int, log logger.Logger) (*Store, error) {
	if _, err := sqlDriverName(driver); err != nil {
		return nil, err
	}

	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &Store{db: db, driver: driver, hashCost: hashCost, logger: log}

	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite", nil
	case DriverMySQL:
		return "mysql", nil
	case DriverPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedDriver, driver)
	}
}

func (s *Store) migrate(ctx context.Context) error {
	if s.driver == DriverSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
			return fmt.Errorf("set busy_timeout: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, createTableSQL(s.driver)); err != nil {
		return fmt.Errorf("create devices table: %w", err)
	}

	if s.driver != DriverMySQL {
		if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_devices_name ON devices(device_name)`); err != nil {
			return fmt.Errorf("create devices index: %w", err)
		}
	}

	return nil
}

func createTableSQL(driver string) string {
	switch driver {
	case DriverMySQL:
		return `CREATE TABLE IF NOT EXISTS devices (
			id            INT AUTO_INCREMENT PRIMARY KEY,
			device_name   VARCHAR(50) NOT NULL,
			ip_address    VARCHAR(50) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    VARCHAR(40) NOT NULL,
			INDEX idx_devices_name (device_name)
		)`
	case DriverPostgres:
		return `CREATE TABLE IF NOT EXISTS devices (
			id            SERIAL PRIMARY KEY,
			device_name   VARCHAR(50) NOT NULL,
			ip_address    VARCHAR(50) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    VARCHAR(40) NOT NULL
		)`
	default:
		return `CREATE TABLE IF NOT EXISTS devices (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			device_name   TEXT NOT NULL,
			ip_address    TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AddDevice hashes password and inserts a device. Names are not unique; lookups use the oldest match.
func (s *Store) AddDevice(ctx context.Context, name, ip, password string) (*Device, error) {
	name = strings.TrimSpace(name)
	ip = strings.TrimSpace(ip)

	if name == "" || ip == "" || password == "" {
		return nil, errEmptyField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	device := &Device{DeviceName: name, IPAddress: ip, CreatedAt: time.Now().UTC()}
	args := []any{name, ip, string(hash), device.CreatedAt.Format(time.RFC3339Nano)}
	insert := `INSERT INTO devices (device_name, ip_address, password_hash, created_at) VALUES (?, ?, ?, ?)`

	if s.driver == DriverPostgres {
		if err := s.db.QueryRowContext(ctx, s.rebind(insert)+" RETURNING id", args...).Scan(&device.ID); err != nil {
			return nil, fmt.Errorf("insert device: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, insert, args...)
		if err != nil {
			return nil, fmt.Errorf("insert device: %w", err)
		}

		if device.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("read device id: %w", err)
		}
	}

	s.logger.Info().
		Int64("id", device.ID).
		Str("device_name", name).
		Str("ip_address", ip).
		Msg("Device added")

	return device, nil
}

// Verify looks up name and checks password against its hash.
func (s *Store) Verify(ctx context.Context, name, password string) (*Device, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, device_name, ip_address, password_hash, created_at
		FROM devices WHERE device_name = ? ORDER BY id LIMIT 1`), strings.TrimSpace(name))

	var (
		device    Device
		hash      string
		createdAt string
	)

	if err := row.Scan(&device.ID, &device.DeviceName, &device.IPAddress, &hash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}

		return nil, fmt.Errorf("query device: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrIncorrectPassword
		}

		return nil, fmt.Errorf("compare password: %w", err)
	}

	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		device.CreatedAt = ts
	}

	return &device, nil
}

// ListDeviceNames returns every distinct device name in ascending order.
func (s *Store) ListDeviceNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT device_name FROM devices ORDER BY device_name`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan device name: %w", err)
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder

	n := 0

	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
