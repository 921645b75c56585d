// Package database opens the Postgres pool and applies the schema.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Client wraps the connection pool
type Client struct {
	DB *sql.DB
}

// TLS selects the sslmode and certificate files. Empty fields leave the
// URL's own parameters alone.
type TLS struct {
	Mode     string // disable, require, verify-ca, verify-full
	Cert     string
	Key      string
	RootCert string
}

// Pool bounds the connection pool
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Options configure Open
type Options struct {
	URL  string
	TLS  TLS
	Pool Pool
	// PingTimeout bounds the initial connectivity check (default 5s)
	PingTimeout time.Duration
}

// DefaultPool is sized for a single API instance; completions hold no
// connection while they run.
var DefaultPool = Pool{
	MaxOpen:     20,
	MaxIdle:     5,
	MaxLifetime: 30 * time.Minute,
	MaxIdleTime: 5 * time.Minute,
}

// DSN merges the TLS settings into the connection URL's query
func DSN(rawURL string, tls TLS) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}

	q := u.Query()
	for param, value := range map[string]string{
		"sslmode":     tls.Mode,
		"sslcert":     tls.Cert,
		"sslkey":      tls.Key,
		"sslrootcert": tls.RootCert,
	} {
		if value != "" {
			q.Set(param, value)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open connects to Postgres and verifies the connection
func Open(ctx context.Context, opts Options) (*Client, error) {
	dsn, err := DSN(opts.URL, opts.TLS)
	if err != nil {
		return nil, err
	}
	pool := opts.Pool
	if pool.MaxOpen == 0 {
		pool = DefaultPool
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 5 * time.Second
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to postgres: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)
	db.SetConnMaxIdleTime(pool.MaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed connecting to postgres: %w", err)
	}

	if opts.TLS.Mode != "" && opts.TLS.Mode != "disable" {
		log.Printf("🔒 Database TLS enabled (mode: %s)", opts.TLS.Mode)
	}
	log.Printf("✅ Database connected (pool: %d open, %d idle)", pool.MaxOpen, pool.MaxIdle)

	return &Client{DB: db}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed applying schema: %w", err)
	}
	log.Println("✅ Database schema applied")
	return nil
}

// Schema returns the embedded DDL
func Schema() string {
	return schemaSQL
}

// Close closes the pool
func (c *Client) Close() error {
	return c.DB.Close()
}

// Ping checks the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}
