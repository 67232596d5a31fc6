package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"docdash-backend/internal/shared/telemetry"
)

// Profile selects pool defaults for the kind of process holding the pool.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Options controls the documents database pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var openDB = sql.Open

// RuntimeProfile reports ProfileLambda inside AWS Lambda, else ProfileServer.
func RuntimeProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

// DefaultOptions returns pool defaults for p. A Lambda instance serves one
// request at a time, so it keeps a tiny pool; migrations need one connection.
func DefaultOptions(p Profile) Options {
	switch p {
	case ProfileLambda:
		return Options{
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 30 * time.Second,
			ConnMaxLifetime: 15 * time.Minute,
			PingTimeout:     3 * time.Second,
		}
	case ProfileMigrate:
		return Options{
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     10 * time.Second,
		}
	default:
		return Options{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 2 * time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	}
}

// OptionsFromEnv overrides defaults with DB_* variables. Invalid values are
// logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	envInt("DB_MAX_OPEN_CONNS", &opts.MaxOpenConns)
	envInt("DB_MAX_IDLE_CONNS", &opts.MaxIdleConns)
	envDuration("DB_CONN_MAX_LIFETIME", &opts.ConnMaxLifetime)
	envDuration("DB_CONN_MAX_IDLE_TIME", &opts.ConnMaxIdleTime)
	envDuration("DB_PING_TIMEOUT", &opts.PingTimeout)
	return opts
}

// Open returns the pool for profile p. Lambda invocations share one pool per
// execution environment; other profiles get a new pool the caller must close.
func Open(ctx context.Context, databaseURL string, p Profile) (*sql.DB, error) {
	opts := OptionsFromEnv(DefaultOptions(p))
	if p == ProfileLambda {
		return lambdaPool.get(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	pool, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(pool, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", redactURL(databaseURL), err)
	}

	telemetry.Info("db.connected", map[string]any{
		"target":   redactURL(databaseURL),
		"max_open": pool.Stats().MaxOpenConnections,
	})
	return pool, nil
}

// sharedPool holds one pool per process. A failed connect is not cached, so
// the next invocation retries.
type sharedPool struct {
	mu   sync.Mutex
	pool *sql.DB
}

var lambdaPool sharedPool

func (s *sharedPool) get(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return pool, nil
}

func (s *sharedPool) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		_ = s.pool.Close()
	}
	s.pool = nil
}

func applyOptions(pool *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 || opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	pool.SetMaxOpenConns(opts.MaxOpenConns)
	pool.SetMaxIdleConns(opts.MaxIdleConns)
	pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

// redactURL keeps host and database name for logs and drops credentials.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host + u.Path
}

func envInt(key string, dst *int) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return
	}
	*dst = v
}

func envDuration(key string, dst *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return
	}
	*dst = v
}
