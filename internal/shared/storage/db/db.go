package db

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"coverletter-backend/internal/shared/telemetry"
)

// ErrNoURL is returned when no DATABASE_URL was configured.
var ErrNoURL = errors.New("DATABASE_URL is empty")

// Profile selects pool defaults for the kind of process opening the pool.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileWorker  Profile = "worker"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Options controls the pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var defaults = map[Profile]Options{
	ProfileServer:  {MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	ProfileWorker:  {MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
}

// RuntimeProfile picks ProfileLambda inside AWS Lambda and fallback otherwise.
func RuntimeProfile(fallback Profile) Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return fallback
}

// Defaults returns the pool settings for p; unknown profiles get server
// settings.
func Defaults(p Profile) Options {
	if opts, ok := defaults[p]; ok {
		return opts
	}
	return defaults[ProfileServer]
}

// OptionsFromEnv overrides opts with DB_* env vars. Invalid values are
// logged and ignored.
func OptionsFromEnv(opts Options) Options {
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
	}
	for key, dst := range ints {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			telemetry.Warn("db.env.invalid", map[string]any{"key": key, "value": raw})
			continue
		}
		*dst = v
	}

	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
	}
	for key, dst := range durations {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			telemetry.Warn("db.env.invalid", map[string]any{"key": key, "value": raw})
			continue
		}
		*dst = v
	}
	return opts
}

var openDB = sql.Open

// Open connects with the profile's defaults plus env overrides. Lambda
// processes share one pool across invocations.
func Open(ctx context.Context, databaseURL string, p Profile) (*sql.DB, error) {
	opts := OptionsFromEnv(Defaults(p))
	if p == ProfileLambda {
		return shared.get(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoURL
	}
	pool, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, errors.Join(errors.New("open database"), err)
	}
	applyOptions(pool, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Join(errors.New("ping database"), err)
	}

	stats := pool.Stats()
	telemetry.Info("db.connected", map[string]any{"max_open": stats.MaxOpenConnections, "open": stats.OpenConnections})
	return pool, nil
}

// Check returns a health probe for pool.
func Check(pool *sql.DB) func(context.Context) error {
	if pool == nil {
		return nil
	}
	return pool.PingContext
}

// sharedPool holds one pool per process. Failed connects are not cached so
// the next invocation retries.
type sharedPool struct {
	mu   sync.Mutex
	pool *sql.DB
}

var shared sharedPool

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
	s.pool = nil
	s.mu.Unlock()
}

func applyOptions(pool *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
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
