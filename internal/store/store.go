package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/zuora-adapter/pkg/model"
)

// ErrNotFound is returned when a request record is in neither Redis nor Postgres.
var ErrNotFound = errors.New("store: request not found")

const requestTTL = 24 * time.Hour

// Store defines the contract for caching and persisting SOAP request audit data.
type Store interface {
	RecordRequest(ctx context.Context, rec model.RequestRecord) error
	GetRequest(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// HybridStore is Redis-first with a Postgres audit trail behind it.
type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid creates a Redis-first, Postgres-backed store. pgURL may be empty
// to run cache-only (dev).
func NewHybrid(redisAddr string, redisDB int, pgURL string, pgPoolConfig PGPoolConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	var pgPool *pgxpool.Pool
	if pgURL != "" {
		cfg, err := pgxpool.ParseConfig(pgURL)
		if err != nil {
			return nil, fmt.Errorf("invalid pg config: %w", err)
		}
		if pgPoolConfig.MaxConns > 0 {
			cfg.MaxConns = pgPoolConfig.MaxConns
		}
		if pgPoolConfig.MinConns > 0 {
			cfg.MinConns = pgPoolConfig.MinConns
		}
		if pgPoolConfig.MaxConnLifetime > 0 {
			cfg.MaxConnLifetime = pgPoolConfig.MaxConnLifetime
		}
		if pgPoolConfig.MaxConnIdleTime > 0 {
			cfg.MaxConnIdleTime = pgPoolConfig.MaxConnIdleTime
		}
		if pgPoolConfig.HealthCheckPeriod > 0 {
			cfg.HealthCheckPeriod = pgPoolConfig.HealthCheckPeriod
		}
		pgPool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	return &HybridStore{redis: rdb, PG: pgPool, logger: logger}, nil
}

func requestKey(id uuid.UUID) string {
	return "zuora:request:" + id.String()
}

// RecordRequest caches the audit row in Redis and, when Postgres is
// configured, persists it durably.
func (s *HybridStore) RecordRequest(ctx context.Context, rec model.RequestRecord) error {
	if err := s.SetJSON(ctx, requestKey(rec.ID), rec, requestTTL); err != nil {
		s.logger.Warn("store.request_cache_failed", zap.String("id", rec.ID.String()), zap.Error(err))
	}

	if s.PG == nil {
		return nil
	}
	_, err := s.PG.Exec(ctx, `
		INSERT INTO billing.soap_requests (id, tenant_id, object_type, status_code, response, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`, rec.ID, rec.TenantID, rec.ObjectType, rec.StatusCode, rec.Response, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert soap request: %w", err)
	}
	return nil
}

// GetRequest looks up an audit row, Redis first, then Postgres.
func (s *HybridStore) GetRequest(ctx context.Context, id uuid.UUID) (*model.RequestRecord, error) {
	var rec model.RequestRecord
	err := s.GetJSON(ctx, requestKey(id), &rec)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.logger.Warn("store.request_cache_read_failed", zap.String("id", id.String()), zap.Error(err))
	}

	if s.PG == nil {
		return nil, ErrNotFound
	}
	row := s.PG.QueryRow(ctx, `
		SELECT id, tenant_id, object_type, status_code, response, submitted_at
		FROM billing.soap_requests
		WHERE id = $1;
	`, id)
	if err := row.Scan(&rec.ID, &rec.TenantID, &rec.ObjectType, &rec.StatusCode, &rec.Response, &rec.SubmittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// SetJSON stores an arbitrary value as JSON in Redis with a TTL.
func (s *HybridStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

// GetJSON reads a JSON value from Redis into dest. Returns redis.Nil on miss.
func (s *HybridStore) GetJSON(ctx context.Context, key string, dest any) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG != nil {
		if err := s.PG.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}
	return nil
}

func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
