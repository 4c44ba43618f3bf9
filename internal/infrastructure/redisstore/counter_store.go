// Package redisstore guarda los contadores de numeración en Redis (backend SEQUENCE_BACKEND=redis).
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
)

var _ repository.SequenceCounterRepository = (*CounterStore)(nil)

// DefaultPrefix prefijo de claves compartido por la API y el worker.
const DefaultPrefix = "seq"

// CounterStore contadores con INCR: atómico entre procesos, sin transacción. Un número
// emitido dentro de una transacción que luego hace rollback se pierde (hueco), nunca se
// reemite.
type CounterStore struct {
	client *redis.Client
	prefix string
}

// NewClient abre la conexión a partir de la configuración y hace ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.Addr, DB: cfg.DB}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewCounterStore construye el almacén. prefix separa entornos que comparten Redis.
func NewCounterStore(client *redis.Client, prefix string) *CounterStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &CounterStore{client: client, prefix: prefix}
}

func (s *CounterStore) key(scope entity.SequenceScope) string {
	return fmt.Sprintf("%s:%d:%d:%s", s.prefix, scope.CompanyID, scope.CustomerID, scope.Kind)
}

// Next INCR del ámbito.
func (s *CounterStore) Next(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	v, err := s.client.Incr(ctx, s.key(scope)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", s.key(scope), err)
	}
	return v, nil
}

// Current último valor emitido (0 si la clave no existe).
func (s *CounterStore) Current(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	v, err := s.client.Get(ctx, s.key(scope)).Int64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", s.key(scope), err)
	}
	return v, nil
}

// Seed fija el contador solo si todavía no existe (migración desde sequence_counters).
func (s *CounterStore) Seed(ctx context.Context, scope entity.SequenceScope, value int64) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope), value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", s.key(scope), err)
	}
	return ok, nil
}
