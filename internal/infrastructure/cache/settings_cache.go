// Package cache decoradores en memoria sobre los repositorios de solo lectura frecuente.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsCache)(nil)

type settingEntry struct {
	value string
	ok    bool
}

// SettingsCache LRU con TTL delante del almacén de ajustes. También guarda las ausencias,
// de modo que un barrido con cientos de plantillas de la misma empresa lee cada clave una vez.
type SettingsCache struct {
	next  repository.SettingsRepository
	cache *lru.LRU[string, settingEntry]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSettingsCache construye el decorador. size <= 0 usa 1024 entradas.
func NewSettingsCache(next repository.SettingsRepository, size int, ttl time.Duration) *SettingsCache {
	if size <= 0 {
		size = 1024
	}
	return &SettingsCache{
		next:  next,
		cache: lru.NewLRU[string, settingEntry](size, nil, ttl),
	}
}

func cacheKey(companyID int64, key string) string {
	return fmt.Sprintf("%d:%s", companyID, key)
}

// Get sirve desde caché o delega y memoriza el resultado (incluida la ausencia).
// Los errores no se memorizan.
func (c *SettingsCache) Get(ctx context.Context, companyID int64, key string) (string, bool, error) {
	k := cacheKey(companyID, key)
	if e, found := c.cache.Get(k); found {
		c.hits.Add(1)
		return e.value, e.ok, nil
	}
	c.misses.Add(1)

	v, ok, err := c.next.Get(ctx, companyID, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Add(k, settingEntry{value: v, ok: ok})
	return v, ok, nil
}

// Set escribe en el almacén y actualiza la entrada local.
func (c *SettingsCache) Set(ctx context.Context, companyID int64, key, value string) error {
	if err := c.next.Set(ctx, companyID, key, value); err != nil {
		c.cache.Remove(cacheKey(companyID, key))
		return err
	}
	c.cache.Add(cacheKey(companyID, key), settingEntry{value: value, ok: true})
	return nil
}

// Purge vacía la caché.
func (c *SettingsCache) Purge() {
	c.cache.Purge()
}

// Stats aciertos y fallos acumulados.
func (c *SettingsCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
