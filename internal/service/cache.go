// cache.go — LRU-кэш записей элементов с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Rexchan06/fms-web-app/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fms_cache_hits_total",
		Help: "Общее количество попаданий в кэш записей элементов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fms_cache_misses_total",
		Help: "Общее количество промахов кэша записей элементов.",
	})
)

// ItemCache — per-instance кэш записей элементов с автоматическим TTL.
// nil-значение *ItemCache допустимо и означает отключённый кэш.
type ItemCache struct {
	cache *expirable.LRU[string, *model.Item]
}

// NewItemCache создаёт кэш. При maxSize <= 0 возвращает nil (кэш отключён).
func NewItemCache(maxSize int, ttl time.Duration) *ItemCache {
	if maxSize <= 0 {
		return nil
	}
	return &ItemCache{cache: expirable.NewLRU[string, *model.Item](maxSize, nil, ttl)}
}

// Get возвращает копию записи из кэша.
func (c *ItemCache) Get(id string) (*model.Item, bool) {
	if c == nil {
		return nil, false
	}
	val, ok := c.cache.Get(id)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	cp := *val
	return &cp, true
}

// Set добавляет или обновляет запись.
func (c *ItemCache) Set(item *model.Item) {
	if c == nil || item == nil {
		return
	}
	cp := *item
	c.cache.Add(item.ID, &cp)
}

// Delete удаляет запись (инвалидация при update/delete).
func (c *ItemCache) Delete(id string) {
	if c == nil {
		return
	}
	c.cache.Remove(id)
}

// Len возвращает количество записей в кэше.
func (c *ItemCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
