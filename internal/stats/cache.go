package stats

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Cache memoizes stats bundles. Implementations must tolerate Clear racing
// with Set; a lost entry only costs a recomputation.
type Cache interface {
	Get(key string) (models.HabitStats, bool)
	Set(key string, value models.HabitStats)
	Clear()
	Close()
}

// TTLCache is a Cache backed by ristretto with a fixed time-to-live.
type TTLCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewTTLCache(ttl time.Duration) (*TTLCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: constants.StatsCacheMaxEntries * 10,
		MaxCost:     constants.StatsCacheMaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stats cache: %w", err)
	}
	return &TTLCache{cache: c, ttl: ttl}, nil
}

func (c *TTLCache) Get(key string) (models.HabitStats, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return models.HabitStats{}, false
	}
	s, ok := v.(models.HabitStats)
	return s, ok
}

func (c *TTLCache) Set(key string, value models.HabitStats) {
	c.cache.SetWithTTL(key, value, 1, c.ttl)
	c.cache.Wait()
}

func (c *TTLCache) Clear() {
	c.cache.Clear()
}

func (c *TTLCache) Close() {
	c.cache.Close()
}

// NoCache disables memoization.
type NoCache struct{}

func (NoCache) Get(string) (models.HabitStats, bool) { return models.HabitStats{}, false }
func (NoCache) Set(string, models.HabitStats)        {}
func (NoCache) Clear()                               {}
func (NoCache) Close()                               {}
