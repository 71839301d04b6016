package cache

import (
	"fmt"

	"github.com/avikom/catersync/internal/models"
)

// Set bundles one cache per entity kind behind a single lookup.
type Set struct {
	caches map[models.Kind]*Cache
}

// NewSet builds a cache for every known kind from a shared config.
// The Kind field of cfg is ignored.
func NewSet(cfg Config) *Set {
	caches := make(map[models.Kind]*Cache, len(models.Kinds()))
	for _, kind := range models.Kinds() {
		kindCfg := cfg
		kindCfg.Kind = kind
		caches[kind] = New(kindCfg)
	}
	return &Set{caches: caches}
}

// For returns the cache serving kind.
func (s *Set) For(kind models.Kind) (*Cache, error) {
	c, ok := s.caches[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return c, nil
}
