// Package stats is a pull-based registry: components register a
// provider and the status server collects a merged snapshot on demand.
package stats

import (
	"sync"
)

type Provider interface {
	Stats() map[string]interface{}
}

type ProviderFunc func() map[string]interface{}

func (f ProviderFunc) Stats() map[string]interface{} {
	return f()
}

var (
	mux       sync.RWMutex
	providers []Provider
)

func Register(p Provider) {
	mux.Lock()
	defer mux.Unlock()
	providers = append(providers, p)
}

// Stats is one merged snapshot. Later-registered providers win on key
// collisions.
type Stats map[string]interface{}

func (m Stats) Int(key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	return v.(int)
}

func Collect() Stats {
	mux.RLock()
	defer mux.RUnlock()

	stats := make(Stats)
	for _, p := range providers {
		for k, v := range p.Stats() {
			stats[k] = v
		}
	}
	return stats
}
