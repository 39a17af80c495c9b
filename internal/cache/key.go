// Package cache stores built pharmacogenomic profiles so repeated analyses
// of the same VCF content and drug skip inference.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
)

// Key derives the cache key for a VCF body and drug analyzed against the
// knowledge base identified by tables. Drug names are case-insensitive.
func Key(tables, content, drug string) string {
	h := sha256.New()
	h.Write([]byte(tables))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(strings.TrimSpace(drug))))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// Stats holds hit and miss counters for a cache tier
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits over lookups, or 0 before the first lookup
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}
}
