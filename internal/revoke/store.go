// Package revoke tracks revoked token ids (jti) until their natural expiry.
package revoke

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a process-local blacklist keyed by jti. Entries carry the
// token's own expiry as TTL, so an entry never outlives the token it
// denies. The cache janitor is disabled: expired entries stop matching
// immediately on read, and reclamation happens through Sweep, driven by
// the caller's scheduler.
type Store struct {
	c *gocache.Cache
}

// NewStore constructs an empty revocation store.
func NewStore() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 0)}
}

// Revoke blacklists jti until expiresAt. Idempotent; a second call for
// the same id overwrites the recorded expiry (last write wins). Tokens
// already past their natural expiry need no entry at all.
func (s *Store) Revoke(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	s.c.Set(jti, struct{}{}, ttl)
}

// IsRevoked reports whether jti is blacklisted and its expiry has not
// yet passed.
func (s *Store) IsRevoked(jti string) bool {
	_, found := s.c.Get(jti)
	return found
}

// Sweep evicts every entry whose expiry has passed, bounding memory
// independent of read traffic.
func (s *Store) Sweep() {
	s.c.DeleteExpired()
}

// Size returns the number of stored entries, including expired ones not
// yet swept.
func (s *Store) Size() int {
	return s.c.ItemCount()
}

// Stats summarizes the store for observability.
type Stats struct {
	Total   int
	Active  int
	Expired int
}

// Stats counts total, still-active, and expired-but-unswept entries.
func (s *Store) Stats() Stats {
	total := s.c.ItemCount()
	active := len(s.c.Items()) // Items omits expired entries
	return Stats{Total: total, Active: active, Expired: total - active}
}
