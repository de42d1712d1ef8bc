// Package cache is an in-process TTL store for turn pipeline artifacts:
// memoized analyses and tool results, plus the token ledger for pending
// confirmations. Keys are namespaced digests so identical work within a
// conversation is recognized across turns. Absence is never an error: every
// caller must handle an empty store as the cold path.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache namespaces. Analysis results and tool results are short-lived;
// raw tool payloads keep a longer horizon for follow-up questions.
const (
	NamespaceAnalysis    = "query_analysis"
	NamespaceToolResults = "tool_results"
	NamespaceToolData    = "tool_data"
)

// Default entry lifetimes per namespace.
const (
	DefaultAnalysisTTL    = time.Hour
	DefaultToolResultsTTL = time.Hour
	DefaultToolDataTTL    = 2 * time.Hour
)

// Key derives a namespaced cache key from its identifying parts. The digest
// keeps keys bounded regardless of transcript size.
func Key(namespace string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return namespace + ":" + hex.EncodeToString(h[:])[:32]
}

// Fingerprint digests a set of items order-independently. The input slice is
// not modified.
func Fingerprint(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(h[:])[:32]
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Entries     int            `json:"entries"`
	ByNamespace map[string]int `json:"by_namespace"`
	Hits        uint64         `json:"hits"`
	Misses      uint64         `json:"misses"`
	Evictions   uint64         `json:"evictions"`
}

// Store is a mutex-guarded TTL map. Expired entries are dropped lazily on
// read and in bulk by Sweep.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits      uint64
	misses    uint64
	evictions uint64

	// now is swappable for tests.
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set stores value under key for ttl. A non-positive ttl is rejected by
// storing nothing, so a misconfigured TTL cannot pin entries forever.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// Get returns the live value for key. Expired entries count as misses and
// are removed on the spot.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.entries, key)
		s.evictions++
		s.misses++
		return nil, false
	}
	s.hits++
	return e.value, true
}

// Scan returns the keys of live entries satisfying pred. Expired entries are
// skipped but left for Sweep.
func (s *Store) Scan(pred func(key string, value any) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var keys []string
	for k, e := range s.entries {
		if !e.expiresAt.After(now) {
			continue
		}
		if pred(k, e.value) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear drops every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	return n
}

// Sweep removes all expired entries and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for k, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, k)
			dropped++
		}
	}
	s.evictions += uint64(dropped)
	return dropped
}

// Len returns the number of entries, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats reports counts overall and per namespace.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byNS := make(map[string]int)
	for k := range s.entries {
		ns := k
		if i := strings.IndexByte(k, ':'); i >= 0 {
			ns = k[:i]
		}
		byNS[ns]++
	}
	return Stats{
		Entries:     len(s.entries),
		ByNamespace: byNS,
		Hits:        s.hits,
		Misses:      s.misses,
		Evictions:   s.evictions,
	}
}
