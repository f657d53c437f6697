// Package dedup persists the set of already-delivered posting IDs so a
// posting is notified at most once across runs.
package dedup

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Entry is one persisted dedup record.
type Entry struct {
	ID          string    `json:"id"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
}

// storeFile is the on-disk layout. Round-trips exactly through Save/Load.
type storeFile struct {
	Entries     []Entry   `json:"entries"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store is the dedup store. IsSeen and Record are safe for concurrent use
// while the filter chain classifies postings in parallel.
// Mutex is required because Go maps are NOT thread-safe.
type Store struct {
	mu         sync.Mutex
	filePath   string
	ttl        time.Duration
	maxEntries int
	seen       map[string]time.Time
	loadFailed bool
}

// NewStore creates a store persisted under cacheDir. Entries older than ttl
// are treated as absent; Save keeps at most maxEntries records.
func NewStore(cacheDir string, ttl time.Duration, maxEntries int) *Store {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	return &Store{
		filePath:   filepath.Join(cacheDir, "seen_jobs.json"),
		ttl:        ttl,
		maxEntries: maxEntries,
		seen:       make(map[string]time.Time),
	}
}

// Load reads the persisted entries into memory, dropping expired ones
// permanently. Corrupt or unreadable state loads as empty: the run must
// never fail because the cache file went bad.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read %s: %v — starting empty", s.filePath, err)
			s.loadFailed = true
		}
		return
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("⚠️ Failed to parse %s: %v — starting empty", s.filePath, err)
		return
	}

	cutoff := time.Now().Add(-s.ttl)
	loaded := 0
	for _, e := range f.Entries {
		if e.ID == "" {
			continue
		}
		if e.FirstSeenAt.After(cutoff) {
			s.seen[e.ID] = e.FirstSeenAt
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously seen postings (%d expired and removed)", loaded, len(f.Entries)-loaded)
}

// IsSeen reports whether an ID is present and unexpired.
func (s *Store) IsSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	firstSeen, ok := s.seen[id]
	if !ok {
		return false
	}
	return firstSeen.After(time.Now().Add(-s.ttl))
}

// Record marks an ID as seen now. The first-seen timestamp of an already
// recorded ID is preserved.
func (s *Store) Record(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; !ok {
		s.seen[id] = time.Now()
	}
}

// Len returns the number of in-memory entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Save writes the current entries to disk, newest first up to maxEntries so
// storage stays bounded. Safe to call more than once per run.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.seen))
	for id, ts := range s.seen {
		entries = append(entries, Entry{ID: id, FirstSeenAt: ts})
	}
	//oldest entries beyond capacity are dropped first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FirstSeenAt.After(entries[j].FirstSeenAt)
	})
	if s.maxEntries > 0 && len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}

	data, err := json.MarshalIndent(storeFile{Entries: entries, LastUpdated: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return err
	}
	log.Printf("💾 Saved %d seen postings to cache", len(entries))
	return nil
}

// LoadFailed reports whether Load found an existing cache file it could not
// read. Combined with a failed Save this makes the store unrecoverable.
func (s *Store) LoadFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFailed
}
