package stencil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CachedStorage wraps a TemplateStorage and caches lookups in memory.
// Latest-version lookups expire after TTL; specific versions never change
// once saved, so they stay cached until evicted or invalidated. Writes
// through the wrapper invalidate the affected name.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig
	now     func() time.Time

	mu       sync.Mutex
	latest   map[string]*cacheEntry
	versions map[string]map[int]*cacheEntry
	size     int
	hits     int
	misses   int
	closed   bool
}

// CacheConfig configures CachedStorage.
type CacheConfig struct {
	// TTL bounds how long a cached latest version is trusted.
	TTL time.Duration

	// MaxEntries caps cached entries; the least recently used is evicted.
	MaxEntries int

	// NegativeTTL is how long a "not found" answer is cached. Zero
	// disables negative caching.
	NegativeTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:         CacheDefaultTTL,
		MaxEntries:  CacheDefaultMaxEntries,
		NegativeTTL: CacheDefaultNegativeTTL,
	}
}

// CacheStats is a snapshot of CachedStorage counters.
type CacheStats struct {
	Entries  int
	Negative int
	Hits     int
	Misses   int
}

type cacheEntry struct {
	template   *StoredTemplate
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// NewCachedStorage wraps storage. Zero config fields take their defaults.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL <= 0 {
		config.TTL = CacheDefaultTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = CacheDefaultMaxEntries
	}
	return &CachedStorage{
		storage:  storage,
		config:   config,
		now:      time.Now,
		latest:   make(map[string]*cacheEntry),
		versions: make(map[string]map[int]*cacheEntry),
	}
}

// Get returns the latest version of a template, from cache when fresh.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.latest[name]; ok && s.fresh(entry) {
		entry.accessedAt = s.now()
		s.hits++
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}
	s.misses++
	s.mu.Unlock()

	tmpl, err := s.storage.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) && s.config.NegativeTTL > 0 {
			s.put(name, 0, nil)
		}
		return nil, err
	}
	s.put(name, 0, tmpl)
	s.put(name, tmpl.Version, tmpl)
	return copyStoredTemplate(tmpl), nil
}

// GetVersion returns one version, from cache when present.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.versions[name][version]; ok {
		entry.accessedAt = s.now()
		s.hits++
		s.mu.Unlock()
		return copyStoredTemplate(entry.template), nil
	}
	s.misses++
	s.mu.Unlock()

	tmpl, err := s.storage.GetVersion(ctx, name, version)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	s.put(name, version, tmpl)
	return copyStoredTemplate(tmpl), nil
}

// Save stores tmpl and drops the cached latest version of its name.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.mu.Lock()
	s.drop(tmpl.Name, 0)
	s.mu.Unlock()
	return nil
}

// Delete removes every version and its cache entries.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// DeleteVersion removes one version. The latest entry is dropped too,
// since it may have been the deleted version.
func (s *CachedStorage) DeleteVersion(ctx context.Context, name string, version int) error {
	if err := s.storage.DeleteVersion(ctx, name, version); err != nil {
		return err
	}
	s.mu.Lock()
	s.drop(name, 0)
	s.drop(name, version)
	s.mu.Unlock()
	return nil
}

// List always reads through.
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists answers from a fresh latest entry, or reads through.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.latest[name]; ok && s.fresh(entry) {
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// ListVersions always reads through.
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close drops the cache and closes the wrapped storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.latest = make(map[string]*cacheEntry)
	s.versions = make(map[string]map[int]*cacheEntry)
	s.size = 0
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate drops every cached entry of name.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drop(name, 0)
	for version := range s.versions[name] {
		s.drop(name, version)
	}
}

// InvalidateAll empties the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = make(map[string]*cacheEntry)
	s.versions = make(map[string]map[int]*cacheEntry)
	s.size = 0
}

// Stats counts the cached entries.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CacheStats{Entries: s.size, Hits: s.hits, Misses: s.misses}
	for _, entry := range s.latest {
		if entry.notFound {
			stats.Negative++
		}
	}
	return stats
}

func (s *CachedStorage) fresh(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeTTL
	}
	return s.now().Sub(entry.cachedAt) < ttl
}

// put caches tmpl under name; version 0 is the latest slot and a nil
// template records a miss (caller holds mu)
func (s *CachedStorage) put(name string, version int, tmpl *StoredTemplate) {
	s.drop(name, version)
	if s.size >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := s.now()
	entry := &cacheEntry{
		template:   copyStoredTemplate(tmpl),
		notFound:   tmpl == nil,
		cachedAt:   now,
		accessedAt: now,
	}
	if version == 0 {
		s.latest[name] = entry
	} else {
		byVersion := s.versions[name]
		if byVersion == nil {
			byVersion = make(map[int]*cacheEntry)
			s.versions[name] = byVersion
		}
		byVersion[version] = entry
	}
	s.size++
}

// drop removes one slot (caller holds mu)
func (s *CachedStorage) drop(name string, version int) {
	if version == 0 {
		if _, ok := s.latest[name]; ok {
			delete(s.latest, name)
			s.size--
		}
		return
	}
	byVersion := s.versions[name]
	if _, ok := byVersion[version]; ok {
		delete(byVersion, version)
		s.size--
		if len(byVersion) == 0 {
			delete(s.versions, name)
		}
	}
}

// evictOldest drops the least recently accessed entry (caller holds mu)
func (s *CachedStorage) evictOldest() {
	var (
		oldestName    string
		oldestVersion int
		oldest        *cacheEntry
	)
	for name, entry := range s.latest {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldestVersion, oldest = name, 0, entry
		}
	}
	for name, byVersion := range s.versions {
		for version, entry := range byVersion {
			if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
				oldestName, oldestVersion, oldest = name, version, entry
			}
		}
	}
	if oldest != nil {
		s.drop(oldestName, oldestVersion)
	}
}
