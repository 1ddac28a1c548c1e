package reportgen

import (
	"container/list"
	"fmt"
	"os"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the source cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// SourceCache keeps the bytes of recently used template files. Entries are keyed by
// path and invalidated when the file's modification time or size changes.
type SourceCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
}

type cacheEntry struct {
	key     string
	data    []byte
	modTime time.Time
	size    int64
	expiry  time.Time
	element *list.Element
}

// NewSourceCache creates a cache sized from the global configuration
func NewSourceCache() *SourceCache {
	config := GetGlobalConfig()
	return NewSourceCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewSourceCacheWithConfig creates a new source cache with the given configuration
func NewSourceCacheWithConfig(config CacheConfig) *SourceCache {
	return &SourceCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
	}
}

// Load returns the content of the template at path, reading it only when the
// cached copy is missing, expired or stale.
func (sc *SourceCache) Load(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewDocumentError("stat", path, err)
	}
	if info.IsDir() {
		return nil, NewDocumentError("read", path, fmt.Errorf("is a directory"))
	}

	if data, ok := sc.get(path, info); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	if int64(len(data)) != info.Size() {
		return nil, NewDocumentError("read", path, fmt.Errorf("file changed while reading"))
	}

	sc.set(path, info, data)
	return data, nil
}

func (sc *SourceCache) get(key string, info os.FileInfo) ([]byte, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, exists := sc.cache[key]
	if !exists {
		return nil, false
	}

	if sc.config.TTL > 0 && time.Now().After(entry.expiry) {
		sc.remove(entry)
		return nil, false
	}

	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		sc.remove(entry)
		return nil, false
	}

	sc.lru.MoveToFront(entry.element)
	return entry.data, true
}

func (sc *SourceCache) set(key string, info os.FileInfo, data []byte) {
	if sc.config.MaxSize == 0 {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if existing, exists := sc.cache[key]; exists {
		sc.remove(existing)
	}

	if sc.lru.Len() >= sc.config.MaxSize {
		// Evict least recently used
		if oldest := sc.lru.Back(); oldest != nil {
			sc.remove(oldest.Value.(*cacheEntry))
		}
	}

	entry := &cacheEntry{
		key:     key,
		data:    data,
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	if sc.config.TTL > 0 {
		entry.expiry = time.Now().Add(sc.config.TTL)
	}

	entry.element = sc.lru.PushFront(entry)
	sc.cache[key] = entry
}

// remove must be called with the lock held
func (sc *SourceCache) remove(entry *cacheEntry) {
	delete(sc.cache, entry.key)
	sc.lru.Remove(entry.element)
}

// Remove drops the entry for path
func (sc *SourceCache) Remove(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, exists := sc.cache[path]; exists {
		sc.remove(entry)
	}
}

// Clear removes all entries
func (sc *SourceCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.cache = make(map[string]*cacheEntry)
	sc.lru = list.New()
}

// Size returns the current number of cached templates
func (sc *SourceCache) Size() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.cache)
}
