package registry

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Registry is a thread-safe map of values indexed by key that remembers
// insertion order. A registry created with a capacity evicts its oldest
// entry when a new key would exceed it.
type Registry[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]*list.Element
	order    *list.List
	capacity int
	onEvict  func(K, V)

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Option configures a Registry.
type Option[K comparable, V any] func(*Registry[K, V])

// WithCapacity bounds the registry to n entries. Zero or negative means
// unbounded.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(r *Registry[K, V]) {
		r.capacity = n
	}
}

// WithEvictHook sets a callback run, outside the lock, for every entry
// evicted by capacity.
func WithEvictHook[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(r *Registry[K, V]) {
		r.onEvict = fn
	}
}

// New creates a new empty registry.
func New[K comparable, V any](opts ...Option[K, V]) *Registry[K, V] {
	r := &Registry[K, V]{
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or updates a value. Updating an existing key keeps its
// position in the eviction order.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	evicted := r.put(key, value)
	r.mu.Unlock()
	r.notify(evicted)
}

// RegisterMany adds multiple entries.
func (r *Registry[K, V]) RegisterMany(entries map[K]V) {
	r.mu.Lock()
	var evicted []entry[K, V]
	for k, v := range entries {
		evicted = append(evicted, r.put(k, v)...)
	}
	r.mu.Unlock()
	r.notify(evicted)
}

// put must be called with the write lock held.
func (r *Registry[K, V]) put(key K, value V) []entry[K, V] {
	if el, ok := r.entries[key]; ok {
		el.Value.(*entry[K, V]).value = value
		return nil
	}
	r.entries[key] = r.order.PushBack(&entry[K, V]{key: key, value: value})

	var evicted []entry[K, V]
	for r.capacity > 0 && r.order.Len() > r.capacity {
		oldest := r.order.Front()
		e := oldest.Value.(*entry[K, V])
		r.order.Remove(oldest)
		delete(r.entries, e.key)
		evicted = append(evicted, *e)
	}
	return evicted
}

func (r *Registry[K, V]) notify(evicted []entry[K, V]) {
	if r.onEvict == nil {
		return
	}
	for _, e := range evicted {
		r.onEvict(e.key, e.value)
	}
}

// Get returns the value for a key and whether it exists. Lookups are
// counted in Stats.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	el, ok := r.entries[key]
	var v V
	if ok {
		v = el.Value.(*entry[K, V]).value
	}
	r.mu.RUnlock()

	if ok {
		r.hits.Add(1)
	} else {
		r.misses.Add(1)
	}
	return v, ok
}

// MustGet returns the value for a key, panicking if not found.
func (r *Registry[K, V]) MustGet(key K) V {
	v, ok := r.Get(key)
	if !ok {
		panic("registry: key not found")
	}
	return v
}

// Has returns true if the key exists.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key and reports whether it was present.
func (r *Registry[K, V]) Delete(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.entries[key]
	if !ok {
		return false
	}
	r.order.Remove(el)
	delete(r.entries, key)
	return true
}

// Clear removes every entry and resets the lookup counters.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.order.Init()
	r.hits.Store(0)
	r.misses.Store(0)
}

// Keys returns all keys, oldest first.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Len returns the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Capacity returns the configured bound, zero when unbounded.
func (r *Registry[K, V]) Capacity() int {
	return r.capacity
}

// Range calls fn for each entry, oldest first, until fn returns false.
//
// Range iterates over a snapshot, so fn may call Register or Delete
// without affecting the current iteration.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	snapshot := make([]entry[K, V], 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		snapshot = append(snapshot, *el.Value.(*entry[K, V]))
	}
	r.mu.RUnlock()

	for _, e := range snapshot {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// GetOrCreate returns the value for a key, creating it with factory if it
// doesn't exist. The factory is called at most once per key, even under
// concurrent access.
func (r *Registry[K, V]) GetOrCreate(key K, factory func() V) V {
	if v, ok := r.Get(key); ok {
		return v
	}

	r.mu.Lock()
	if el, ok := r.entries[key]; ok {
		r.mu.Unlock()
		return el.Value.(*entry[K, V]).value
	}
	v := factory()
	evicted := r.put(key, v)
	r.mu.Unlock()
	r.notify(evicted)
	return v
}

// Stats reports lookup counters since creation or the last Clear.
type Stats struct {
	Entries  int
	Capacity int
	Hits     int64
	Misses   int64
}

// HitRatio returns hits / lookups, or zero when nothing was looked up.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters.
func (r *Registry[K, V]) Stats() Stats {
	return Stats{
		Entries:  r.Len(),
		Capacity: r.capacity,
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
	}
}
