// Package registry provides a generic thread-safe registry for values indexed by key.
//
// Registry is designed for read-heavy workloads using sync.RWMutex. It supports
// any comparable key type and any value type through Go generics, remembers
// insertion order, and can be bounded so that it doubles as a FIFO cache.
//
// # Function Tables
//
// Host function libraries are registries of name to callback:
//
//	funcs := registry.New[string, binding.Func]()
//	funcs.Register("len", lenFunc)
//
// # Bounded Caches
//
// With a capacity the oldest entry is evicted when a new key arrives:
//
//	cache := registry.New(registry.WithCapacity[string, *bytecode.Block](128))
//	block := cache.GetOrCreate(src, func() *bytecode.Block { return compile(src) })
//
// Get counts hits and misses, reported by Stats.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Range iterates over a
// snapshot, so mutations during iteration do not affect it.
package registry
