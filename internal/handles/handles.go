// Package handles maps Go objects to uintptr cookies that can be stored in
// C memory.
//
// libdav1d's pluggable allocator carries an opaque cookie pointer and hands
// it back on every allocate/release callback. Go pointers must not be stored
// in C-visible memory, so callers register the Go object here and store the
// returned cookie instead. The object stays reachable until Unregister.
package handles

import (
	"sync"
)

var (
	mu      sync.RWMutex
	table           = make(map[uintptr]any)
	nextKey uintptr = 1
)

// Register stores v and returns a cookie that is safe to hand to C code.
// The object stays reachable (and is never collected) until Unregister.
func Register(v any) uintptr {
	mu.Lock()
	defer mu.Unlock()
	key := nextKey
	nextKey++
	table[key] = v
	return key
}

// Lookup returns the object registered under cookie, or nil.
func Lookup(cookie uintptr) any {
	mu.RLock()
	defer mu.RUnlock()
	return table[cookie]
}

// Unregister drops the cookie, allowing the object to be collected.
func Unregister(cookie uintptr) {
	mu.Lock()
	defer mu.Unlock()
	delete(table, cookie)
}

// Count reports the number of live cookies. Used by leak tests.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(table)
}
