package ir

import "sync"

// arena interns type descriptors for the lifetime of the process.
// Type is comparable, so the descriptor itself is the structural key.
var arena = struct {
	sync.Mutex
	types map[Type]*Type
}{
	types: make(map[Type]*Type, 32),
}

// intern returns the canonical pointer for the shape t.
func intern(t Type) *Type {
	arena.Lock()
	defer arena.Unlock()

	if p, ok := arena.types[t]; ok {
		return p
	}

	p := new(Type)
	*p = t
	arena.types[t] = p

	return p
}

// Interned returns the number of distinct types created so far.
func Interned() int {
	arena.Lock()
	defer arena.Unlock()

	return len(arena.types)
}
