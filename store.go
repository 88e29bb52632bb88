// FILE: lixenwraith/props/store.go
package props

import (
	"maps"
	"slices"
)

// Store is a layered property map with an active context.
// Lookups try the context-prefixed key before the plain key, then fall through to the parent.
// A store is call-scoped: setting the context and reading must happen on one goroutine.
type Store struct {
	values map[string]string
	parent *Store

	contextPrefix string
	context       string
	prefix        string
}

// NewStore creates an empty store that defaults to parent for absent keys. Parent may be nil.
func NewStore(parent *Store) *Store {
	return &Store{
		values:        make(map[string]string),
		parent:        parent,
		contextPrefix: DefaultContextPrefix,
	}
}

// SetContext sets the active context. An empty contextPrefix selects DefaultContextPrefix,
// an empty context disables prefixed lookups.
func (s *Store) SetContext(contextPrefix, context string) {
	if contextPrefix == "" {
		contextPrefix = DefaultContextPrefix
	}
	s.contextPrefix = contextPrefix
	s.context = context
	if context == "" {
		s.prefix = ""
	} else {
		s.prefix = contextPrefix + context + "."
	}
}

// Context returns the active context prefix and context.
func (s *Store) Context() (contextPrefix, context string) {
	return s.contextPrefix, s.context
}

// Get returns the value for key under the active context.
func (s *Store) Get(key string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.lookup(s.prefix, key); ok {
			return v, true
		}
	}
	return "", false
}

// lookup is the two-step prefixed/plain read of a single layer.
func (s *Store) lookup(prefix, key string) (string, bool) {
	if prefix != "" {
		if v, ok := s.values[prefix+key]; ok {
			return v, true
		}
	}
	v, ok := s.values[key]
	return v, ok
}

// Own returns the value stored in this layer only, ignoring context and parents.
func (s *Store) Own(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value in this layer.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Delete removes a key from this layer.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Load bulk-inserts every entry of each source, later sources overwriting earlier ones.
func (s *Store) Load(sources ...map[string]string) {
	for _, src := range sources {
		maps.Copy(s.values, src)
	}
}

// Parent returns the store consulted for absent keys.
func (s *Store) Parent() *Store {
	return s.parent
}

// Len returns the number of keys in this layer.
func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns this layer's keys, sorted.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Flatten merges all layers into one map, nearer layers winning. Keys are raw, not context-resolved.
func (s *Store) Flatten() map[string]string {
	var chain []*Store
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	flat := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(flat, chain[i].values)
	}
	return flat
}
