package template

import "sync"

// PartialRegistry holds named sub-templates. Lookups happen at render time,
// so the latest registration under a name always wins.
type PartialRegistry struct {
	partials map[string]string
	mu       sync.RWMutex
}

// NewPartialRegistry creates an empty registry
func NewPartialRegistry() *PartialRegistry {
	return &PartialRegistry{partials: make(map[string]string)}
}

// Register adds or replaces a partial
func (r *PartialRegistry) Register(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials[name] = text
}

// Lookup returns the text registered under name
func (r *PartialRegistry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	text, ok := r.partials[name]
	return text, ok
}

// Len returns the number of registered partials
func (r *PartialRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.partials)
}

func (r *PartialRegistry) clone() *PartialRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &PartialRegistry{partials: make(map[string]string, len(r.partials))}
	for name, text := range r.partials {
		out.partials[name] = text
	}
	return out
}
