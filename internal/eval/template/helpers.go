package template

import "sync"

// HelperFunc transforms a value. Filters pass the piped value as v and the
// parsed filter arguments as args.
type HelperFunc func(v Value, args ...Value) Value

// HelperRegistry holds named helpers
type HelperRegistry struct {
	helpers map[string]HelperFunc
	mu      sync.RWMutex
}

// NewHelperRegistry creates a registry seeded with the built-in helpers
func NewHelperRegistry() *HelperRegistry {
	r := &HelperRegistry{helpers: make(map[string]HelperFunc)}
	r.registerBuiltins()
	return r
}

// Register adds or silently replaces a helper
func (r *HelperRegistry) Register(name string, fn HelperFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helpers[name] = fn
}

// Lookup returns the helper registered under name
func (r *HelperRegistry) Lookup(name string) (HelperFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.helpers[name]
	return fn, ok
}

// Len returns the number of registered helpers
func (r *HelperRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.helpers)
}

func (r *HelperRegistry) clone() *HelperRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &HelperRegistry{helpers: make(map[string]HelperFunc, len(r.helpers))}
	for name, fn := range r.helpers {
		out.helpers[name] = fn
	}
	return out
}

// registerBuiltins registers the helpers every engine starts with
func (r *HelperRegistry) registerBuiltins() {
	r.helpers["default"] = defaultHelper
	r.helpers["json"] = jsonHelper
	r.helpers["date"] = dateHelper
	r.helpers["upper"] = upperHelper
	r.helpers["lower"] = lowerHelper
	r.helpers["capitalize"] = capitalizeHelper
	r.helpers["trim"] = trimHelper
	r.helpers["length"] = lengthHelper
	r.helpers["join"] = joinHelper
	r.helpers["number"] = numberHelper

	r.helpers["eq"] = eqHelper
	r.helpers["ne"] = neHelper
	r.helpers["gt"] = compareHelper(func(a, b float64) bool { return a > b })
	r.helpers["gte"] = compareHelper(func(a, b float64) bool { return a >= b })
	r.helpers["lt"] = compareHelper(func(a, b float64) bool { return a < b })
	r.helpers["lte"] = compareHelper(func(a, b float64) bool { return a <= b })

	r.helpers["raw"] = rawHelper
}

// arg returns the i-th argument or Undefined
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
