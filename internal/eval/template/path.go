package template

import "strings"

// deniedSegments never resolve, at any depth
var deniedSegments = map[string]struct{}{
	"__proto__":   {},
	"prototype":   {},
	"constructor": {},
}

// Resolve looks up a dotted key path. "." is the this binding, or the whole
// context when none is set. Only own keys of maps are followed; anything
// else resolves to Undefined.
func Resolve(ctx *Context, path string) Value {
	if ctx == nil {
		return Undefined
	}
	path = strings.TrimSpace(path)
	if path == "." {
		if ctx.this.kind != KindUndefined {
			return ctx.this
		}
		return ctx.Value()
	}

	segments := strings.Split(path, ".")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
		if _, denied := deniedSegments[segments[i]]; denied {
			return Undefined
		}
	}

	current := ctx.Value()
	if segments[0] == "this" && ctx.this.kind != KindUndefined {
		current = ctx.this
		segments = segments[1:]
	}
	for _, seg := range segments {
		m, ok := current.Map()
		if !ok {
			return Undefined
		}
		next, ok := m.Get(seg)
		if !ok {
			return Undefined
		}
		current = next
	}
	return current
}
