package template

// Context is the data a template fragment renders against: the fields
// visible to path lookups plus the optional "this" binding of the
// current section or loop item.
type Context struct {
	fields *Map
	this   Value
}

// NewContext builds a root context from Go data. Maps become the context
// fields; any other value becomes the this binding of an empty context.
func NewContext(data any) *Context {
	if c, ok := data.(*Context); ok && c != nil {
		return c
	}
	v := ValueOf(data)
	if m, ok := v.Map(); ok {
		return &Context{fields: m}
	}
	if v.IsMissing() {
		return &Context{fields: NewMap()}
	}
	return &Context{fields: NewMap(), this: v}
}

// This returns the this binding, Undefined when unset
func (c *Context) This() Value { return c.this }

// Value returns the whole context as a map value
func (c *Context) Value() Value { return MapValue(c.fields) }

// Lookup resolves a dotted path against the context
func (c *Context) Lookup(path string) Value { return Resolve(c, path) }

// WithThis derives a context sharing c's fields with a new this binding
func (c *Context) WithThis(v Value) *Context {
	return &Context{fields: c.fields, this: v}
}

// Enter derives the context of a section item: maps overlay their fields
// on c's, and the item always becomes the this binding.
func (c *Context) Enter(v Value) *Context {
	if m, ok := v.Map(); ok {
		return &Context{fields: c.fields.Overlay(m), this: v}
	}
	return c.WithThis(v)
}
