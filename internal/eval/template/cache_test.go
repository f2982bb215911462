package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCacheEvictsEarliestInserted(t *testing.T) {
	e := NewEngine(WithCache(1))

	a1 := e.Compile("A {{x}}")
	assert.Same(t, a1, e.Compile("A {{x}}"))

	b := e.Compile("B {{x}}")
	assert.NotSame(t, a1, b)
	assert.Equal(t, 1, e.CacheLen())

	a2 := e.Compile("A {{x}}")
	assert.NotSame(t, a1, a2, "A was evicted when B arrived and must be re-inserted")
	assert.Equal(t, 1, e.CacheLen())
	assert.NotSame(t, b, e.Compile("B {{x}}"))
}

func TestCompileCacheLookupDoesNotRefresh(t *testing.T) {
	c := NewCache(2)
	build := func(text string) func() *Template {
		return func() *Template { return &Template{text: text} }
	}

	a, _ := c.GetOrAdd("a", build("a"))
	c.GetOrAdd("b", build("b"))

	got, evicted := c.GetOrAdd("a", build("a"))
	assert.Same(t, a, got)
	assert.Empty(t, evicted)

	_, evicted = c.GetOrAdd("c", build("c"))
	assert.Equal(t, []string{"a"}, evicted)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheResize(t *testing.T) {
	c := NewCache(3)
	for _, k := range []string{"a", "b", "c"} {
		c.GetOrAdd(k, func() *Template { return &Template{text: k} })
	}
	assert.Equal(t, []string{"a", "b"}, c.Resize(1))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Capacity())
}

func TestCacheOptions(t *testing.T) {
	e := NewEngine()
	assert.False(t, e.Options().CacheTemplates)
	assert.NotSame(t, e.Compile("x"), e.Compile("x"), "no cache by default")
	assert.Equal(t, 0, e.CacheLen())

	e.SetOptions(WithCache(0))
	opts := e.Options()
	require.True(t, opts.CacheTemplates)
	assert.Equal(t, DefaultCacheSize, opts.CacheSize)
	assert.Same(t, e.Compile("x"), e.Compile("x"))
	assert.Equal(t, 1, e.CacheLen())

	e.SetOptions(WithoutCache())
	assert.Equal(t, 0, e.CacheLen())

	e.SetOptions(WithCache(5))
	assert.Equal(t, 0, e.CacheLen(), "re-enabling starts empty")
}

func TestSetOptionsMerges(t *testing.T) {
	e := NewEngine(WithStrict(true))
	e.SetOptions(WithStrictVariables(true))

	opts := e.Options()
	assert.True(t, opts.Strict)
	assert.True(t, opts.StrictVariables)
	assert.True(t, opts.EscapeHTML)
	assert.NotNil(t, opts.EscapeFunc)

	e.SetOptions(WithEscapeFunc(nil))
	assert.Equal(t, "&lt;", e.Options().EscapeFunc("<"))
}
