package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	commentPattern    = regexp.MustCompile(`(?s)\{\{!--.*?--\}\}|\{\{!.*?\}\}`)
	partialPattern    = regexp.MustCompile(`(?m)(^[ \t]+)?\{\{>\s*([^\s{}]+)(?:\s+([^\s{}]+))?\s*\}\}`)
	standalonePattern = regexp.MustCompile(`(?m)^[ \t]*(\{\{[#^/!>][^{}]*\}\})[ \t]*(?:\r?\n|\z)`)
	sectionPattern    = regexp.MustCompile(`\{\{#\s*([\w.@$-]+)\s*\}\}`)
	invertedPattern   = regexp.MustCompile(`\{\{\^\s*([\w.@$-]+)\s*\}\}`)
	ifPattern         = regexp.MustCompile(`(?s)\{\{#if\s+([^{}]*?)\s*\}\}(.*?)\{\{\s*/if\s*\}\}`)
	unlessPattern     = regexp.MustCompile(`(?s)\{\{#unless\s+([^{}]*?)\s*\}\}(.*?)\{\{\s*/unless\s*\}\}`)
	eachPattern       = regexp.MustCompile(`(?s)\{\{#each\s+([^{}]*?)\s*\}\}(.*?)\{\{\s*/each\s*\}\}`)
	elsePattern       = regexp.MustCompile(`\{\{\s*else\s*\}\}`)
	triplePattern     = regexp.MustCompile(`(?s)\{\{\{(.*?)\}\}\}`)
	doublePattern     = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
)

// renderer runs the passes with a snapshot of the engine configuration
type renderer struct {
	engine *Engine
	opts   Options
	logger *zap.Logger
}

type pass func(r *renderer, text string, ctx *Context) (string, error)

// render runs every pass, in order, over one working copy of text. Each
// pass handles all directives of its kind before the next one starts.
func (r *renderer) render(text string, ctx *Context) (string, error) {
	passes := [...]pass{
		(*renderer).stripComments,
		(*renderer).expandPartials,
		(*renderer).trimStandalone,
		(*renderer).renderSections,
		(*renderer).renderInverted,
		(*renderer).renderIf,
		(*renderer).renderUnless,
		(*renderer).renderEach,
		(*renderer).interpolateRaw,
		(*renderer).interpolateEscaped,
	}
	var err error
	for _, p := range passes {
		if text, err = p(r, text, ctx); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (r *renderer) stripComments(text string, _ *Context) (string, error) {
	return commentPattern.ReplaceAllString(text, ""), nil
}

// expandPartials renders {{> name [path]}} recursively. Whitespace leading
// the tag on its line indents every line of the partial's output.
func (r *renderer) expandPartials(text string, ctx *Context) (string, error) {
	return replaceMatches(partialPattern, text, func(m []string) (string, error) {
		indent, name, path := m[1], m[2], m[3]
		body, ok := r.engine.partials.Lookup(name)
		if !ok {
			if r.opts.Strict {
				return "", fmt.Errorf("%w: %s", ErrUnknownPartial, name)
			}
			return "", nil
		}

		child := ctx
		if path != "" {
			child = ctx.Enter(Resolve(ctx, path))
		}
		out, err := r.render(body, child)
		if err != nil {
			return "", err
		}
		if indent == "" {
			return out, nil
		}
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			lines[i] = indent + line
		}
		return strings.Join(lines, "\n"), nil
	})
}

// trimStandalone removes the indentation and line break around structural
// tags that sit alone on their line
func (r *renderer) trimStandalone(text string, _ *Context) (string, error) {
	return standalonePattern.ReplaceAllString(text, "${1}"), nil
}

func (r *renderer) renderSections(text string, ctx *Context) (string, error) {
	return replaceBlocks(sectionPattern, text, func(name, body string) (string, error) {
		v := Resolve(ctx, name)

		if fn, ok := v.Lambda(); ok {
			out, err := r.callLambda(fn, LambdaCall{
				Context: ctx,
				Text:    body,
				Render:  func(s string) (string, error) { return r.render(s, ctx) },
			})
			if err != nil {
				r.logger.Debug("section lambda failed", zap.String("section", name), zap.Error(err))
				return "", nil
			}
			if out.kind == KindString {
				return r.render(out.str, ctx)
			}
			return out.String(), nil
		}

		if items, ok := v.Items(); ok {
			var b strings.Builder
			for _, item := range items {
				out, err := r.render(body, ctx.Enter(item))
				if err != nil {
					return "", err
				}
				b.WriteString(out)
			}
			return b.String(), nil
		}

		if v.Truthy() {
			return r.render(body, ctx.Enter(v))
		}
		return "", nil
	})
}

func (r *renderer) renderInverted(text string, ctx *Context) (string, error) {
	return replaceBlocks(invertedPattern, text, func(name, body string) (string, error) {
		v := Resolve(ctx, name)
		items, isList := v.Items()
		if !v.Truthy() || (isList && len(items) == 0) {
			return r.render(body, ctx)
		}
		return "", nil
	})
}

// renderIf substitutes the chosen branch without rendering it; later passes
// of the current render pick up its directives.
func (r *renderer) renderIf(text string, ctx *Context) (string, error) {
	return r.renderConditional(ifPattern, text, ctx, true)
}

func (r *renderer) renderUnless(text string, ctx *Context) (string, error) {
	return r.renderConditional(unlessPattern, text, ctx, false)
}

func (r *renderer) renderConditional(re *regexp.Regexp, text string, ctx *Context, want bool) (string, error) {
	return replaceMatches(re, text, func(m []string) (string, error) {
		cond, err := r.condition(m[1], ctx)
		if err != nil {
			return "", err
		}
		then, otherwise := splitElse(m[2])
		if cond.Truthy() == want {
			return then, nil
		}
		return otherwise, nil
	})
}

// renderEach expands {{#each}} blocks. Loop variables are substituted
// literally before each item is rendered with the item as this.
func (r *renderer) renderEach(text string, ctx *Context) (string, error) {
	return replaceMatches(eachPattern, text, func(m []string) (string, error) {
		v, err := r.condition(m[1], ctx)
		if err != nil {
			return "", err
		}
		body, empty := splitElse(m[2])
		items, ok := v.Items()
		if !ok || len(items) == 0 {
			return empty, nil
		}

		var b strings.Builder
		last := len(items) - 1
		for i, item := range items {
			s := item.String()
			vars := strings.NewReplacer(
				"{{this}}", s,
				"{{.}}", s,
				"{{@index}}", strconv.Itoa(i),
				"{{@first}}", truth(i == 0).str,
				"{{@last}}", truth(i == last).str,
			)
			out, err := r.render(vars.Replace(body), ctx.WithThis(item))
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
		return b.String(), nil
	})
}

// interpolateRaw handles {{{ expr }}}, which is never escaped
func (r *renderer) interpolateRaw(text string, ctx *Context) (string, error) {
	return replaceMatches(triplePattern, text, func(m []string) (string, error) {
		v, _, err := r.interpolate(m[1], ctx)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	})
}

func (r *renderer) interpolateEscaped(text string, ctx *Context) (string, error) {
	return replaceMatches(doublePattern, text, func(m []string) (string, error) {
		expr := strings.TrimSpace(m[1])
		if expr == "" || strings.HasPrefix(expr, "#") || strings.HasPrefix(expr, "/") || strings.HasPrefix(expr, ">") {
			return "", nil
		}
		v, path, err := r.interpolate(expr, ctx)
		if err != nil {
			return "", err
		}
		if v.IsMissing() {
			if r.opts.StrictVariables {
				return "", fmt.Errorf("%w: %s", ErrUnknownVariable, path)
			}
			return "", nil
		}
		if v.IsSafe() || !r.opts.EscapeHTML {
			return v.String(), nil
		}
		return r.opts.EscapeFunc(v.String()), nil
	})
}

// interpolate resolves `path | filters`, invoking lambda values with the
// context as receiver
func (r *renderer) interpolate(text string, ctx *Context) (Value, string, error) {
	expr := parseExpression(text)
	v := Resolve(ctx, expr.path)
	if fn, ok := v.Lambda(); ok {
		out, err := r.callLambda(fn, LambdaCall{Context: ctx})
		if err != nil {
			r.logger.Debug("lambda failed", zap.String("path", expr.path), zap.Error(err))
			out = String("")
		}
		v = out
	}
	v, err := r.applyFilters(v, expr.filters, ctx)
	return v, expr.path, err
}

// condition evaluates the argument of if, unless and each
func (r *renderer) condition(text string, ctx *Context) (Value, error) {
	expr := parseExpression(text)
	return r.applyFilters(Resolve(ctx, expr.path), expr.filters, ctx)
}

func (r *renderer) callLambda(fn Lambda, call LambdaCall) (v Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = Undefined, fmt.Errorf("lambda panicked: %v", p)
		}
	}()
	out, err := fn(call)
	if err != nil {
		return Undefined, err
	}
	return ValueOf(out), nil
}

// splitElse cuts a block at its first {{else}}
func splitElse(block string) (string, string) {
	loc := elsePattern.FindStringIndex(block)
	if loc == nil {
		return block, ""
	}
	return block[:loc[0]], block[loc[1]:]
}

// replaceMatches substitutes every non-overlapping match of re in a single
// left-to-right sweep. Replacement text is not rescanned.
func replaceMatches(re *regexp.Regexp, text string, fn func(groups []string) (string, error)) (string, error) {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil
	}
	var b strings.Builder
	last := 0
	for _, loc := range matches {
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = text[loc[2*g]:loc[2*g+1]]
			}
		}
		out, err := fn(groups)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(out)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// replaceBlocks is replaceMatches for blocks whose closing tag repeats the
// opening name. The body ends at the first matching closing tag.
func replaceBlocks(open *regexp.Regexp, text string, fn func(name, body string) (string, error)) (string, error) {
	var b strings.Builder
	pos := 0
	for {
		loc := open.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		name := text[pos+loc[2] : pos+loc[3]]

		closing := regexp.MustCompile(`\{\{\s*/\s*` + regexp.QuoteMeta(name) + `\s*\}\}`)
		closeLoc := closing.FindStringIndex(text[end:])
		if closeLoc == nil {
			b.WriteString(text[pos:end])
			pos = end
			continue
		}

		out, err := fn(name, text[end:end+closeLoc[0]])
		if err != nil {
			return "", err
		}
		b.WriteString(text[pos:start])
		b.WriteString(out)
		pos = end + closeLoc[1]
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
