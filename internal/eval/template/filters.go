package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var numericLiteral = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// filterCall is one `name:arg,arg` element of a filter chain
type filterCall struct {
	name string
	args []string
}

// expression is `path | filter | filter:arg`
type expression struct {
	path    string
	filters []filterCall
}

func parseExpression(text string) expression {
	parts := splitQuoted(text, '|')
	expr := expression{path: strings.TrimSpace(parts[0])}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		expr.filters = append(expr.filters, parseFilter(part))
	}
	return expr
}

func parseFilter(text string) filterCall {
	name, rest, hasArgs := strings.Cut(text, ":")
	call := filterCall{name: strings.TrimSpace(name)}
	if !hasArgs {
		return call
	}
	for _, a := range splitQuoted(rest, ',') {
		call.args = append(call.args, strings.TrimSpace(a))
	}
	return call
}

// splitQuoted splits on sep outside of single or double quoted runs
func splitQuoted(s string, sep byte) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// argValue classifies a filter argument: quoted literal, then numeric
// literal, then a path lookup that falls back to the raw token.
func argValue(token string, ctx *Context) Value {
	if n := len(token); n >= 2 && (token[0] == '\'' || token[0] == '"') && token[n-1] == token[0] {
		return String(token[1 : n-1])
	}
	if numericLiteral.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return Number(f)
		}
	}
	if v := Resolve(ctx, token); !v.IsMissing() {
		return v
	}
	return String(token)
}

// applyFilters left-folds the filter chain over v
func (r *renderer) applyFilters(v Value, filters []filterCall, ctx *Context) (Value, error) {
	for _, f := range filters {
		helper, ok := r.engine.helpers.Lookup(f.name)
		if !ok {
			if r.opts.Strict {
				return Undefined, fmt.Errorf("%w: %s", ErrUnknownHelper, f.name)
			}
			r.logger.Debug("unknown helper, passing value through", zap.String("helper", f.name))
			continue
		}
		args := make([]Value, len(f.args))
		for i, token := range f.args {
			args[i] = argValue(token, ctx)
		}
		v = helper(v, args...)
	}
	return v, nil
}
