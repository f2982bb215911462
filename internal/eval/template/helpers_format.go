package template

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	defaultDatePattern = "YYYY-MM-DD"
	defaultLocale      = "en-US"
	maxJSONIndent      = 10
)

// dateLayouts are tried in order when a date helper input is text
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"January 2, 2006",
	"Jan 2, 2006",
}

func defaultHelper(v Value, args ...Value) Value {
	u := v.Unwrap()
	if u.IsMissing() || (u.kind == KindString && u.str == "") {
		return arg(args, 0)
	}
	return v
}

func jsonHelper(v Value, args ...Value) Value {
	if v.kind == KindUndefined {
		return Undefined
	}
	indent := 0
	if f, ok := arg(args, 0).Float(); ok && f > 0 {
		indent = int(math.Min(math.Floor(f), maxJSONIndent))
	}
	out, err := encodeJSON(v, indent)
	if err != nil {
		return Undefined
	}
	return Safe(String(out))
}

func dateHelper(v Value, args ...Value) Value {
	t, ok := parseDate(v)
	if !ok {
		return String("")
	}
	pattern := defaultDatePattern
	if p := arg(args, 0); !p.IsMissing() {
		pattern = p.String()
	}
	r := strings.NewReplacer(
		"YYYY", fmt.Sprintf("%04d", t.Year()),
		"MM", fmt.Sprintf("%02d", int(t.Month())),
		"DD", fmt.Sprintf("%02d", t.Day()),
		"HH", fmt.Sprintf("%02d", t.Hour()),
		"mm", fmt.Sprintf("%02d", t.Minute()),
		"ss", fmt.Sprintf("%02d", t.Second()),
	)
	return String(r.Replace(pattern))
}

// parseDate reads numbers as Unix milliseconds and text with dateLayouts.
// Zone-less inputs are UTC.
func parseDate(v Value) (time.Time, bool) {
	v = v.Unwrap()
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v.num)).UTC(), true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func upperHelper(v Value, _ ...Value) Value {
	return String(strings.ToUpper(v.String()))
}

func lowerHelper(v Value, _ ...Value) Value {
	return String(strings.ToLower(v.String()))
}

func capitalizeHelper(v Value, _ ...Value) Value {
	s := v.String()
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return String("")
	}
	return String(string(unicode.ToUpper(r)) + s[size:])
}

func trimHelper(v Value, _ ...Value) Value {
	return String(strings.TrimSpace(v.String()))
}

func lengthHelper(v Value, _ ...Value) Value {
	v = v.Unwrap()
	switch v.kind {
	case KindList:
		return Number(float64(len(v.list)))
	case KindString:
		return Number(float64(utf8.RuneCountInString(v.str)))
	case KindMap:
		return Number(float64(v.m.Len()))
	}
	return Number(0)
}

func joinHelper(v Value, args ...Value) Value {
	items, ok := v.Items()
	if !ok {
		return String(v.String())
	}
	sep := ","
	if s := arg(args, 0); !s.IsMissing() {
		sep = s.String()
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return String(strings.Join(parts, sep))
}

func numberHelper(v Value, args ...Value) Value {
	f, ok := v.Float()
	if !ok || math.IsInf(f, 0) {
		return String(v.String())
	}
	locale := defaultLocale
	if l := arg(args, 0); !l.IsMissing() {
		locale = l.String()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return String(v.String())
	}
	p := message.NewPrinter(tag)
	return String(p.Sprint(number.Decimal(f, number.MaxFractionDigits(3))))
}
