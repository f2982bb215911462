package template

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// encodeJSON writes v as JSON keeping map key order. Lambdas and undefined
// values are dropped from maps and become null inside lists.
func encodeJSON(v Value, indent int) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return "", err
	}
	if indent <= 0 {
		return buf.String(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
		return "", err
	}
	return out.String(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	v = v.Unwrap()
	switch v.kind {
	case KindUndefined, KindNull, KindLambda:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(formatNumber(v.num))
	case KindString:
		return writeJSONString(buf, v.str)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		first := true
		var err error
		v.m.Range(func(key string, item Value) bool {
			if item.kind == KindUndefined || item.kind == KindLambda {
				return true
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = writeJSONString(buf, key); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = writeJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates each value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
