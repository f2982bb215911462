package template

// Comparison helpers answer "true" or "" so their output can feed
// {{#if}} and {{#unless}} directly.

func truth(ok bool) Value {
	if ok {
		return String("true")
	}
	return String("")
}

// looseEqual compares numerically when both sides read as numbers and
// textually otherwise
func looseEqual(a, b Value) bool {
	fa, okA := a.Float()
	fb, okB := b.Float()
	if okA && okB {
		return fa == fb
	}
	return a.String() == b.String()
}

func eqHelper(v Value, args ...Value) Value {
	return truth(looseEqual(v, arg(args, 0)))
}

func neHelper(v Value, args ...Value) Value {
	return truth(!looseEqual(v, arg(args, 0)))
}

func compareHelper(cmp func(a, b float64) bool) HelperFunc {
	return func(v Value, args ...Value) Value {
		a, okA := v.Float()
		b, okB := arg(args, 0).Float()
		return truth(okA && okB && cmp(a, b))
	}
}

func rawHelper(v Value, _ ...Value) Value {
	return Safe(v)
}
