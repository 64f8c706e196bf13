package xsd

import (
	"strings"
	"time"
)

// Numeric is the common super-kind of the integer-kind and floating-point
// kind values. All numeric facets (minInclusive etc.) compare through it.
type Numeric interface {
	Value
	Float64() float64
}

// NewNumeric parses a lexical as an integer when possible, else as a float,
// mirroring how numeric facet values arrive from SHACL.
func NewNumeric(lexical string) (Numeric, error) {
	if !strings.ContainsAny(lexical, ".eE") {
		if i, err := NewInteger(lexical); err == nil {
			return i, nil
		}
	}
	f, err := NewFloat(lexical)
	if err != nil {
		return nil, valueErr("invalid numeric value %q", lexical)
	}
	return f, nil
}

// Compare orders two values of compatible kinds: numerics by magnitude,
// date/time values by instant, strings lexicographically. Incompatible
// operands yield a type error.
func Compare(a, b Value) (int, error) {
	if an, ok := a.(Numeric); ok {
		if bn, ok := b.(Numeric); ok {
			af, bf := an.Float64(), bn.Float64()
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}
			return 0, nil
		}
	}
	at, aok := timeOf(a)
	bt, bok := timeOf(b)
	if aok && bok {
		switch {
		case at.Before(bt):
			return -1, nil
		case bt.Before(at):
			return 1, nil
		}
		return 0, nil
	}
	if as, ok := a.(String); ok {
		if bs, ok := b.(String); ok {
			return strings.Compare(as.Value(), bs.Value()), nil
		}
	}
	if !aok && !bok {
		// Final fallback: identical kinds with an ordered lexical form.
		if sameKind(a, b) {
			return strings.Compare(a.String(), b.String()), nil
		}
	}
	return 0, typeErr("cannot compare %T with %T", a, b)
}

func timeOf(v Value) (t time.Time, ok bool) {
	switch x := v.(type) {
	case DateTime:
		return x.t, true
	case DateTimeStamp:
		return x.t, true
	case Date:
		return x.t, true
	case Time:
		return x.t, true
	}
	return t, false
}

func sameKind(a, b Value) bool {
	switch a.(type) {
	case GYear:
		_, ok := b.(GYear)
		return ok
	case GYearMonth:
		_, ok := b.(GYearMonth)
		return ok
	case Date:
		_, ok := b.(Date)
		return ok
	}
	return false
}
