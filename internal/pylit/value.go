// Package pylit reads Python literal expressions without evaluating them.
//
// Only the data subset is accepted: dicts, lists, tuples, numbers, strings,
// None, True and False (plus JSON's null, true and false). Names, calls,
// operators other than a sign on a number, comprehensions and every other
// expression form are rejected with ErrUnsafe.
package pylit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type of a Value.
type Kind uint8

const (
	None Kind = iota
	Bool
	Int
	Float
	String
	List
	Tuple
	Dict
)

var kindNames = [...]string{"None", "bool", "int", "float", "str", "list", "tuple", "dict"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a parsed literal. Line and Col locate it in the source (1-based).
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Items []Value // List, Tuple
	Pairs []Pair  // Dict, in insertion order

	Line int
	Col  int
}

// Pair is one dict entry.
type Pair struct {
	Key   Value
	Value Value
}

func (v Value) IsNone() bool { return v.Kind == None }

// Get looks up a string key in a dict.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Dict {
		return Value{}, false
	}
	for _, p := range v.Pairs {
		if p.Key.Kind == String && p.Key.Str == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Elements returns the items of a list or tuple.
func (v Value) Elements() ([]Value, error) {
	switch v.Kind {
	case List, Tuple:
		return v.Items, nil
	}
	return nil, fmt.Errorf("'%s' object is not iterable", v.Kind)
}

// Trunc converts a number to an integer the way "%d" does: floats are
// truncated toward zero, bools are 0 or 1. Strings are an error.
func (v Value) Trunc() (int64, error) {
	switch v.Kind {
	case Int:
		return v.Int, nil
	case Bool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case Float:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return 0, fmt.Errorf("cannot convert float %s to integer", formatFloat(v.Float))
		}
		return int64(v.Float), nil
	}
	return 0, fmt.Errorf("a number is required, not %s", v.Kind)
}

// ToInt converts like Python's int(): numbers as Trunc, strings must hold a
// base-10 integer (surrounding whitespace allowed).
func (v Value) ToInt() (int64, error) {
	if v.Kind != String {
		return v.Trunc()
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid literal for int() with base 10: %s", quote(v.Str))
	}
	return n, nil
}

// Number returns the value of an int, float or bool as float64.
func (v Value) Number() (float64, error) {
	switch v.Kind {
	case Int:
		return float64(v.Int), nil
	case Float:
		return v.Float, nil
	case Bool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("must be real number, not %s", v.Kind)
}

// String renders v the way Python's str() does.
func (v Value) String() string {
	if v.Kind == String {
		return v.Str
	}
	return v.repr()
}

func (v Value) repr() string {
	switch v.Kind {
	case None:
		return "None"
	case Bool:
		if v.Bool {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return formatFloat(v.Float)
	case String:
		return quote(v.Str)
	case List:
		return "[" + joinRepr(v.Items) + "]"
	case Tuple:
		if len(v.Items) == 1 {
			return "(" + v.Items[0].repr() + ",)"
		}
		return "(" + joinRepr(v.Items) + ")"
	case Dict:
		parts := make([]string, len(v.Pairs))
		for i, p := range v.Pairs {
			parts[i] = p.Key.repr() + ": " + p.Value.repr()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

func joinRepr(vs []Value) string {
	parts := make([]string, len(vs))
	for i, x := range vs {
		parts[i] = x.repr()
	}
	return strings.Join(parts, ", ")
}

// formatFloat matches Python's float repr: shortest round-trip digits,
// scientific notation outside 1e-4 <= |f| < 1e16.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatFixed formats f like Python's "%.<prec>f", so NaN and the
// infinities come out as nan, inf and -inf.
func FormatFixed(f float64, prec int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func quote(s string) string {
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	var b strings.Builder
	b.WriteString(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case string(r) == q:
			b.WriteString(`\` + q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(q)
	return b.String()
}

// hashKey identifies v as a dict key; values Python considers equal
// (1, 1.0, True) share a key. Lists and dicts are unhashable.
func hashKey(v Value) (string, error) {
	switch v.Kind {
	case None:
		return "N", nil
	case Bool, Int, Float:
		if v.Kind == Int {
			return "n" + strconv.FormatInt(v.Int, 10), nil
		}
		f, _ := v.Number()
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return "n" + strconv.FormatInt(int64(f), 10), nil
		}
		return "f" + strconv.FormatFloat(f, 'g', -1, 64), nil
	case String:
		return "s" + v.Str, nil
	case Tuple:
		var b strings.Builder
		b.WriteString("(")
		for _, it := range v.Items {
			k, err := hashKey(it)
			if err != nil {
				return "", err
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(",")
		}
		b.WriteString(")")
		return b.String(), nil
	}
	return "", fmt.Errorf("unhashable type: '%s'", v.Kind)
}
