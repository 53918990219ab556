// internal/pylit/parse.go
package pylit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"eipconvert/internal/textio"
)

var (
	ErrSyntax = errors.New("syntax error")
	ErrUnsafe = errors.New("not a literal")
)

// Parse parses src as a single Python literal expression. name is used in
// diagnostics; errors are *textio.ParseError with line and column set.
func Parse(ctx context.Context, name string, src []byte) (Value, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return Value{}, &textio.ParseError{Path: name, Err: err}
	}
	defer tree.Close()

	d := &decoder{name: name, src: src}
	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		return Value{}, d.errorf(bad, ErrSyntax, "unexpected %q", d.snippet(bad))
	}

	var stmt *sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		switch c.Type() {
		case "comment":
		case "expression_statement":
			if stmt != nil {
				return Value{}, d.errorf(c, ErrSyntax, "more than one expression")
			}
			stmt = c
		default:
			return Value{}, d.errorf(c, ErrUnsafe, "%s", c.Type())
		}
	}
	if stmt == nil {
		return Value{}, d.errorf(root, ErrSyntax, "no expression")
	}

	// a bare "1, 2" statement is a tuple
	exprs := d.namedChildren(stmt)
	if len(exprs) == 1 {
		return d.value(exprs[0])
	}
	return d.sequence(stmt, Tuple, exprs)
}

// ParseString is Parse for an in-memory string.
func ParseString(ctx context.Context, name, src string) (Value, error) {
	return Parse(ctx, name, []byte(src))
}

type decoder struct {
	name string
	src  []byte
}

func (d *decoder) errorf(n *sitter.Node, kind error, format string, a ...any) error {
	p := n.StartPoint()
	return &textio.ParseError{
		Path: d.name,
		Line: int(p.Row) + 1,
		Col:  int(p.Column) + 1,
		Err:  fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, a...)),
	}
}

func (d *decoder) text(n *sitter.Node) string {
	return n.Content(d.src)
}

func (d *decoder) snippet(n *sitter.Node) string {
	s := d.text(n)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return s
}

// namedChildren returns the named children of n, comments excluded.
func (d *decoder) namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (d *decoder) at(n *sitter.Node, v Value) Value {
	p := n.StartPoint()
	v.Line = int(p.Row) + 1
	v.Col = int(p.Column) + 1
	return v
}

func (d *decoder) value(n *sitter.Node) (Value, error) {
	switch n.Type() {
	case "dictionary":
		return d.dict(n)
	case "list":
		return d.sequence(n, List, d.namedChildren(n))
	case "tuple":
		return d.sequence(n, Tuple, d.namedChildren(n))
	case "parenthesized_expression":
		inner := d.namedChildren(n)
		if len(inner) != 1 {
			return Value{}, d.errorf(n, ErrSyntax, "empty parentheses")
		}
		return d.value(inner[0])
	case "integer":
		return d.integer(n, d.text(n))
	case "float":
		return d.float(n, d.text(n))
	case "string":
		s, err := d.str(n)
		if err != nil {
			return Value{}, err
		}
		return d.at(n, Value{Kind: String, Str: s}), nil
	case "concatenated_string":
		var b strings.Builder
		for _, c := range d.namedChildren(n) {
			s, err := d.str(c)
			if err != nil {
				return Value{}, err
			}
			b.WriteString(s)
		}
		return d.at(n, Value{Kind: String, Str: b.String()}), nil
	case "none":
		return d.at(n, Value{Kind: None}), nil
	case "true":
		return d.at(n, Value{Kind: Bool, Bool: true}), nil
	case "false":
		return d.at(n, Value{Kind: Bool}), nil
	case "identifier":
		switch d.text(n) {
		case "null":
			return d.at(n, Value{Kind: None}), nil
		case "true":
			return d.at(n, Value{Kind: Bool, Bool: true}), nil
		case "false":
			return d.at(n, Value{Kind: Bool}), nil
		}
		return Value{}, d.errorf(n, ErrUnsafe, "name %q", d.text(n))
	case "unary_operator":
		return d.signed(n)
	}
	return Value{}, d.errorf(n, ErrUnsafe, "%s %q", strings.ReplaceAll(n.Type(), "_", " "), d.snippet(n))
}

func (d *decoder) sequence(n *sitter.Node, kind Kind, elems []*sitter.Node) (Value, error) {
	v := d.at(n, Value{Kind: kind, Items: make([]Value, 0, len(elems))})
	for _, c := range elems {
		it, err := d.value(c)
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, it)
	}
	return v, nil
}

// dict keeps insertion order; a repeated key replaces the value in the
// slot of its first occurrence.
func (d *decoder) dict(n *sitter.Node) (Value, error) {
	v := d.at(n, Value{Kind: Dict})
	index := map[string]int{}
	for _, c := range d.namedChildren(n) {
		if c.Type() != "pair" {
			return Value{}, d.errorf(c, ErrUnsafe, "%s %q", strings.ReplaceAll(c.Type(), "_", " "), d.snippet(c))
		}
		kn, vn := c.ChildByFieldName("key"), c.ChildByFieldName("value")
		if kn == nil || vn == nil {
			return Value{}, d.errorf(c, ErrSyntax, "incomplete pair")
		}
		key, err := d.value(kn)
		if err != nil {
			return Value{}, err
		}
		val, err := d.value(vn)
		if err != nil {
			return Value{}, err
		}
		h, err := hashKey(key)
		if err != nil {
			return Value{}, d.errorf(kn, ErrSyntax, "%v", err)
		}
		if i, ok := index[h]; ok {
			v.Pairs[i].Value = val
			continue
		}
		index[h] = len(v.Pairs)
		v.Pairs = append(v.Pairs, Pair{Key: key, Value: val})
	}
	return v, nil
}

func (d *decoder) signed(n *sitter.Node) (Value, error) {
	op, arg := n.ChildByFieldName("operator"), n.ChildByFieldName("argument")
	if op == nil || arg == nil {
		return Value{}, d.errorf(n, ErrSyntax, "incomplete unary expression")
	}
	sign := d.text(op)
	if sign != "-" && sign != "+" {
		return Value{}, d.errorf(n, ErrUnsafe, "operator %q", sign)
	}
	v, err := d.value(arg)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case Int:
		if sign == "-" {
			v.Int = -v.Int
		}
	case Float:
		if sign == "-" {
			v.Float = -v.Float
		}
	default:
		return Value{}, d.errorf(n, ErrUnsafe, "operator %q on %s", sign, v.Kind)
	}
	return d.at(n, v), nil
}

func (d *decoder) integer(n *sitter.Node, s string) (Value, error) {
	s = strings.TrimRight(s, "lL") // Python 2 long suffix
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		if strings.ContainsAny(s, "jJ") {
			return Value{}, d.errorf(n, ErrUnsafe, "complex number %q", s)
		}
		return Value{}, d.errorf(n, ErrSyntax, "integer %q out of range", s)
	}
	return d.at(n, Value{Kind: Int, Int: i}), nil
}

func (d *decoder) float(n *sitter.Node, s string) (Value, error) {
	if strings.ContainsAny(s, "jJ") {
		return Value{}, d.errorf(n, ErrUnsafe, "complex number %q", s)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil && !math.IsInf(f, 0) {
		return Value{}, d.errorf(n, ErrSyntax, "float %q", s)
	}
	return d.at(n, Value{Kind: Float, Float: f}), nil
}

func (d *decoder) str(n *sitter.Node) (string, error) {
	if n.Type() != "string" {
		return "", d.errorf(n, ErrUnsafe, "%s in string concatenation", n.Type())
	}
	s, err := unquote(d.text(n))
	if err != nil {
		kind := ErrSyntax
		if errors.Is(err, errFString) {
			kind = ErrUnsafe
		}
		return "", d.errorf(n, kind, "%v", err)
	}
	return s, nil
}

// firstError returns the first ERROR or MISSING node under n, depth first.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}
