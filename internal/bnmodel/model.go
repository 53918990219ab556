// internal/bnmodel/model.go
package bnmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"eipconvert/internal/pylit"
	"eipconvert/internal/textio"
)

// ErrMissingKey is returned when a vertex lacks pars, vals or cpds.
var ErrMissingKey = errors.New("missing key")

// Model is a decoded network, vertices in source order.
type Model struct {
	Vertices []Vertex
}

// Vertex is one network node. Values are already 0-based.
type Vertex struct {
	Name    string
	Parents []string
	Values  []int64
	Tables  []Table
}

// Table is the distribution for one combination of parent values. Key is the
// comma-joined combination, or "" for a vertex without parents.
type Table struct {
	Key   string
	Probs []Prob
}

// Prob is the probability P of a vertex value.
type Prob struct {
	Value int64
	P     float64
}

// Parse reads and decodes the model at path ("-" for stdin, gzip accepted).
func Parse(ctx context.Context, path string, log *zap.Logger) (*Model, error) {
	rc, err := textio.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseReader(ctx, path, rc, log)
}

// ParseReader decodes a model from r; name is used in diagnostics.
func ParseReader(ctx context.Context, name string, r io.Reader, log *zap.Logger) (*Model, error) {
	if log == nil {
		log = zap.NewNop()
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	root, err := pylit.Parse(ctx, name, src)
	if err != nil {
		return nil, err
	}
	m, err := Decode(name, root)
	if err != nil {
		return nil, err
	}
	log.Debug("parsed model",
		zap.String("file", textio.DisplayName(name)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("tables", m.tableCount()))
	return m, nil
}

// Decode builds a Model from a parsed literal. name is used in diagnostics.
func Decode(name string, root pylit.Value) (*Model, error) {
	if root.Kind != pylit.Dict {
		return nil, posErr(name, root, fmt.Errorf("model must be a dict, not %s", root.Kind))
	}
	m := &Model{Vertices: make([]Vertex, 0, len(root.Pairs))}
	for _, p := range root.Pairs {
		vx, err := decodeVertex(p.Key.String(), p.Value)
		if err != nil {
			var at *located
			if errors.As(err, &at) {
				return nil, posErr(name, at.v, fmt.Errorf("vertex %q: %w", p.Key.String(), at.err))
			}
			return nil, posErr(name, p.Value, fmt.Errorf("vertex %q: %w", p.Key.String(), err))
		}
		m.Vertices = append(m.Vertices, vx)
	}
	return m, nil
}

func (m *Model) tableCount() int {
	n := 0
	for _, v := range m.Vertices {
		n += len(v.Tables)
	}
	return n
}

// located pins an error to the literal it came from.
type located struct {
	v   pylit.Value
	err error
}

func (l *located) Error() string { return l.err.Error() }
func (l *located) Unwrap() error { return l.err }

func at(v pylit.Value, err error) error { return &located{v: v, err: err} }

func posErr(name string, v pylit.Value, err error) error {
	return &textio.ParseError{Path: name, Line: v.Line, Col: v.Col, Err: err}
}

func field(vdata pylit.Value, key string) (pylit.Value, error) {
	f, ok := vdata.Get(key)
	if !ok {
		return pylit.Value{}, fmt.Errorf("%w %q", ErrMissingKey, key)
	}
	return f, nil
}

func decodeVertex(name string, vdata pylit.Value) (Vertex, error) {
	vx := Vertex{Name: name}
	if vdata.Kind != pylit.Dict {
		return vx, fmt.Errorf("vertex data must be a dict, not %s", vdata.Kind)
	}
	pars, err := field(vdata, "pars")
	if err != nil {
		return vx, err
	}
	vals, err := field(vdata, "vals")
	if err != nil {
		return vx, err
	}
	cpds, err := field(vdata, "cpds")
	if err != nil {
		return vx, err
	}

	parents, err := pars.Elements()
	if err != nil {
		return vx, at(pars, fmt.Errorf("pars: %w", err))
	}
	for _, p := range parents {
		vx.Parents = append(vx.Parents, p.String())
	}

	declared, err := vals.Elements()
	if err != nil {
		return vx, at(vals, fmt.Errorf("vals: %w", err))
	}
	for _, dv := range declared {
		n, err := dv.ToInt()
		if err != nil {
			return vx, at(dv, fmt.Errorf("vals: %w", err))
		}
		vx.Values = append(vx.Values, n-1)
	}

	if cpds.Kind != pylit.Dict {
		return vx, at(cpds, fmt.Errorf("cpds must be a dict, not %s", cpds.Kind))
	}
	for _, entry := range cpds.Pairs {
		if entry.Key.IsNone() {
			continue
		}
		t := Table{}
		if len(vx.Parents) > 0 {
			key, err := priorKey(entry.Key)
			if err != nil {
				return vx, at(entry.Key, fmt.Errorf("cpds key: %w", err))
			}
			t.Key = key
		}
		if entry.Value.Kind != pylit.Dict {
			return vx, at(entry.Value, fmt.Errorf("cpd must be a dict, not %s", entry.Value.Kind))
		}
		for _, pv := range entry.Value.Pairs {
			if pv.Key.IsNone() {
				continue
			}
			v, err := pv.Key.Trunc()
			if err != nil {
				return vx, at(pv.Key, fmt.Errorf("cpd value: %w", err))
			}
			prob, err := pv.Value.Number()
			if err != nil {
				return vx, at(pv.Value, fmt.Errorf("cpd probability: %w", err))
			}
			t.Probs = append(t.Probs, Prob{Value: v, P: prob})
		}
		vx.Tables = append(vx.Tables, t)
	}
	return vx, nil
}

// priorKey joins the parent values of a prior; a string prior contributes
// one element per character.
func priorKey(prior pylit.Value) (string, error) {
	if prior.Kind == pylit.String {
		return strings.Join(strings.Split(prior.Str, ""), ","), nil
	}
	elems, err := prior.Elements()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, ","), nil
}
