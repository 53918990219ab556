// internal/bnmodel/write.go
package bnmodel

import (
	"io"
	"strconv"
	"strings"

	"eipconvert/internal/pylit"
)

// Block renders the vertex as one entry of the CPD object.
func (v Vertex) Block() string {
	var b strings.Builder
	b.WriteString(`"` + v.Name + "\": {\n")

	parents := make([]string, len(v.Parents))
	for i, p := range v.Parents {
		parents[i] = `"` + p + `"`
	}
	b.WriteString(`  "parents": [ ` + strings.Join(parents, ", ") + " ],\n")

	values := make([]string, len(v.Values))
	for i, n := range v.Values {
		values[i] = `"` + strconv.FormatInt(n, 10) + `"`
	}
	b.WriteString(`  "values": [ ` + strings.Join(values, ", ") + " ],\n")

	lines := make([]string, len(v.Tables))
	for i, t := range v.Tables {
		lines[i] = t.line()
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}")
	return b.String()
}

func (t Table) line() string {
	probs := make([]string, len(t.Probs))
	for i, p := range t.Probs {
		probs[i] = `"` + strconv.FormatInt(p.Value, 10) + `":` + pylit.FormatFixed(p.P, 4)
	}
	return `  "` + t.Key + `": { ` + strings.Join(probs, ", ") + " }"
}

// WriteTo writes every vertex block inside one top-level object.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	blocks := make([]string, len(m.Vertices))
	for i, v := range m.Vertices {
		blocks[i] = v.Block()
	}
	n, err := io.WriteString(w, "{\n"+strings.Join(blocks, ",\n")+"\n}\n")
	return int64(n), err
}
