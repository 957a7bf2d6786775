package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/comalice/eventgrid/internal/core"
	"github.com/comalice/eventgrid/internal/primitives"
)

// DefaultVisualizer renders a topology snapshot as Graphviz DOT or JSON.
type DefaultVisualizer struct{}

var _ core.Visualizer = (*DefaultVisualizer)(nil)

// Visualize implements core.Visualizer with DOT output.
func (v *DefaultVisualizer) Visualize(t core.Topology) (string, error) {
	return v.ExportDOT(t), nil
}

// ExportDOT generates Graphviz DOT source for the topology. Processes are
// grouped into one cluster per z layer; processes with nonzero state are
// highlighted. Edges to vacant coordinates are drawn to dashed placeholder
// nodes.
func (v *DefaultVisualizer) ExportDOT(t core.Topology) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Grid {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	resident := make(map[primitives.Coord]bool, len(t.Processes))
	for _, p := range t.Processes {
		resident[p.Coord] = true
	}

	for _, layer := range layers(t.Processes) {
		renderLayer(&buf, layer)
	}

	for _, dst := range vacantTargets(t.Edges, resident) {
		buf.WriteString(fmt.Sprintf("  %q [label=%q style=dashed];\n", dst.String(), dst.String()))
	}

	for _, e := range sortedEdges(t.Edges) {
		buf.WriteString(fmt.Sprintf("  %q -> %q [label=\"d=%d\"];\n", e.Src.String(), e.Dst.String(), e.Delay))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the topology to JSON.
func (v *DefaultVisualizer) ExportJSON(t core.Topology) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

type layer struct {
	z     int32
	procs []primitives.Process
}

// layers groups processes by z, each layer sorted by (x, y).
func layers(procs []primitives.Process) []layer {
	byZ := make(map[int32][]primitives.Process)
	for _, p := range procs {
		byZ[p.Coord.Z] = append(byZ[p.Coord.Z], p)
	}
	out := make([]layer, 0, len(byZ))
	for z, ps := range byZ {
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].Coord.X != ps[j].Coord.X {
				return ps[i].Coord.X < ps[j].Coord.X
			}
			return ps[i].Coord.Y < ps[j].Coord.Y
		})
		out = append(out, layer{z: z, procs: ps})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

func renderLayer(buf *bytes.Buffer, l layer) {
	buf.WriteString(fmt.Sprintf("  subgraph cluster_z%d {\n", l.z))
	buf.WriteString(fmt.Sprintf("    label=\"z=%d\";\n", l.z))
	for _, p := range l.procs {
		style := ""
		if p.State != 0 {
			style = ` style=filled fillcolor=lightgreen`
		}
		buf.WriteString(fmt.Sprintf("    %q [label=\"%s\\nstate=%d\"%s];\n", p.Coord.String(), p.Coord.String(), p.State, style))
	}
	buf.WriteString("  }\n")
}

func vacantTargets(edges []primitives.Edge, resident map[primitives.Coord]bool) []primitives.Coord {
	seen := make(map[primitives.Coord]bool)
	var out []primitives.Coord
	for _, e := range edges {
		if !resident[e.Dst] && !seen[e.Dst] {
			seen[e.Dst] = true
			out = append(out, e.Dst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// sortedEdges orders edges by (src, dst) so output is stable across slot reuse.
func sortedEdges(edges []primitives.Edge) []primitives.Edge {
	out := append([]primitives.Edge(nil), edges...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Src != b.Src {
			return a.Src.String() < b.Src.String()
		}
		return a.Dst.String() < b.Dst.String()
	})
	return out
}
