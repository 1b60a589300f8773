package aggregates

import (
	"fmt"
	"math"

	"mindcanvas/domain/config"
	"mindcanvas/domain/core/entities"
	"mindcanvas/domain/core/valueobjects"
)

// EdgeKind distinguishes tree edges from cross-links
type EdgeKind string

const (
	EdgeParentChild EdgeKind = "parent_child"
	EdgeCustom      EdgeKind = "custom"
)

// Edge is a renderable connection between two existing nodes
type Edge struct {
	From valueobjects.NodeID
	To   valueobjects.NodeID
	Kind EdgeKind
}

// ComputeEdges derives the edge list: one parent-child edge per node whose
// parent exists, in node order, followed by one custom edge per connection
// whose target exists. References to missing nodes are dropped.
func ComputeEdges(nodes []*entities.Node) []Edge {
	byID := make(map[valueobjects.NodeID]bool, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = true
	}

	edges := make([]Edge, 0, len(nodes))
	for _, n := range nodes {
		p := n.ParentID()
		if p == nil || !byID[*p] {
			continue
		}
		edges = append(edges, Edge{From: *p, To: n.ID(), Kind: EdgeParentChild})
	}
	for _, n := range nodes {
		for _, target := range n.Connections() {
			if !byID[target] {
				continue
			}
			edges = append(edges, Edge{From: n.ID(), To: target, Kind: EdgeCustom})
		}
	}
	return edges
}

// Edges derives the current edge list of the map
func (m *MindMap) Edges() []Edge {
	return ComputeEdges(m.Nodes())
}

// BezierPath is a cubic curve in canvas space
type BezierPath struct {
	Start    valueobjects.Point
	Control1 valueobjects.Point
	Control2 valueobjects.Point
	End      valueobjects.Point
}

// SVG renders the path as an SVG path "d" attribute
func (p BezierPath) SVG() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		p.Start.X, p.Start.Y,
		p.Control1.X, p.Control1.Y,
		p.Control2.X, p.Control2.Y,
		p.End.X, p.End.Y)
}

// EdgePath computes the curve for an edge. Both endpoints are anchored at
// the node origin plus the configured anchor offset, and the control
// points pull horizontally away from each end.
func EdgePath(edge Edge, nodes map[valueobjects.NodeID]valueobjects.Point, cfg *config.DomainConfig) (BezierPath, bool) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	from, ok := nodes[edge.From]
	if !ok {
		return BezierPath{}, false
	}
	to, ok := nodes[edge.To]
	if !ok {
		return BezierPath{}, false
	}

	anchor := valueobjects.NewPoint(cfg.EdgeAnchorOffsetX, cfg.EdgeAnchorOffsetY)
	ctrl := valueobjects.NewPoint(cfg.EdgeControlOffset, 0)
	start := from.Add(anchor)
	end := to.Add(anchor)
	return BezierPath{
		Start:    start,
		Control1: start.Add(ctrl),
		Control2: end.Sub(ctrl),
		End:      end,
	}, true
}

// EdgePaths computes the curve of every edge of the map, in edge order
func (m *MindMap) EdgePaths() []BezierPath {
	positions := make(map[valueobjects.NodeID]valueobjects.Point, len(m.order))
	for _, id := range m.order {
		positions[id] = m.nodes[id].Position()
	}
	edges := m.Edges()
	paths := make([]BezierPath, 0, len(edges))
	for _, e := range edges {
		if p, ok := EdgePath(e, positions, m.cfg); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// Bounds is an axis-aligned box
type Bounds struct {
	Min valueobjects.Point
	Max valueobjects.Point
}

// Center of the box
func (b Bounds) Center() valueobjects.Point {
	return valueobjects.NewPoint((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

// PathBounds returns the box around all path endpoints, padded by pad.
// It reports false for an empty list.
func PathBounds(paths []BezierPath, pad float64) (Bounds, bool) {
	if len(paths) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		Min: valueobjects.NewPoint(math.Inf(1), math.Inf(1)),
		Max: valueobjects.NewPoint(math.Inf(-1), math.Inf(-1)),
	}
	for _, p := range paths {
		for _, pt := range []valueobjects.Point{p.Start, p.End} {
			b.Min.X = math.Min(b.Min.X, pt.X)
			b.Min.Y = math.Min(b.Min.Y, pt.Y)
			b.Max.X = math.Max(b.Max.X, pt.X)
			b.Max.Y = math.Max(b.Max.Y, pt.Y)
		}
	}
	b.Min = b.Min.Sub(valueobjects.NewPoint(pad, pad))
	b.Max = b.Max.Add(valueobjects.NewPoint(pad, pad))
	return b, true
}

// NodeBounds returns the box around all node origins. It reports false
// when there are no nodes.
func NodeBounds(nodes []*entities.Node) (Bounds, bool) {
	if len(nodes) == 0 {
		return Bounds{}, false
	}
	first := nodes[0].Position()
	b := Bounds{Min: first, Max: first}
	for _, n := range nodes[1:] {
		p := n.Position()
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b, true
}
