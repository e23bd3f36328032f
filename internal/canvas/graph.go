package canvas

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/starford/flowboard/pkg/geometry"
)

// ClusterKind tells how a promotable set of notes was formed.
type ClusterKind int

const (
	// ClusterConnected is a connected component of two or more notes.
	ClusterConnected ClusterKind = iota
	// ClusterAdHoc is a manual selection of two or more notes that no
	// component fully contains.
	ClusterAdHoc
	// ClusterSingle is a single selected note.
	ClusterSingle
)

func (k ClusterKind) String() string {
	switch k {
	case ClusterConnected:
		return "connected"
	case ClusterAdHoc:
		return "ad-hoc"
	case ClusterSingle:
		return "single"
	}
	return "unknown"
}

// PromoteCandidate is a set of notes that can be turned into a task.
// Anchor is the bottom-right corner of the set's extent, where the
// affordance is drawn.
type PromoteCandidate struct {
	Kind    ClusterKind
	NoteIDs []string
	Anchor  geometry.Point
}

// buildGraph indexes notes by paint position and mirrors the connections
// into an undirected graph.
func buildGraph(s *Scene) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	idx := make(map[string]int64, len(s.order))
	for i, id := range s.order {
		idx[id] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, c := range s.conns {
		f, t := idx[c.From], idx[c.To]
		if f == t {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
	}
	return g
}

// Clusters returns every connected component with at least two notes.
// Members and clusters are both in paint order of their first note.
func Clusters(s *Scene) [][]string {
	g := buildGraph(s)

	var (
		out     [][]string
		members []int64
	)
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) { members = append(members, n.ID()) },
	}
	for i := range s.order {
		start := simple.Node(i)
		if bfs.Visited(start) {
			continue
		}
		members = members[:0]
		bfs.Walk(g, start, nil)
		if len(members) < 2 {
			continue
		}
		out = append(out, s.idsInOrder(members))
	}
	return out
}

// ComponentOf returns the connected component containing id, including id
// itself. It is nil when the note does not exist.
func ComponentOf(s *Scene, id string) []string {
	for i, o := range s.order {
		if o != id {
			continue
		}
		var members []int64
		bfs := traverse.BreadthFirst{
			Visit: func(n graph.Node) { members = append(members, n.ID()) },
		}
		bfs.Walk(buildGraph(s), simple.Node(i), nil)
		return s.idsInOrder(members)
	}
	return nil
}

func (s *Scene) idsInOrder(members []int64) []string {
	in := make([]bool, len(s.order))
	for _, m := range members {
		in[m] = true
	}
	ids := make([]string, 0, len(members))
	for i, id := range s.order {
		if in[i] {
			ids = append(ids, id)
		}
	}
	return ids
}

// PromoteCandidates lists the note sets offered for promotion: every
// cluster, the selection when it has two or more notes and is not
// contained in a cluster, and a single selected note.
func PromoteCandidates(s *Scene) []PromoteCandidate {
	var out []PromoteCandidate
	clusters := Clusters(s)
	for _, c := range clusters {
		out = appendCandidate(out, s, ClusterConnected, c)
	}

	sel := s.Selected()
	switch {
	case len(sel) == 1:
		out = appendCandidate(out, s, ClusterSingle, sel)
	case len(sel) >= 2 && !coveredBy(sel, clusters):
		out = appendCandidate(out, s, ClusterAdHoc, sel)
	}
	return out
}

func appendCandidate(out []PromoteCandidate, s *Scene, kind ClusterKind, ids []string) []PromoteCandidate {
	ext, ok := s.Extent(ids)
	if !ok {
		return out
	}
	return append(out, PromoteCandidate{Kind: kind, NoteIDs: ids, Anchor: ext.Max()})
}

func coveredBy(ids []string, clusters [][]string) bool {
	for _, c := range clusters {
		set := make(map[string]struct{}, len(c))
		for _, id := range c {
			set[id] = struct{}{}
		}
		all := true
		for _, id := range ids {
			if _, ok := set[id]; !ok {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
