package dag

import (
	"slices"
)

/*
Package dag is a small directed graph over int64 vertex ids. It is the
structure the distributed plan uses to record which execution node feeds
which. The graph itself permits cycles and self loops; callers that need a
DAG check for one with TopologicalSort.
*/

////////////////////////////////////////////////////////////////////////////////

// Edge is a directed edge from one vertex to another.
type Edge struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Reader is a read-only view of a graph.
type Reader interface {
	HasNode(id int64) bool
	Nodes() []int64
	Edges() []Edge
	Children(id int64) []int64
	Parents(id int64) []int64
	TopologicalSort() ([]int64, error)
	Walk(start int64, f WalkFunc, order WalkOrder) error
}

// Graph is a directed graph. The zero value is not usable; call New.
type Graph struct {
	children map[int64]set
	parents  map[int64]set
}

type set map[int64]struct{}

func (s set) sorted() []int64 {
	out := make([]int64, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		children: make(map[int64]set),
		parents:  make(map[int64]set),
	}
}

// AddNode adds a vertex. Adding an existing vertex is a no-op.
func (g *Graph) AddNode(id int64) {
	if _, ok := g.children[id]; ok {
		return
	}
	g.children[id] = make(set)
	g.parents[id] = make(set)
}

// HasNode reports whether id is a vertex of the graph.
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.children[id]
	return ok
}

// AddEdge adds a directed edge, adding either endpoint as a vertex if it is
// not already present. Repeated edges are stored once.
func (g *Graph) AddEdge(from, to int64) {
	g.AddNode(from)
	g.AddNode(to)
	g.children[from][to] = struct{}{}
	g.parents[to][from] = struct{}{}
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to int64) bool {
	_, ok := g.children[from][to]
	return ok
}

// Nodes returns all vertices in ascending order.
func (g *Graph) Nodes() []int64 {
	out := make([]int64, 0, len(g.children))
	for id := range g.children {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Edges returns all edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	for _, from := range g.Nodes() {
		for _, to := range g.children[from].sorted() {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Children returns the vertices id has an edge to, in ascending order.
func (g *Graph) Children(id int64) []int64 {
	return g.children[id].sorted()
}

// Parents returns the vertices with an edge to id, in ascending order.
func (g *Graph) Parents(id int64) []int64 {
	return g.parents[id].sorted()
}

// TopologicalSort returns the vertices ordered so that every edge points
// forward. Among vertices that are ready at the same time the smaller id
// comes first, so the result is deterministic. If the graph has a cycle, a
// CycleError naming the vertices that could not be ordered is returned.
func (g *Graph) TopologicalSort() ([]int64, error) {
	indegree := make(map[int64]int, len(g.parents))
	ready := []int64{}
	for _, id := range g.Nodes() {
		indegree[id] = len(g.parents[id])
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	order := make([]int64, 0, len(indegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, child := range g.Children(id) {
			indegree[child]--
			if indegree[child] == 0 {
				idx, _ := slices.BinarySearch(ready, child)
				ready = slices.Insert(ready, idx, child)
			}
		}
	}
	if len(order) < len(indegree) {
		remaining := []int64{}
		for _, id := range g.Nodes() {
			if indegree[id] > 0 {
				remaining = append(remaining, id)
			}
		}
		return nil, NewCycleError(remaining)
	}
	return order, nil
}
