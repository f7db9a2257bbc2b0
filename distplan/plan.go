package distplan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wkalt/distplan/dag"
	"github.com/wkalt/distplan/planwire"
)

/*
Package distplan holds the physical plan of a distributed query: one
execution node per participating machine, each carrying the fragment of the
query it runs, and a directed graph recording which node feeds which.

A plan graph is built by a single goroutine and is not safe for concurrent
mutation. Once every node has a fragment the graph can be rendered into a
planwire.DistributedPlan for transport.
*/

////////////////////////////////////////////////////////////////////////////////

// PlanGraph owns a set of execution nodes and the data-flow edges between
// them.
type PlanGraph struct {
	nodes       map[int64]*ExecutionNode
	dag         *dag.Graph
	nextID      int64
	distributed bool
	queryID     uuid.UUID
}

// NewPlanGraph returns an empty plan graph.
func NewPlanGraph() *PlanGraph {
	return &PlanGraph{
		nodes: make(map[int64]*ExecutionNode),
		dag:   dag.New(),
	}
}

// AddNode registers a new execution node and returns its id. Ids start at
// zero and are never reused.
func (g *PlanGraph) AddNode(descriptor Descriptor) int64 {
	id := g.nextID
	g.nextID++
	g.nodes[id] = &ExecutionNode{
		id:         id,
		descriptor: descriptor,
	}
	g.dag.AddNode(id)
	return id
}

// Get returns the node with the given id. The node remains owned by the
// graph; callers may install fragments on it.
func (g *PlanGraph) Get(id int64) (*ExecutionNode, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, NewUnknownNodeError(id)
	}
	return node, nil
}

// AddEdge records that node from produces input for node to. Both nodes
// must exist; otherwise the graph is left unchanged. Cycles are not checked
// here, see Validate.
func (g *PlanGraph) AddEdge(from, to int64) error {
	if _, ok := g.nodes[from]; !ok {
		return NewUnknownNodeError(from)
	}
	if _, ok := g.nodes[to]; !ok {
		return NewUnknownNodeError(to)
	}
	g.dag.AddEdge(from, to)
	return nil
}

// AddNodeEdge is AddEdge for node handles. Handles from another graph are
// rejected.
func (g *PlanGraph) AddNodeEdge(from, to *ExecutionNode) error {
	for _, n := range []*ExecutionNode{from, to} {
		if n == nil {
			return ErrNilNode
		}
		if g.nodes[n.id] != n {
			return NewUnknownNodeError(n.id)
		}
	}
	return g.AddEdge(from.id, to.id)
}

// SetDistributed sets the advisory distributed flag.
func (g *PlanGraph) SetDistributed(distributed bool) {
	g.distributed = distributed
}

// Distributed returns the advisory distributed flag.
func (g *PlanGraph) Distributed() bool {
	return g.distributed
}

// SetQueryID sets the id of the query the plan belongs to.
func (g *PlanGraph) SetQueryID(id uuid.UUID) {
	g.queryID = id
}

// QueryID returns the id of the query the plan belongs to.
func (g *PlanGraph) QueryID() uuid.UUID {
	return g.queryID
}

// Len returns the number of nodes.
func (g *PlanGraph) Len() int {
	return len(g.nodes)
}

// Nodes returns the nodes in ascending id order.
func (g *PlanGraph) Nodes() []*ExecutionNode {
	ids := g.dag.Nodes()
	nodes := make([]*ExecutionNode, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// DAG returns a read-only view of the dependency graph.
func (g *PlanGraph) DAG() dag.Reader {
	return g.dag
}

// Validate checks that the dependency graph is acyclic.
func (g *PlanGraph) Validate() error {
	if _, err := g.dag.TopologicalSort(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return nil
}

// Render produces the wire message for the whole plan. It fails if any node
// lacks a fragment or a fragment fails to render, in which case no message
// is returned. Nodes appear in ascending id order and edges sorted by
// (from, to), so identically built graphs render identically.
func (g *PlanGraph) Render() (*planwire.DistributedPlan, error) {
	nodes := g.Nodes()
	entries := make([]planwire.PlanNode, 0, len(nodes))
	for _, node := range nodes {
		fragment, err := node.RenderFragment()
		if err != nil {
			return nil, err
		}
		entries = append(entries, planwire.PlanNode{
			ID:       node.id,
			Info:     node.descriptor.wire(),
			Fragment: fragment,
		})
	}
	dagEdges := g.dag.Edges()
	edges := make([]planwire.Edge, len(dagEdges))
	for i, e := range dagEdges {
		edges[i] = planwire.Edge{From: e.From, To: e.To}
	}
	return &planwire.DistributedPlan{
		Version:     planwire.Version,
		QueryID:     g.queryID,
		Distributed: g.distributed,
		Nodes:       entries,
		Edges:       edges,
	}, nil
}
