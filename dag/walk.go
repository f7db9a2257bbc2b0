package dag

import "errors"

// WalkOrder defines the order in which a vertex and its children are visited.
type WalkOrder uint8

const (
	// PreOrderWalk visits a vertex before any of its children.
	PreOrderWalk WalkOrder = iota

	// PostOrderWalk visits a vertex after all of its children.
	PostOrderWalk
)

// WalkFunc is invoked for each vertex reached by Walk. Walking stops at the
// first non-nil error.
type WalkFunc func(id int64) error

// Walk performs a depth-first walk of the outgoing edges from start. Each
// reachable vertex is visited once, children in ascending order. Vertices
// unreachable from start are not visited.
func (g *Graph) Walk(start int64, f WalkFunc, order WalkOrder) error {
	visited := make(set)
	switch order {
	case PreOrderWalk:
		return g.preOrderWalk(start, f, visited)
	case PostOrderWalk:
		return g.postOrderWalk(start, f, visited)
	default:
		return errors.New("unsupported walk order")
	}
}

func (g *Graph) preOrderWalk(id int64, f WalkFunc, visited set) error {
	if _, ok := visited[id]; ok {
		return nil
	}
	visited[id] = struct{}{}
	if err := f(id); err != nil {
		return err
	}
	for _, child := range g.Children(id) {
		if err := g.preOrderWalk(child, f, visited); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) postOrderWalk(id int64, f WalkFunc, visited set) error {
	if _, ok := visited[id]; ok {
		return nil
	}
	visited[id] = struct{}{}
	for _, child := range g.Children(id) {
		if err := g.postOrderWalk(child, f, visited); err != nil {
			return err
		}
	}
	return f(id)
}
